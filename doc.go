// Package storekit is a client for replicated, partitioned key-value
// clusters speaking the native socket or HTTP protocol.
//
// A client bootstraps from any cluster member, learns the topology from the
// metadata store, and routes each key to its replica set on a consistent
// partition ring. Every value carries a vector clock; reads gather all
// replica versions and resolve them down to one, writes descend from the
// version they read.
//
//	client, err := storekit.Connect(ctx, "tcp://localhost:6666")
//	if err != nil { ... }
//	store, err := client.Store("test")
//	if err != nil { ... }
//
//	value := "bar"
//	if _, err := store.Put(ctx, "foo", &value); err != nil { ... }
//	got, clock, err := store.Get(ctx, "foo")
//
// Operations are synchronous and sequential; a Store is safe to share only
// when callers serialize access themselves.
package storekit
