package errors

// WrapOpComponent provides a convenience helper to wrap errors with consistent
// Op and Component propagation. It avoids repetition when creating structured
// errors throughout the codebase. If err is nil, returns nil. An existing
// StoreError passes through unchanged so the original Kind survives fan-out.
func WrapOpComponent(err error, op Operation, component string) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(*StoreError); ok {
		return err
	}
	return NewWithComponent(op, component, err)
}

// WrapOpComponentKind wraps errors with Op, Component, and Kind.
// If err is nil, returns nil.
func WrapOpComponentKind(err error, op Operation, component string, kind Kind) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(*StoreError); ok {
		return err
	}
	return &StoreError{Op: op, Component: component, Kind: kind, Err: err}
}
