package utils

// Guard runs a cleanup function when a constructor that has already acquired a resource returns
// early with an error. Use it as:
//
//	guard := NewGuard(func() { f.Close() })
//	defer guard.OnFail()
//	...
//	guard.Success()
type Guard struct {
	cleanup func()
	success bool
}

// NewGuard returns a Guard that calls onFailCleanup from OnFail unless Success was called.
func NewGuard(onFailCleanup func()) *Guard {
	return &Guard{cleanup: onFailCleanup}
}

// OnFail runs the cleanup if Success was not called. It is meant to be deferred.
func (guard *Guard) OnFail() {
	if !guard.success && guard.cleanup != nil {
		guard.cleanup()
	}
}

// Success marks the guarded function as having succeeded.
func (guard *Guard) Success() {
	guard.success = true
}
