// recover.go turns fatal escalations back into errors at API boundaries.

package diag

// Recover stops a panic carrying a *Failure and stores the failure in *errp.
// Any other panic is re-raised unchanged. It must be deferred directly:
//
//	func (s *Store) Compact() (err error) {
//	    defer diag.Recover(&err)
//	    // code that may fail fatally
//	}
func Recover(errp *error) {
	r := recover()
	if r == nil {
		return
	}
	f, ok := r.(*Failure)
	if !ok {
		panic(r)
	}
	if errp != nil {
		*errp = f
	}
}

// Catch runs fn and returns the *Failure of a fatal escalation inside it,
// or nil if fn returned normally. Other panics propagate.
func Catch(fn func()) (err error) {
	defer Recover(&err)
	fn()
	return nil
}
