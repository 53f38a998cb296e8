package catalog

// SetNewID swaps the id generator, returning a func restoring it.
func SetNewID(f func() string) (restore func()) {
	orig := newID
	newID = f
	return func() { newID = orig }
}
