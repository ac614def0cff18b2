package util

// Ignore calls f and drops its error, for deferred Close calls.
func Ignore(f func() error) {
	_ = f()
}
