package classroom

// MockJoinCode overrides join code generation; the returned func restores it.
func MockJoinCode(fn func() string) (restore func()) {
	orig := generateJoinCode
	generateJoinCode = fn
	return func() { generateJoinCode = orig }
}
