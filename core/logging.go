package core

// Logger is any service that can log leveled messages.
// Extra args may carry context values; an args entry of type user.User sets
// the person on error-tracking backends that support it.
type Logger interface {
	Enable(enabled bool)
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
