package logger

// Writer is an object that provides a log method.
type Writer interface {
	Log(Level, string, ...any)
}

type nilWriter struct{}

func (nilWriter) Log(Level, string, ...any) {}

// NilWriter is a Writer that discards everything.
var NilWriter Writer = nilWriter{}
