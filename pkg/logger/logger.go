package logger

import (
	"go.uber.org/zap"
)

// NewLogger builds the process-wide production logger. Callers receive it
// explicitly; nothing reads a global.
func NewLogger() *zap.Logger {
	l, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	return l
}

// NewDevelopment builds a human-readable logger for local runs.
func NewDevelopment() *zap.Logger {
	l, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	return l
}
