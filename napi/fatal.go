package napi

import "go.uber.org/zap"

// FatalError reports an unrecoverable native error and terminates the
// process through the package logger's fatal hook. It does not return
// unless the logger was built with a non-exiting fatal hook.
func FatalError(location, message string) {
	Logger().Fatal("FATAL ERROR",
		zap.String("location", location),
		zap.String("message", message),
	)
}
