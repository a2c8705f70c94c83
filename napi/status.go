package napi

import "fmt"

// Status is the result code of every native API call. Values match the
// Node-API numbering so addons built against node_api.h see the same codes.
type Status int32

const (
	StatusOK Status = iota
	StatusInvalidArg
	StatusObjectExpected
	StatusStringExpected
	StatusNameExpected
	StatusFunctionExpected
	StatusNumberExpected
	StatusBooleanExpected
	StatusArrayExpected
	StatusGenericFailure
	StatusPendingException
	StatusCancelled
	StatusEscapeCalledTwice
	StatusHandleScopeMismatch
	StatusCallbackScopeMismatch
	StatusQueueFull
	StatusClosing
	StatusBigintExpected
	StatusDateExpected
	StatusArraybufferExpected
	StatusDetachableArraybufferExpected
	StatusWouldDeadlock
	StatusNoExternalBuffersAllowed
	StatusCannotRunJS
)

var statusNames = [...]string{
	StatusOK:                            "ok",
	StatusInvalidArg:                    "invalid_arg",
	StatusObjectExpected:                "object_expected",
	StatusStringExpected:                "string_expected",
	StatusNameExpected:                  "name_expected",
	StatusFunctionExpected:              "function_expected",
	StatusNumberExpected:                "number_expected",
	StatusBooleanExpected:               "boolean_expected",
	StatusArrayExpected:                 "array_expected",
	StatusGenericFailure:                "generic_failure",
	StatusPendingException:              "pending_exception",
	StatusCancelled:                     "cancelled",
	StatusEscapeCalledTwice:             "escape_called_twice",
	StatusHandleScopeMismatch:           "handle_scope_mismatch",
	StatusCallbackScopeMismatch:         "callback_scope_mismatch",
	StatusQueueFull:                     "queue_full",
	StatusClosing:                       "closing",
	StatusBigintExpected:                "bigint_expected",
	StatusDateExpected:                  "date_expected",
	StatusArraybufferExpected:           "arraybuffer_expected",
	StatusDetachableArraybufferExpected: "detachable_arraybuffer_expected",
	StatusWouldDeadlock:                 "would_deadlock",
	StatusNoExternalBuffersAllowed:      "no_external_buffers_allowed",
	StatusCannotRunJS:                   "cannot_run_js",
}

func (s Status) String() string {
	if s >= 0 && int(s) < len(statusNames) {
		return statusNames[s]
	}
	return fmt.Sprintf("status(%d)", int32(s))
}

// Error implements error so a Status can travel through Go error returns.
func (s Status) Error() string {
	return "napi: " + s.String()
}
