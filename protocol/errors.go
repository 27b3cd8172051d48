package protocol

import "github.com/sage-x-project/didcomm-mediator/internal/logger"

// logInternalError records a persistence or envelope failure as a
// structured MediatorError (spec.md §7) before the caller converts it to a
// problem-report. op names the failing operation for the log line; code is
// the stable machine-readable error code attached to the entry.
func logInternalError(op, code string, cause error) *logger.MediatorError {
	mErr := logger.NewMediatorError(code, op+" failed", cause)
	logger.GetDefaultLogger().Error(op, logger.String("code", code), logger.Error(mErr))
	return mErr
}
