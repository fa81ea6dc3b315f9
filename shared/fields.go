package shared

import "go.uber.org/zap"

// ErrorField wraps err as a zap.Field, substituting a literal "<nil>" error
// when err is nil so a Warn call site doesn't need its own nil-check before
// logging a diagnostic (throttled RT-adjacent log sites, not the RT thread
// itself).
func ErrorField(err error) zap.Field {
	if err == nil {
		return zap.String("error", "<nil>")
	}
	return zap.Error(err)
}
