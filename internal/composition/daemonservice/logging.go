package daemonservice

import "strings"

const daemonComponentName = "daemonservice"

func (s *Service) logInfo(operation, message string, attrs ...any) {
	base := []any{
		"component", daemonComponentName,
		"operation", strings.TrimSpace(operation),
	}
	s.logger.Info(message, append(base, attrs...)...)
}

func (s *Service) logWarn(operation, message string, attrs ...any) {
	base := []any{
		"component", daemonComponentName,
		"operation", strings.TrimSpace(operation),
	}
	s.logger.Warn(message, append(base, attrs...)...)
}

func (s *Service) logError(operation string, err error, attrs ...any) {
	if err == nil {
		return
	}
	base := []any{
		"component", daemonComponentName,
		"operation", strings.TrimSpace(operation),
		"error", err.Error(),
	}
	s.logger.Error("service error", append(base, attrs...)...)
}

// ledgerLogHooks adapts the component logger to the func hooks the ledger
// service takes.
func (s *Service) ledgerLogHooks() (info, errorf func(message string, args ...any)) {
	info = func(message string, args ...any) {
		s.logger.Info(message, append([]any{"component", "marketplace"}, args...)...)
	}
	errorf = func(message string, args ...any) {
		s.logger.Error(message, append([]any{"component", "marketplace"}, args...)...)
	}
	return info, errorf
}
