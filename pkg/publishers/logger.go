package publishers

import "github.com/samvad-hq/samvad-request-manager/internal/logger"

// Logger defines the logging surface publishers rely on.
type Logger = logger.Logger

type noopLogger = logger.NopLogger

func ensureLogger(log Logger) Logger {
	if log == nil {
		return noopLogger{}
	}
	return log
}
