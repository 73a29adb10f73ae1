package graphqlhttp

import (
	"fmt"

	"github.com/jensneuse/abstractlogger"
)

// leveledLogger writes retryablehttp logs to an abstractlogger.Logger.
type leveledLogger struct {
	logger abstractlogger.Logger
}

func (l *leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Error("graphqlhttp.retry: "+msg, fields(keysAndValues)...)
}

func (l *leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Info("graphqlhttp.retry: "+msg, fields(keysAndValues)...)
}

func (l *leveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("graphqlhttp.retry: "+msg, fields(keysAndValues)...)
}

func (l *leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Warn("graphqlhttp.retry: "+msg, fields(keysAndValues)...)
}

func fields(keysAndValues []interface{}) []abstractlogger.Field {
	out := make([]abstractlogger.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		out = append(out, abstractlogger.Any(fmt.Sprint(keysAndValues[i]), keysAndValues[i+1]))
	}
	return out
}

// restyLogger writes resty logs to an abstractlogger.Logger.
type restyLogger struct {
	logger abstractlogger.Logger
}

func (r *restyLogger) Errorf(format string, v ...interface{}) {
	r.logger.Error("graphqlhttp.resty: " + fmt.Sprintf(format, v...))
}

func (r *restyLogger) Warnf(format string, v ...interface{}) {
	r.logger.Warn("graphqlhttp.resty: " + fmt.Sprintf(format, v...))
}

func (r *restyLogger) Debugf(format string, v ...interface{}) {
	r.logger.Debug("graphqlhttp.resty: " + fmt.Sprintf(format, v...))
}
