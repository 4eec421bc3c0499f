package worker

import (
	"fmt"

	"sjsage522/pricesheet/logger"
)

// cronLogger routes the scheduler's own messages to the worker logger.
type cronLogger struct{}

func (cronLogger) formatParams(keysAndValues []interface{}) string {
	var out string
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		out += fmt.Sprintf(" %v=%v", keysAndValues[i], keysAndValues[i+1])
	}
	return out
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logger.Debug("cron: %s%s", msg, l.formatParams(keysAndValues))
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logger.ForWorker().WithError(err).Error().Msgf("cron: %s%s", msg, l.formatParams(keysAndValues))
}
