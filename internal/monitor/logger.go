package monitor

import "github.com/sirupsen/logrus"

// NewLogger builds the JSON-formatted logrus logger every kernel package
// derives its component-scoped entries from via WithField("component", ...).
func NewLogger(level logrus.Level) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(level)
	return logger
}
