package application

import (
	"io"

	"github.com/sirupsen/logrus"
)

// quietLogger stands in when a service is built without a logger.
var quietLogger = func() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}()
