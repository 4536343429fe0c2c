package publishers

import "github.com/Paraschamoli/Bindu/pkg/httpclient"

// Logger is the logging surface publishers rely on. It matches the client's
// so one logger serves both.
type Logger = httpclient.Logger

type nopLogger struct{}

func (nopLogger) InfoObj(string, string, interface{})  {}
func (nopLogger) DebugObj(string, string, interface{}) {}
func (nopLogger) WarnObj(string, string, interface{})  {}
func (nopLogger) ErrorObj(string, string, interface{}) {}

func ensureLogger(log Logger) Logger {
	if log == nil {
		return nopLogger{}
	}
	return log
}
