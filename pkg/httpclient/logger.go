package httpclient

// Logger receives one structured record per attempt outcome. Each call logs
// obj under key; *logger.ZapLogger and the publishers satisfy it.
type Logger interface {
	DebugObj(msg, key string, obj interface{})
	InfoObj(msg, key string, obj interface{})
	WarnObj(msg, key string, obj interface{})
	ErrorObj(msg, key string, obj interface{})
}

// discard drops every record. It is the default when no logger is given.
type discard struct{}

func (discard) DebugObj(string, string, interface{}) {}
func (discard) InfoObj(string, string, interface{})  {}
func (discard) WarnObj(string, string, interface{})  {}
func (discard) ErrorObj(string, string, interface{}) {}

func orDiscard(log Logger) Logger {
	if log == nil {
		return discard{}
	}
	return log
}
