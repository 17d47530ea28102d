package publishers

// Logger defines the logging surface publishers rely on.
type Logger interface {
	InfoObj(msg, key string, obj interface{})
	DebugObj(msg, key string, obj interface{})
	WarnObj(msg, key string, obj interface{})
	ErrorObj(msg, key string, obj interface{})
}

type noopLogger struct{}

func (noopLogger) InfoObj(string, string, interface{})  {}
func (noopLogger) DebugObj(string, string, interface{}) {}
func (noopLogger) WarnObj(string, string, interface{})  {}
func (noopLogger) ErrorObj(string, string, interface{}) {}

func ensureLogger(log Logger) Logger {
	if log == nil {
		return noopLogger{}
	}
	return log
}

// logDelivery records the outcome of one publish attempt. Failures log at
// error level and successes at debug, both tagged with the entry position.
func logDelivery(log Logger, typ, id string, evt Event, err error, extra map[string]any) {
	fields := map[string]any{
		"publisher_id": id,
		"entry_key":    evt.EntryKey,
		"entry_index":  evt.EntryIndex,
	}
	for k, v := range extra {
		fields[k] = v
	}
	if err != nil {
		fields["error"] = err.Error()
		log.ErrorObj(typ+" publisher send failed", "publisher_"+typ+"_error", fields)
		return
	}
	log.DebugObj(typ+" publisher delivered event", "publisher_"+typ+"_delivery", fields)
}
