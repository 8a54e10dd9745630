package tabgrouper

import (
	"pkt.systems/pslog"
	"pkt.systems/tabgrouper/core"
	"pkt.systems/tabgrouper/schema"
)

type eventFanout struct {
	sinks []core.EventSink
}

// FanoutSink delivers each event to every non-nil sink in order.
func FanoutSink(sinks ...core.EventSink) core.EventSink {
	out := make([]core.EventSink, 0, len(sinks))
	for _, sink := range sinks {
		if sink != nil {
			out = append(out, sink)
		}
	}
	if len(out) == 1 {
		return out[0]
	}
	return eventFanout{sinks: out}
}

func (f eventFanout) OnTabEvent(event schema.TabEvent) {
	for _, sink := range f.sinks {
		if sink == nil {
			continue
		}
		sink.OnTabEvent(event)
	}
}

type logSink struct {
	logger pslog.Logger
}

// LogSink traces every tab event to logger at debug level.
func LogSink(logger pslog.Logger) core.EventSink {
	return logSink{logger: logger}
}

func (s logSink) OnTabEvent(event schema.TabEvent) {
	if s.logger == nil {
		return
	}
	s.logger.Debug(
		"tab event",
		"event", event.Type,
		"tab", event.TabID,
		"window", event.Tab.WindowID,
		"status", event.Change.Status,
		"url", event.Change.URL,
	)
}
