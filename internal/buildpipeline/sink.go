package buildpipeline

import (
	"irgen/internal/diag"
	"irgen/internal/source"
	"irgen/internal/trace"
)

// ChannelSink forwards events into a channel.
type ChannelSink struct {
	Ch chan<- Event
}

func (s ChannelSink) OnEvent(evt Event) {
	if s.Ch == nil {
		return
	}
	s.Ch <- evt
}

// FuncSink adapts a function to ProgressSink.
type FuncSink func(Event)

func (f FuncSink) OnEvent(evt Event) {
	if f != nil {
		f(evt)
	}
}

func emit(sink ProgressSink, unit string, stage Stage, status Status, err error) {
	if sink == nil {
		return
	}
	sink.OnEvent(Event{Unit: unit, Stage: stage, Status: status, Err: err})
}

// traceReporter mirrors unit diagnostics into the tracer as point events
// named "diag:<code>".
type traceReporter struct {
	tracer trace.Tracer
	unit   string
	parent uint64
}

func (r traceReporter) Report(code diag.Code, sev diag.Severity, _ source.Span, msg string, _ []diag.Note) {
	trace.Point(r.tracer, trace.ScopeUnit, "diag:"+code.ID(), r.unit+": "+sev.String()+": "+msg, r.parent)
}
