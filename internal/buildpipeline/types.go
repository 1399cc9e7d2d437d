package buildpipeline

import "time"

// Stage describes a step of building one unit.
type Stage string

const (
	// StageEmit drives the generation context from the manifest.
	StageEmit Stage = "emit"
	// StageFinalize closes the unit and releases its module.
	StageFinalize Stage = "finalize"
	// StageWrite writes the .ll file and the summary.
	StageWrite Stage = "write"
)

// Status captures progress state within a stage.
type Status string

const (
	// StatusQueued indicates the unit is waiting to start.
	StatusQueued Status = "queued"
	// StatusWorking indicates the unit is in progress.
	StatusWorking Status = "working"
	// StatusDone indicates the unit was built.
	StatusDone Status = "done"
	// StatusCached indicates the unit was up to date and skipped.
	StatusCached Status = "cached"
	// StatusError indicates the unit failed.
	StatusError Status = "error"
)

// Event reports progress for a unit (or for the whole build when Unit is empty).
type Event struct {
	Unit    string
	Stage   Stage
	Status  Status
	Err     error
	Elapsed time.Duration
}

// ProgressSink consumes progress events. Build calls OnEvent from several
// goroutines.
type ProgressSink interface {
	OnEvent(Event)
}

// Timings holds accumulated stage durations across units.
type Timings struct {
	stages map[Stage]time.Duration
}

func (t *Timings) ensure() {
	if t.stages == nil {
		t.stages = make(map[Stage]time.Duration)
	}
}

// Add accumulates dur into stage.
func (t *Timings) Add(stage Stage, dur time.Duration) {
	if t == nil {
		return
	}
	t.ensure()
	t.stages[stage] += dur
}

// Has reports whether a duration for stage is recorded.
func (t Timings) Has(stage Stage) bool {
	if t.stages == nil {
		return false
	}
	_, ok := t.stages[stage]
	return ok
}

// Duration returns the recorded duration for stage.
func (t Timings) Duration(stage Stage) time.Duration {
	if t.stages == nil {
		return 0
	}
	return t.stages[stage]
}

// Sum returns the sum of durations across the provided stages.
func (t Timings) Sum(stages ...Stage) time.Duration {
	if t.stages == nil {
		return 0
	}
	var total time.Duration
	for _, stage := range stages {
		total += t.stages[stage]
	}
	return total
}
