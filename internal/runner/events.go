package runner

import "time"

// Sample is the immutable outcome of one measured run.
type Sample struct {
	BatchSize int           `json:"batchSize"`
	Duration  time.Duration `json:"duration"`
	// Tokens is the number of tokens generated, summed across the batch.
	Tokens int `json:"tokens"`
	// Err is empty on success and carries the failure reason otherwise.
	Err string `json:"err,omitempty"`
}

// Failed reports whether the run this sample records failed.
func (s Sample) Failed() bool { return s.Err != "" }

// Event is one entry in the scheduler's ordered event stream. Exactly one
// consumer applies events, in the order they are emitted.
type Event interface{ isEvent() }

// SampleEvent carries one measured run's outcome. Warmup runs never produce
// a SampleEvent.
type SampleEvent struct {
	Sample Sample
}

// WarmupEvent reports progress through a group's warmup phase. Warmup runs
// are discarded and never reach the aggregator.
type WarmupEvent struct {
	BatchSize int
	Done      int
	Total     int
}

// RunSetComplete signals that a batch-size group has finished all of its
// measured runs.
type RunSetComplete struct {
	BatchSize int
}

// SetAborted signals that cancellation stopped the named group before it
// completed. In-flight runs have already drained when this is emitted.
type SetAborted struct {
	BatchSize int
}

func (SampleEvent) isEvent()    {}
func (WarmupEvent) isEvent()    {}
func (RunSetComplete) isEvent() {}
func (SetAborted) isEvent()     {}
