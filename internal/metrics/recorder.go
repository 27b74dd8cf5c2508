package metrics

import "time"

// ResultLabel enumerates generation outcome categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultFailed   ResultLabel = "failed"
	ResultCanceled ResultLabel = "canceled"
)

// LLM call result labels.
const (
	CallSuccess = "success"
	CallError   = "error"
)

// Recorder is the set of observability hooks the generation pipeline calls.
// Every method must tolerate a nil receiver so components can hold a Recorder
// without checking whether one was injected.
type Recorder interface {
	ObserveGenerationDuration(outcome ResultLabel, d time.Duration)
	ObserveStageDuration(stage string, d time.Duration)
	ObserveSectionDuration(section string, d time.Duration)
	IncLLMCall(operation, result string)
	ObserveRefinementIterations(n int)
	ObserveGuardWait(d time.Duration)
	IncPublishRetry()
	SetQueueDepth(n int)
}

// NoopRecorder discards every observation. It is the default wherever no
// recorder was configured.
type NoopRecorder struct{}

func (NoopRecorder) ObserveGenerationDuration(ResultLabel, time.Duration) {}
func (NoopRecorder) ObserveStageDuration(string, time.Duration)          {}
func (NoopRecorder) ObserveSectionDuration(string, time.Duration)        {}
func (NoopRecorder) IncLLMCall(string, string)                           {}
func (NoopRecorder) ObserveRefinementIterations(int)                     {}
func (NoopRecorder) ObserveGuardWait(time.Duration)                      {}
func (NoopRecorder) IncPublishRetry()                                    {}
func (NoopRecorder) SetQueueDepth(int)                                   {}
