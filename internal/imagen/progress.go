package imagen

// Generation steps reported through ProgressCallback.
const (
	StepValidate = "validate"
	StepVision   = "vision"
	StepCompose  = "compose"
	StepPredict  = "predict"
	StepFallback = "fallback"
	StepDone     = "done"
)

// ProgressEvent represents a progress update during generation
type ProgressEvent struct {
	Step      string `json:"step"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
	Content   any    `json:"content,omitempty"`
}

// ProgressCallback is called when generation progress occurs
type ProgressCallback func(event ProgressEvent)

// emitProgress calls the progress callback if configured
func (s *Service) emitProgress(requestID, step, message string, content any) {
	if s.OnProgress != nil {
		s.OnProgress(ProgressEvent{
			Step:      step,
			Message:   message,
			RequestID: requestID,
			Content:   content,
		})
	}
}
