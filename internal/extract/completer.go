package extract

import "context"

// CompletionRequest is a single prompt sent to an inference backend.
type CompletionRequest struct {
	System string
	Prompt string
}

// Completer is the transport-level contract a vendor backend implements:
// one prompt in, one raw text completion out. All domain knowledge lives
// above this interface in Service.
type Completer interface {
	Name() string
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}
