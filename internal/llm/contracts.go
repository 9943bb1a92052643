package llm

import "context"

// VisionRequest is one prompt plus images sent to a vision-language model.
type VisionRequest struct {
	Model  string
	Prompt string
	Images [][]byte // raw image bytes (PNG)

	// Format constrains the reply. A JSON schema map asks the runtime for
	// structured output; nil leaves the reply free-form.
	Format map[string]any
}

// VisionModel is the only thing the pipeline needs from a model runtime:
// a synchronous call returning the reply text or a transport error.
type VisionModel interface {
	Chat(ctx context.Context, req VisionRequest) (string, error)
}
