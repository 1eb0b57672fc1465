package recommend

import "context"

// Provider is the interface for generative model backends.
type Provider interface {
	// GenerateText generates text from a prompt.
	GenerateText(ctx context.Context, prompt string) (string, error)

	// Name returns the provider name (e.g. "openai").
	Name() string
}
