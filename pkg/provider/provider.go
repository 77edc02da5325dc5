// Package provider wraps the external text/vision generation backends
// behind a single call contract. Each adapter is responsible only for
// building the provider-specific request, mapping failures onto the
// shared taxonomy, and pulling the generated text out of a successful
// response.
package provider

import "context"

// ID identifies a configured backend. The zero value is Gemini; the
// declaration order is the canonical fallback order.
type ID int

const (
	Gemini ID = iota
	OpenAI
	Anthropic
	Ollama
)

// All lists every known provider in canonical order.
func All() []ID {
	return []ID{Gemini, OpenAI, Anthropic, Ollama}
}

func (id ID) String() string {
	switch id {
	case Gemini:
		return "gemini"
	case OpenAI:
		return "openai"
	case Anthropic:
		return "anthropic"
	case Ollama:
		return "ollama"
	default:
		return "unknown"
	}
}

// ParseID resolves a provider name from configuration. Unrecognized
// names are rejected so a typo cannot silently disable a provider.
func ParseID(name string) (ID, bool) {
	switch name {
	case "gemini":
		return Gemini, true
	case "openai":
		return OpenAI, true
	case "anthropic":
		return Anthropic, true
	case "ollama":
		return Ollama, true
	default:
		return 0, false
	}
}

// Request carries one generation call. Image is optional; adapters that
// cannot accept one must fail with KindBadResponse rather than drop it.
type Request struct {
	System string
	User   string
	Image  []byte
}

// Client is the uniform adapter contract.
type Client interface {
	// Name returns the adapter's identifier.
	Name() string

	// Generate sends the prompts to the model and returns the raw text.
	Generate(ctx context.Context, req Request) (string, error)

	// SupportsVision reports whether the adapter accepts an image.
	SupportsVision() bool
}
