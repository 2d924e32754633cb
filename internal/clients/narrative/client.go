// Package narrative defines the client boundary to the text-generation
// backend. The rest of the system only sees this interface; the concrete
// OpenAI implementation lives alongside it.
package narrative

//go:generate mockgen -destination=mock/mock_client.go -package=narrativemock github.com/dmforge/dm-api/internal/clients/narrative Client

import "context"

// GenerateInput carries the assembled context and the framed player
// utterance for one narration call.
type GenerateInput struct {
	// System is the assembled game context (facts plus recent history)
	System string
	// Utterance is the framed request: an action outcome, a
	// clarification question, or an opening-scene prompt
	Utterance string
}

// GenerateOutput is one narration result with its parsed state deltas
type GenerateOutput struct {
	// Narrative is the player-facing text with all markers stripped
	Narrative string
	// Deltas are the state changes the backend signaled in-band
	Deltas []Delta
	// Raw is the unstripped backend response, kept for logging
	Raw string
}

// Client generates narrative text from game context.
//
// Implementations map failures to coded errors: timeouts to
// DeadlineExceeded, backend failures to Unavailable, and empty or
// unusable responses to DataLoss. Callers rely on those codes to decide
// what to tell the player and whether state may change.
type Client interface {
	Generate(ctx context.Context, input *GenerateInput) (*GenerateOutput, error)
}
