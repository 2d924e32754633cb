package narrative

import (
	"context"
	stderrors "errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	openai "github.com/sashabaranov/go-openai"

	"github.com/dmforge/dm-api/internal/errors"
)

const defaultTimeout = 30 * time.Second

// Config holds the dependencies and settings for the OpenAI-backed client
type Config struct {
	APIKey string
	Model  string

	// BaseURL overrides the API endpoint, mainly for tests
	BaseURL string
	// Timeout bounds each attempt, not the whole retry loop
	Timeout time.Duration
	// MaxRetries is the number of retries after the first attempt;
	// zero means a single attempt. Only transient failures are retried.
	MaxRetries uint64
	// HTTPClient overrides the transport when set
	HTTPClient *http.Client
}

// Validate ensures all required fields are set
func (c *Config) Validate() error {
	vb := errors.NewValidationBuilder()
	if c.APIKey == "" {
		vb.RequiredField("APIKey")
	}
	if c.Model == "" {
		vb.RequiredField("Model")
	}
	return vb.Build()
}

// OpenAIClient implements Client against the OpenAI chat-completion API
type OpenAIClient struct {
	api        *openai.Client
	model      string
	timeout    time.Duration
	maxRetries uint64
}

// NewOpenAI creates a narrative client backed by OpenAI
func NewOpenAI(cfg *Config) (*OpenAIClient, error) {
	if cfg == nil {
		return nil, errors.InvalidArgument("config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	apiConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiConfig.BaseURL = cfg.BaseURL
	}
	if cfg.HTTPClient != nil {
		apiConfig.HTTPClient = cfg.HTTPClient
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &OpenAIClient{
		api:        openai.NewClientWithConfig(apiConfig),
		model:      cfg.Model,
		timeout:    timeout,
		maxRetries: cfg.MaxRetries,
	}, nil
}

// Generate calls the chat-completion API and parses the response markers.
// Transient failures (timeouts, backend errors) are retried with
// exponential backoff up to MaxRetries; everything else fails immediately.
func (c *OpenAIClient) Generate(ctx context.Context, input *GenerateInput) (*GenerateOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	if input.Utterance == "" {
		return nil, errors.InvalidArgument("utterance is required")
	}

	request := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: input.System},
			{Role: openai.ChatMessageRoleUser, Content: input.Utterance},
		},
	}

	var response openai.ChatCompletionResponse
	attempt := 0
	operation := func() error {
		attempt++
		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		resp, err := c.api.CreateChatCompletion(callCtx, request)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(errors.WrapWithCode(ctx.Err(), errors.CodeCanceled, "narrative call canceled"))
			}
			if stderrors.Is(err, context.DeadlineExceeded) {
				slog.Warn("narrative backend timed out", "attempt", attempt, "timeout", c.timeout)
				return errors.DeadlineExceededf("narrative backend timed out after %s", c.timeout)
			}
			slog.Warn("narrative backend call failed", "attempt", attempt, "error", err)
			return errors.WrapWithCode(err, errors.CodeUnavailable, "narrative backend call failed")
		}
		response = resp
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), c.maxRetries), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, err
	}

	if len(response.Choices) == 0 {
		return nil, errors.DataLoss("narrative backend returned no choices")
	}
	raw := response.Choices[0].Message.Content
	narrative, deltas := ParseMarkers(raw)
	if narrative == "" {
		return nil, errors.DataLoss("narrative backend returned an empty narration")
	}

	return &GenerateOutput{
		Narrative: narrative,
		Deltas:    deltas,
		Raw:       raw,
	}, nil
}
