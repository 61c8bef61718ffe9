package openai

import (
	"context"
	"net/http"
	"time"

	openaiapi "github.com/agutierrezreginodev/potencia-agenda/internal/api/openai"
	"github.com/agutierrezreginodev/potencia-agenda/internal/domain"
)

// ProviderOption configures the provider.
type ProviderOption func(*Provider)

// WithBaseURL sets a custom base URL for the API.
func WithBaseURL(baseURL string) ProviderOption {
	return func(p *Provider) {
		p.baseURL = baseURL
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ProviderOption {
	return func(p *Provider) {
		p.httpClient = httpClient
	}
}

// WithJSONResponse asks the API for a single JSON object answer.
func WithJSONResponse(enabled bool) ProviderOption {
	return func(p *Provider) {
		p.jsonResponse = enabled
	}
}

// WithGeneration sets the sampling parameters sent on every call. A nil
// temperature keeps the backend default.
func WithGeneration(maxTokens int, temperature *float64) ProviderOption {
	return func(p *Provider) {
		p.maxTokens = maxTokens
		p.temperature = temperature
	}
}

// WithName overrides the variant name reported by Name. Empty keeps the type name.
func WithName(name string) ProviderOption {
	return func(p *Provider) {
		if name != "" {
			p.name = name
		}
	}
}

// Provider implements domain.Provider on the Chat Completions API.
type Provider struct {
	client       *openaiapi.Client
	name         string
	model        string
	timeout      time.Duration
	baseURL      string
	httpClient   *http.Client
	maxTokens    int
	temperature  *float64
	jsonResponse bool
}

// New creates a new OpenAI provider.
func New(apiKey, model string, timeout time.Duration, opts ...ProviderOption) *Provider {
	p := &Provider{
		name:    ProviderType,
		model:   model,
		timeout: timeout,
	}

	for _, opt := range opts {
		opt(p)
	}

	var clientOpts []openaiapi.ClientOption
	if p.baseURL != "" {
		clientOpts = append(clientOpts, openaiapi.WithBaseURL(p.baseURL))
	}
	if p.httpClient != nil {
		clientOpts = append(clientOpts, openaiapi.WithHTTPClient(p.httpClient))
	}

	p.client = openaiapi.NewClient(apiKey, clientOpts...)
	return p
}

func (p *Provider) Name() string {
	return p.name
}

func (p *Provider) Model() string {
	return p.model
}

func (p *Provider) Timeout() time.Duration {
	return p.timeout
}

func (p *Provider) Complete(ctx context.Context, prompt domain.PromptPair) (*domain.RawCompletion, error) {
	resp, err := p.client.CreateChatCompletion(ctx, p.toAPIRequest(prompt))
	if err != nil {
		if genErr, ok := domain.AsGenerationError(err); ok {
			return nil, genErr.WithProvider(p.name)
		}
		return nil, err
	}

	text := resp.Text()
	if text == "" {
		return nil, domain.ErrInvalidModelOutput("empty completion").WithProvider(p.name)
	}

	raw := &domain.RawCompletion{
		Text:      text,
		ModelUsed: resp.Model,
	}
	if raw.ModelUsed == "" {
		raw.ModelUsed = p.model
	}
	if len(resp.Choices) > 0 {
		raw.FinishReason = resp.Choices[0].FinishReason
	}
	if resp.Usage != nil {
		raw.PromptTokens = resp.Usage.PromptTokens
		raw.CompletionTokens = resp.Usage.CompletionTokens
	}
	return raw, nil
}

func (p *Provider) toAPIRequest(prompt domain.PromptPair) *openaiapi.ChatCompletionRequest {
	req := &openaiapi.ChatCompletionRequest{
		Model: p.model,
		Messages: []openaiapi.ChatCompletionMessage{
			{Role: "system", Content: prompt.SystemInstructions},
			{Role: "user", Content: prompt.UserContent},
		},
		MaxTokens: p.maxTokens,
	}
	if p.temperature != nil {
		t := float32(*p.temperature)
		req.Temperature = &t
	}
	if p.jsonResponse {
		req.ResponseFormat = &openaiapi.ResponseFormat{Type: openaiapi.ResponseFormatJSONObject}
	}
	return req
}
