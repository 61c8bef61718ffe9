// Package tokens estimates token counts locally for providers that omit usage.
package tokens

import (
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/tiktoken-go/tokenizer"

	"github.com/agutierrezreginodev/potencia-agenda/internal/domain"
)

// charsPerToken is the fallback ratio when no codec can be loaded.
const charsPerToken = 4

// Estimator counts tokens with tiktoken. Gemini and Claude tokenizers are not
// public, so their counts are approximated with o200k_base.
type Estimator struct {
	// codecCache caches tokenizer codecs by encoding name
	codecCache map[tokenizer.Encoding]tokenizer.Codec
	cacheMu    sync.RWMutex
}

// NewEstimator creates a token estimator.
func NewEstimator() *Estimator {
	return &Estimator{
		codecCache: make(map[tokenizer.Encoding]tokenizer.Codec),
	}
}

var defaultEstimator = NewEstimator()

// Default returns the process-wide estimator.
func Default() *Estimator {
	return defaultEstimator
}

// getCodec returns the cached codec for a model's encoding.
func (e *Estimator) getCodec(model string) (tokenizer.Codec, error) {
	encoding := modelToEncoding(model)

	e.cacheMu.RLock()
	if cached, ok := e.codecCache[encoding]; ok {
		e.cacheMu.RUnlock()
		return cached, nil
	}
	e.cacheMu.RUnlock()

	codec, err := tokenizer.Get(encoding)
	if err != nil {
		return nil, err
	}

	e.cacheMu.Lock()
	e.codecCache[encoding] = codec
	e.cacheMu.Unlock()

	return codec, nil
}

// modelToEncoding maps model names to tiktoken encodings.
//
// Encoding reference:
// - Cl100kBase: GPT-4, GPT-3.5-turbo
// - O200kBase: GPT-4o, GPT-4.1, GPT-5, o-series and every non-OpenAI model
func modelToEncoding(model string) tokenizer.Encoding {
	model = strings.ToLower(model)

	switch {
	case strings.HasPrefix(model, "gpt-4o"), strings.HasPrefix(model, "gpt-4.1"):
		return tokenizer.O200kBase
	case strings.HasPrefix(model, "gpt-4"), strings.HasPrefix(model, "gpt-3.5"):
		return tokenizer.Cl100kBase
	default:
		return tokenizer.O200kBase
	}
}

// Count returns the token count of text for model. It never fails: when the
// codec is unavailable it falls back to one token per four characters.
func (e *Estimator) Count(model, text string) int {
	if text == "" {
		return 0
	}
	codec, err := e.getCodec(model)
	if err == nil {
		if ids, _, err := codec.Encode(text); err == nil {
			return len(ids)
		}
	}
	return (utf8.RuneCountInString(text) + charsPerToken - 1) / charsPerToken
}

// Fill sets prompt and completion counts on raw when the provider reported
// none, and marks the completion as estimated.
func (e *Estimator) Fill(raw *domain.RawCompletion, prompt domain.PromptPair) {
	if raw == nil || raw.PromptTokens > 0 || raw.CompletionTokens > 0 {
		return
	}
	raw.PromptTokens = e.Count(raw.ModelUsed, prompt.SystemInstructions) + e.Count(raw.ModelUsed, prompt.UserContent)
	raw.CompletionTokens = e.Count(raw.ModelUsed, raw.Text)
	raw.Estimated = true
}
