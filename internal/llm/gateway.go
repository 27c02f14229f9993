// Package llm invokes the language model for synthesis, grounded chat and
// sentiment classification. Every operation degrades to a same-shaped
// fallback value instead of failing.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"

	"marketcompanion/internal/conversation"
	"marketcompanion/internal/evidence"
	"marketcompanion/internal/prompt"
)

// Completer is the chat-completions call the gateway depends on.
// *openai.Client satisfies it.
//
//go:generate mockgen -package=llm_test -destination=mock_completer_test.go -source=gateway.go Completer
type Completer interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Config holds the model identifier and the per-call ceilings.
type Config struct {
	Model              string
	SynthesisMaxTokens int
	ChatMaxTokens      int
	ClassifyMaxTokens  int
	Timeout            time.Duration
}

func DefaultConfig() Config {
	return Config{
		Model:              "o3",
		SynthesisMaxTokens: 1024,
		ChatMaxTokens:      1024,
		ClassifyMaxTokens:  256,
		Timeout:            60 * time.Second,
	}
}

// NewOpenAIClient builds a chat-completions client for an OpenAI-compatible
// endpoint. An empty baseURL keeps the library default.
func NewOpenAIClient(apiKey, baseURL string, timeout time.Duration) *openai.Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	cfg.HTTPClient = &http.Client{Timeout: timeout}
	return openai.NewClientWithConfig(cfg)
}

// Gateway wraps a Completer with prompt construction and strict output
// parsing.
type Gateway struct {
	client   Completer
	prompts  *prompt.Builder
	cfg      Config
	validate *validator.Validate
	log      zerolog.Logger
}

func New(client Completer, prompts *prompt.Builder, cfg Config, log zerolog.Logger) *Gateway {
	def := DefaultConfig()
	if cfg.Model == "" {
		cfg.Model = def.Model
	}
	if cfg.SynthesisMaxTokens <= 0 {
		cfg.SynthesisMaxTokens = def.SynthesisMaxTokens
	}
	if cfg.ChatMaxTokens <= 0 {
		cfg.ChatMaxTokens = def.ChatMaxTokens
	}
	if cfg.ClassifyMaxTokens <= 0 {
		cfg.ClassifyMaxTokens = def.ClassifyMaxTokens
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if prompts == nil {
		prompts = prompt.Default()
	}
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &Gateway{
		client:   client,
		prompts:  prompts,
		cfg:      cfg,
		validate: v,
		log:      log.With().Str("component", "llm").Logger(),
	}
}

// Config returns the effective configuration.
func (g *Gateway) Config() Config { return g.cfg }

// Synthesize asks the model for the four-field summary. The returned result
// is always complete; a non-nil error means it is the fallback.
func (g *Gateway) Synthesize(ctx context.Context, instruments []evidence.Instrument, bundles map[evidence.Instrument]*evidence.Bundle) (SummaryResult, error) {
	content, err := g.complete(ctx, g.cfg.SynthesisMaxTokens, true, []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleUser, Content: g.prompts.SynthesisPrompt(instruments, bundles)},
	})
	if err == nil {
		var res SummaryResult
		res, err = decodeStrict[SummaryResult](g.validate, content)
		if err == nil {
			return res, nil
		}
		err = invocationError(err)
	}
	g.log.Error().Err(err).Strs("instruments", evidence.Strings(instruments)).Msg("synthesis fell back")
	return FallbackSummary(err), err
}

// Respond answers question grounded in the rendered evidence, replaying
// history in order. The answer is trimmed; on failure the fallback answer is
// returned along with the error.
func (g *Gateway) Respond(ctx context.Context, question string, instruments []evidence.Instrument, bundles map[evidence.Instrument]*evidence.Bundle, history []conversation.Turn) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: g.prompts.RenderConversationPreamble(instruments, bundles),
	})
	for _, turn := range history {
		switch turn.Role {
		case conversation.RoleUser:
			messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: turn.Content})
		case conversation.RoleAssistant:
			messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: turn.Content})
		}
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt.UserTurn(question, instruments),
	})

	content, err := g.complete(ctx, g.cfg.ChatMaxTokens, false, messages)
	if err == nil {
		answer := strings.TrimSpace(content)
		if answer != "" {
			return answer, nil
		}
		err = invocationError(fmt.Errorf("%w: empty answer", evidence.ErrMalformedResponse))
	}
	g.log.Error().Err(err).Int("history", len(history)).Msg("chat fell back")
	return FallbackAnswer(err), err
}

// Classify labels the sentiment and volume of talk of text. A non-nil error
// means the result is the fallback.
func (g *Gateway) Classify(ctx context.Context, text string) (SentimentClassification, error) {
	content, err := g.complete(ctx, g.cfg.ClassifyMaxTokens, true, []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleUser, Content: prompt.ClassifyPrompt(text)},
	})
	if err == nil {
		var wire classificationWire
		wire, err = decodeStrict[classificationWire](g.validate, content)
		if err == nil {
			return wire.result(), nil
		}
		err = invocationError(err)
	}
	g.log.Error().Err(err).Msg("classification fell back")
	return FallbackClassification(err), err
}

// Name identifies the model endpoint in probe results.
func (g *Gateway) Name() string { return "llm" }

// Probe sends a minimal completion to check the endpoint and credential.
func (g *Gateway) Probe(ctx context.Context) error {
	_, err := g.complete(ctx, 16, false, []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleUser, Content: "ping"},
	})
	return err
}

func (g *Gateway) complete(ctx context.Context, maxTokens int, jsonMode bool, messages []openai.ChatCompletionMessage) (string, error) {
	if g.client == nil {
		return "", invocationError(errors.New("no model client configured"))
	}
	ctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model:               g.cfg.Model,
		Messages:            messages,
		MaxCompletionTokens: maxTokens,
	}
	if jsonMode {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject}
	}

	start := time.Now()
	resp, err := g.client.CreateChatCompletion(ctx, req)
	if err != nil {
		ev := g.log.Warn().Err(err).Dur("elapsed", time.Since(start))
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			ev = ev.Int("status", apiErr.HTTPStatusCode)
		}
		ev.Msg("chat completion failed")
		return "", invocationError(err)
	}
	if len(resp.Choices) == 0 {
		return "", invocationError(fmt.Errorf("%w: no choices", evidence.ErrMalformedResponse))
	}
	g.log.Debug().
		Str("model", req.Model).
		Int("max_tokens", maxTokens).
		Int("completion_tokens", resp.Usage.CompletionTokens).
		Dur("elapsed", time.Since(start)).
		Msg("chat completion")
	return resp.Choices[0].Message.Content, nil
}

// InvocationError tags a failed model call. It unwraps to both
// evidence.ErrLLMInvocation and the underlying cause.
type InvocationError struct {
	Err error
}

func (e *InvocationError) Error() string { return e.Err.Error() }

func (e *InvocationError) Unwrap() []error { return []error{evidence.ErrLLMInvocation, e.Err} }

func invocationError(err error) error {
	var ie *InvocationError
	if errors.As(err, &ie) {
		return err
	}
	return &InvocationError{Err: err}
}
