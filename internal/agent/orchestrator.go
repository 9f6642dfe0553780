package agent

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"lush-moments/backend/internal/models"
	"lush-moments/backend/internal/security"
	"lush-moments/backend/pkg/logger"
	"lush-moments/backend/pkg/resilience"

	"github.com/sashabaranov/go-openai"
)

// ErrNoCredentials indicates the model API key could not be resolved.
var ErrNoCredentials = errors.New("model API key is not configured")

// HistoryEntry is one prior utterance handed to the orchestrator.
// Role uses the persisted sender values (user, bot, admin).
type HistoryEntry struct {
	Role    string
	Content string
}

// Config controls a single orchestrator instance.
type Config struct {
	APIKey       string
	BaseURL      string
	Model        string
	Temperature  float32
	MaxTokens    int
	Timeout      time.Duration
	MaxToolSteps int
}

// Orchestrator wraps one tool-calling model invocation per user
// message. It screens input before the call and output after it, and
// converts every failure into one of the fixed fallback sentences.
type Orchestrator struct {
	cfg     Config
	catalog Catalog
	log     *logger.Logger
	tools   []openai.Tool
	breaker *resilience.CircuitBreaker

	mu     sync.Mutex
	client *openai.Client
}

// New builds an orchestrator. A missing API key is not fatal here:
// the client stays nil and each Reply call retries initialization
// once, so a late-provisioned key starts working without a restart.
func New(cfg Config, catalog Catalog, log *logger.Logger) *Orchestrator {
	if cfg.Model == "" {
		cfg.Model = openai.GPT4oMini
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.MaxToolSteps <= 0 {
		cfg.MaxToolSteps = 50
	}

	o := &Orchestrator{
		cfg:     cfg,
		catalog: catalog,
		log:     log,
		tools:   toolDefinitions(),
		breaker: resilience.NewCircuitBreaker(resilience.DefaultCircuitBreakerConfig("agent-model"), log),
	}
	if _, err := o.initClient(); err != nil {
		log.Warn("Agent client not initialized, will retry lazily", "error", err.Error())
	}
	return o
}

// initClient returns the cached client, building it on first use. The
// returned value is the caller's snapshot for the whole generation; a
// concurrent SetAPIKey must not be able to nil it out from under an
// in-flight call.
func (o *Orchestrator) initClient() (*openai.Client, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.client != nil {
		return o.client, nil
	}
	if o.cfg.APIKey == "" {
		return nil, ErrNoCredentials
	}

	clientCfg := openai.DefaultConfig(o.cfg.APIKey)
	if o.cfg.BaseURL != "" {
		clientCfg.BaseURL = o.cfg.BaseURL
	}
	o.client = openai.NewClientWithConfig(clientCfg)
	o.log.Info("Agent client initialized", "model", o.cfg.Model)
	return o.client, nil
}

// SetAPIKey replaces the credential and drops the cached client so the
// next call re-initializes with the new key.
func (o *Orchestrator) SetAPIKey(key string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.cfg.APIKey = key
	o.client = nil
}

// Reply produces the bot's answer to a user message. The caller bounds
// history to the most recent entries; ordering is oldest first. Reply
// never returns an error: every failure path collapses into a fixed,
// user-safe sentence.
func (o *Orchestrator) Reply(ctx context.Context, userText string, history []HistoryEntry) string {
	sanitized, blocked := security.ScreenInput(userText)
	if blocked {
		o.log.Info("Input blocked by security screen")
		return InputRefusal
	}

	client, err := o.initClient()
	if err != nil {
		o.log.LogError(err, "Agent configuration error")
		return ConfigFallback
	}

	ctx, cancel := context.WithTimeout(ctx, o.cfg.Timeout)
	defer cancel()

	// The breaker stops hammering the model API when it is down;
	// short-circuited calls fall through to the generic fallback.
	var raw string
	err = o.breaker.Execute(func() error {
		var genErr error
		raw, genErr = o.generate(ctx, client, sanitized, history)
		return genErr
	})
	if err != nil {
		switch {
		case isCredentialError(err):
			o.log.LogError(err, "Agent credential rejected")
			o.invalidateClient()
			return ConfigFallback
		case errors.Is(err, context.DeadlineExceeded):
			o.log.LogError(err, "Agent generation timed out", "timeout", o.cfg.Timeout.String())
			return GenericFallback
		default:
			o.log.LogError(err, "Agent generation failed")
			return GenericFallback
		}
	}

	return security.ScreenOutput(raw)
}

// generate runs the tool-calling loop: ask the model, execute any tool
// calls it requests, feed the results back, and repeat until it
// produces a plain message or the step budget runs out.
func (o *Orchestrator) generate(ctx context.Context, client *openai.Client, userText string, history []HistoryEntry) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: systemPrompt,
	})
	for _, entry := range history {
		role := openai.ChatMessageRoleAssistant
		if entry.Role == models.SenderUser {
			role = openai.ChatMessageRoleUser
		}
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    role,
			Content: entry.Content,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: userText,
	})

	for step := 0; step < o.cfg.MaxToolSteps; step++ {
		resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       o.cfg.Model,
			Messages:    messages,
			Tools:       o.tools,
			Temperature: o.cfg.Temperature,
			MaxTokens:   o.cfg.MaxTokens,
		})
		if err != nil {
			return "", err
		}
		if len(resp.Choices) == 0 {
			return "", errors.New("model returned no choices")
		}

		msg := resp.Choices[0].Message
		if len(msg.ToolCalls) == 0 {
			return msg.Content, nil
		}

		messages = append(messages, msg)
		for _, tc := range msg.ToolCalls {
			result := callTool(ctx, o.catalog, tc.Function.Name, tc.Function.Arguments)
			o.log.Debug("Agent tool call", "tool", tc.Function.Name)
			messages = append(messages, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    result,
				ToolCallID: tc.ID,
			})
		}
	}

	return "", errors.New("tool call limit exceeded")
}

func (o *Orchestrator) invalidateClient() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.client = nil
}

// isCredentialError reports whether a generation failure was caused by
// a missing or rejected API key rather than a transient fault.
func isCredentialError(err error) bool {
	if errors.Is(err, ErrNoCredentials) {
		return true
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusUnauthorized ||
			apiErr.HTTPStatusCode == http.StatusForbidden
	}
	return false
}
