package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"BlenderChat/pkg/config"
	utils "BlenderChat/pkg/utills"
)

// Generator is the one inference operation every surface depends on.
type Generator interface {
	Generate(ctx context.Context, text string) (string, error)
}

// Backend is an externally supplied text-to-text model.
type Backend interface {
	// Name identifies the backend and model for logs and health output.
	Name() string
	// Load prepares the backend. It is called once before serving.
	Load(ctx context.Context) error
	// Complete runs one deterministic generation bounded by maxLength tokens
	// and returns the raw decoded text.
	Complete(ctx context.Context, text string, maxLength int) (string, error)
}

// specialTokens are control tokens the blenderbot tokenizers may leave in decoded text.
var specialTokens = []string{"__start__", "__end__", "__null__", "__unk__", "<s>", "</s>", "<pad>", "<unk>"}

// ChatModel wraps a Backend behind Generate. Calls are admitted through a
// fixed number of slots; with one slot generation is mutually exclusive.
type ChatModel struct {
	backend   Backend
	maxLength int
	slots     chan struct{}
}

// NewChatModel builds a ChatModel. concurrency <= 0 is treated as 1.
func NewChatModel(backend Backend, maxLength, concurrency int) *ChatModel {
	if concurrency <= 0 {
		concurrency = 1
	}
	if maxLength <= 0 {
		maxLength = config.DefaultModelMaxLength
	}
	return &ChatModel{
		backend:   backend,
		maxLength: maxLength,
		slots:     make(chan struct{}, concurrency),
	}
}

// LoadChatModel selects the configured backend, loads it and returns the
// shared model. Any failure is wrapped in ErrModelUnavailable.
func LoadChatModel(ctx context.Context, cfg *config.Config) (*ChatModel, error) {
	var backend Backend
	switch cfg.ModelBackend {
	case config.BackendLocal:
		backend = NewLocalBackend()
	case config.BackendHF:
		backend = NewHFInferenceBackend(cfg.ModelEndpoint, cfg.ModelToken,
			time.Duration(cfg.ModelRequestTimeoutSeconds)*time.Second)
	default:
		return nil, fmt.Errorf("%w: unknown backend %q", ErrModelUnavailable, cfg.ModelBackend)
	}

	loadCtx := ctx
	if cfg.ModelLoadTimeoutSeconds > 0 {
		var cancel context.CancelFunc
		loadCtx, cancel = context.WithTimeout(ctx, time.Duration(cfg.ModelLoadTimeoutSeconds)*time.Second)
		defer cancel()
	}

	start := time.Now()
	if err := backend.Load(loadCtx); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrModelUnavailable, backend.Name(), err)
	}
	log.Printf("[model] %s loaded in %s (max_length=%d concurrency=%d)",
		backend.Name(), time.Since(start).Round(time.Millisecond), cfg.ModelMaxLength, cfg.ModelConcurrency)

	return NewChatModel(backend, cfg.ModelMaxLength, cfg.ModelConcurrency), nil
}

// Name returns the backend name.
func (m *ChatModel) Name() string {
	return m.backend.Name()
}

// MaxLength returns the generation cap.
func (m *ChatModel) MaxLength() int {
	return m.maxLength
}

// Generate runs one generation for text. Waiting for a slot honours ctx;
// once the backend call starts it runs to completion.
func (m *ChatModel) Generate(ctx context.Context, text string) (string, error) {
	select {
	case m.slots <- struct{}{}:
	case <-ctx.Done():
		return "", fmt.Errorf("%w: %w", ErrGeneration, ctx.Err())
	}
	defer func() { <-m.slots }()

	raw, err := m.backend.Complete(context.WithoutCancel(ctx), text, m.maxLength)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGeneration, err)
	}
	return decodeReply(raw, m.maxLength), nil
}

// decodeReply strips control tokens, normalises whitespace and enforces the cap.
func decodeReply(raw string, maxLength int) string {
	out := raw
	for _, tok := range specialTokens {
		out = strings.ReplaceAll(out, tok, " ")
	}
	return utils.TruncateWords(out, maxLength)
}
