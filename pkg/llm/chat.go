package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/memory"
	"github.com/tmc/langchaingo/prompts"
	"github.com/tmc/langchaingo/schema"

	"github.com/lowrk/distill/internal/types"
)

var ErrEmptyResponse = errors.New("llm: model returned no choices")

const (
	defaultSystemTemplate = "You are a careful assistant answering questions about a document " +
		"collection. Use only the provided context. When the context does not contain the " +
		"answer, say so instead of guessing."
	defaultContextTemplate = "Context:\n{{.context}}\n\nQuestion: {{.question}}"
)

// ChatEngine generates grounded chat responses. It keeps the running
// conversation so follow-up questions can refer back to earlier turns.
type ChatEngine struct {
	config  types.LLMConfig
	model   llms.Model
	prompt  prompts.PromptTemplate
	history schema.ChatMessageHistory
}

// NewChatEngine wraps an already constructed model. The model comes in
// as an interface so tests can substitute a fake.
func NewChatEngine(model llms.Model, config types.LLMConfig) (*ChatEngine, error) {
	if model == nil {
		return nil, errors.New("llm: chat engine needs a model")
	}
	if config.Temperature < 0 || config.Temperature > 2 {
		return nil, fmt.Errorf("llm: temperature %v out of range [0, 2]", config.Temperature)
	}
	if config.MaxTokens < 0 {
		return nil, errors.New("llm: max tokens cannot be negative")
	}
	if config.MaxTokens == 0 {
		config.MaxTokens = 2000
	}
	if config.SystemTemplate == "" {
		config.SystemTemplate = defaultSystemTemplate
	}
	if config.ContextTemplate == "" {
		config.ContextTemplate = defaultContextTemplate
	}

	return &ChatEngine{
		config:  config,
		model:   model,
		prompt:  prompts.NewPromptTemplate(config.ContextTemplate, []string{"context", "question"}),
		history: memory.NewChatMessageHistory(),
	}, nil
}

// Chat generates a response to the query grounded in the documents.
func (ce *ChatEngine) Chat(ctx context.Context, query string, docs []schema.Document) (string, error) {
	content, err := ce.buildMessages(ctx, query, docs)
	if err != nil {
		return "", err
	}

	resp, err := ce.model.GenerateContent(ctx, content,
		llms.WithMaxTokens(ce.config.MaxTokens),
		llms.WithTemperature(ce.config.Temperature),
	)
	if err != nil {
		return "", fmt.Errorf("llm: chat: %w", err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}

	answer := resp.Choices[0].Content
	ce.remember(ctx, query, answer)
	return answer, nil
}

// ChatStream generates a response while forwarding each piece to
// onChunk as it arrives. It returns the full response text.
func (ce *ChatEngine) ChatStream(ctx context.Context, query string, docs []schema.Document, onChunk func(chunk string)) (string, error) {
	content, err := ce.buildMessages(ctx, query, docs)
	if err != nil {
		return "", err
	}

	resp, err := ce.model.GenerateContent(ctx, content,
		llms.WithMaxTokens(ce.config.MaxTokens),
		llms.WithTemperature(ce.config.Temperature),
		llms.WithStreamingFunc(func(_ context.Context, chunk []byte) error {
			onChunk(string(chunk))
			return nil
		}),
	)
	if err != nil {
		return "", fmt.Errorf("llm: chat stream: %w", err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}

	answer := resp.Choices[0].Content
	ce.remember(ctx, query, answer)
	return answer, nil
}

// ResetHistory drops the conversation so far.
func (ce *ChatEngine) ResetHistory(ctx context.Context) error {
	return ce.history.Clear(ctx)
}

func (ce *ChatEngine) buildMessages(ctx context.Context, query string, docs []schema.Document) ([]llms.MessageContent, error) {
	human, err := ce.prompt.Format(map[string]any{
		"context":  FormatContext(docs),
		"question": query,
	})
	if err != nil {
		return nil, fmt.Errorf("llm: formatting prompt: %w", err)
	}

	content := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, ce.config.SystemTemplate),
	}

	past, err := ce.history.Messages(ctx)
	if err != nil {
		return nil, fmt.Errorf("llm: reading chat history: %w", err)
	}
	for _, msg := range past {
		content = append(content, llms.TextParts(msg.GetType(), msg.GetContent()))
	}

	return append(content, llms.TextParts(llms.ChatMessageTypeHuman, human)), nil
}

func (ce *ChatEngine) remember(ctx context.Context, query, answer string) {
	// A history failure must not lose an already generated answer.
	if err := ce.history.AddUserMessage(ctx, query); err != nil {
		return
	}
	_ = ce.history.AddAIMessage(ctx, answer)
}

// FormatContext renders retrieved documents into the block the context
// template splices into the prompt.
func FormatContext(docs []schema.Document) string {
	if len(docs) == 0 {
		return "(no matching documents)"
	}

	var b strings.Builder
	for _, doc := range docs {
		source, _ := doc.Metadata["source"].(string)
		if source == "" {
			source = "unknown"
		}
		fmt.Fprintf(&b, "Source: %s\n%s\n\n", source, doc.PageContent)
	}
	return strings.TrimSpace(b.String())
}
