package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/chains"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/vectorstores"

	"github.com/lowrk/distill/pkg/llm"
)

// SourceRef points back at one retrieved chunk.
type SourceRef struct {
	Source  string
	Title   string
	Snippet string
}

// Answer is the reply to one question together with the retrieved
// context that grounded it.
type Answer struct {
	Text    string
	Sources []SourceRef
	// NoContext marks answers produced without any retrieved chunks,
	// either because the collection is empty or retrieval found nothing.
	NoContext bool
}

// Ask answers a single question against the collection. Each call is
// independent; use ChatTurn for a conversation that remembers earlier
// turns.
func (p *Pipeline) Ask(ctx context.Context, question string) (*Answer, error) {
	return p.ask(ctx, question, nil)
}

// AskStream is Ask with the reply delivered incrementally through
// onChunk as the model produces it.
func (p *Pipeline) AskStream(ctx context.Context, question string, onChunk func(string)) (*Answer, error) {
	return p.ask(ctx, question, onChunk)
}

func (p *Pipeline) ask(ctx context.Context, question string, onChunk func(string)) (*Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, errors.New("rag: empty question")
	}

	if p.collectionEmpty(ctx) {
		p.log.Warn("collection is empty, answering without retrieved context")
		text, err := p.direct(ctx, question, onChunk)
		if err != nil {
			return nil, err
		}
		return &Answer{Text: text, NoContext: true}, nil
	}

	qa := chains.NewRetrievalQAFromLLM(p.model, vectorstores.ToRetriever(p.store, p.config.TopK))
	qa.ReturnSourceDocuments = true

	var opts []chains.ChainCallOption
	if onChunk != nil {
		opts = append(opts, chains.WithStreamingFunc(func(_ context.Context, chunk []byte) error {
			onChunk(string(chunk))
			return nil
		}))
	}

	out, err := chains.Call(ctx, qa, map[string]any{"query": question}, opts...)
	if err != nil {
		return nil, fmt.Errorf("rag: answering: %w", err)
	}

	text, _ := out["text"].(string)
	docs, _ := out["source_documents"].([]schema.Document)

	return &Answer{
		Text:      strings.TrimSpace(text),
		Sources:   sourceRefs(docs),
		NoContext: len(docs) == 0,
	}, nil
}

// ChatTurn answers one conversational turn. Context is retrieved fresh
// for the query while the chat engine carries the running history.
func (p *Pipeline) ChatTurn(ctx context.Context, query string, onChunk func(string)) (*Answer, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("rag: empty question")
	}

	var docs []schema.Document
	if p.collectionEmpty(ctx) {
		p.log.Warn("collection is empty, answering without retrieved context")
	} else {
		var err error
		docs, err = p.store.SimilaritySearch(ctx, query, p.config.TopK)
		if err != nil {
			return nil, fmt.Errorf("rag: retrieving context: %w", err)
		}
	}

	var (
		text string
		err  error
	)
	if onChunk != nil {
		text, err = p.chat.ChatStream(ctx, query, docs, onChunk)
	} else {
		text, err = p.chat.Chat(ctx, query, docs)
	}
	if err != nil {
		return nil, err
	}

	return &Answer{
		Text:      strings.TrimSpace(text),
		Sources:   sourceRefs(docs),
		NoContext: len(docs) == 0,
	}, nil
}

// ResetChat forgets the conversation history.
func (p *Pipeline) ResetChat(ctx context.Context) error {
	return p.chat.ResetHistory(ctx)
}

// direct asks the model without any retrieved context.
func (p *Pipeline) direct(ctx context.Context, question string, onChunk func(string)) (string, error) {
	content := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, question),
	}
	var opts []llms.CallOption
	if onChunk != nil {
		opts = append(opts, llms.WithStreamingFunc(func(_ context.Context, chunk []byte) error {
			onChunk(string(chunk))
			return nil
		}))
	}

	resp, err := p.model.GenerateContent(ctx, content, opts...)
	if err != nil {
		return "", fmt.Errorf("rag: answering: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", llm.ErrEmptyResponse
	}
	return strings.TrimSpace(resp.Choices[0].Content), nil
}

// sourceRefs collapses retrieved chunks into one reference per source.
func sourceRefs(docs []schema.Document) []SourceRef {
	var refs []SourceRef
	seen := make(map[string]bool, len(docs))
	for _, doc := range docs {
		source := metaString(doc.Metadata, "source")
		if source == "" {
			source = metaString(doc.Metadata, "origin")
		}
		key := source
		if key == "" {
			key = doc.PageContent
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		refs = append(refs, SourceRef{
			Source:  source,
			Title:   metaString(doc.Metadata, "title"),
			Snippet: snippet(doc.PageContent, 160),
		})
	}
	return refs
}

func metaString(metadata map[string]any, key string) string {
	if metadata == nil {
		return ""
	}
	s, _ := metadata[key].(string)
	return s
}

// snippet collapses whitespace and truncates to at most n runes.
func snippet(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return strings.TrimSpace(string(runes[:n])) + "..."
}
