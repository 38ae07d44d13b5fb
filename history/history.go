// Package history keeps per-conversation context bounded over long sessions.
// A Store holds one Conversation per conversation id and folds completed turns
// into a running summary once enough of them accumulate. Each compaction sees
// only the prior summary and the turns past the watermark, never the full
// transcript, so its cost stays proportional to the window size regardless of
// conversation length.
package history

import (
	"context"
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"github.com/hupe1980/agentroute/core"
	"github.com/hupe1980/agentroute/llm"
	"github.com/hupe1980/agentroute/logging"
)

const (
	// DefaultWindow is the number of uncompacted turns that triggers a
	// compaction pass.
	DefaultWindow = 5
	// DefaultMaxSummaryTokens bounds the stored summary. Summaries past the
	// limit are truncated on the token boundary before being installed.
	DefaultMaxSummaryTokens = 512

	summaryEncoding = "cl100k_base"
)

// Options configure the history store.
type Options struct {
	// Window is the uncompacted-turn threshold for MaybeCompact.
	Window int
	// MaxSummaryTokens caps the stored summary length in tokens.
	MaxSummaryTokens int

	Logger logging.Logger
}

// Store is the process-wide conversation state, keyed by conversation id.
// Entries are created on first use and live for the process lifetime; there is
// no persistence. Mutations on one conversation serialize on that
// conversation's own lock, so requests for different conversations never
// contend.
type Store struct {
	client           llm.Client
	window           int
	maxSummaryTokens int
	logger           logging.Logger

	mu            sync.RWMutex
	conversations map[string]*core.Conversation

	encodingOnce sync.Once
	encoding     *tiktoken.Tiktoken
}

// NewStore creates a history store backed by the given LLM client for
// summarization. Pass llm.Unavailable{} to disable compaction; context then
// stays empty and turns simply accumulate.
func NewStore(client llm.Client, optFns ...func(o *Options)) *Store {
	opts := Options{
		Window:           DefaultWindow,
		MaxSummaryTokens: DefaultMaxSummaryTokens,
		Logger:           logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Window <= 0 {
		opts.Window = DefaultWindow
	}
	return &Store{
		client:           client,
		window:           opts.Window,
		maxSummaryTokens: opts.MaxSummaryTokens,
		logger:           opts.Logger,
		conversations:    make(map[string]*core.Conversation),
	}
}

// GetContext returns the running summary for the conversation, empty if the
// conversation is unknown or nothing has been compacted yet.
func (s *Store) GetContext(conversationID string) string {
	s.mu.RLock()
	conv, ok := s.conversations[conversationID]
	s.mu.RUnlock()
	if !ok {
		return ""
	}
	return conv.Summary()
}

// RecordTurn appends one completed exchange, creating the conversation on
// first use.
func (s *Store) RecordTurn(conversationID, query, answer string) {
	s.conversation(conversationID).AppendTurn(query, answer)
}

// MaybeCompact folds pending turns into the summary when at least Window of
// them have accumulated. On summarizer failure the previous summary and
// watermark stay untouched; the context just grows one window older until the
// next attempt. Calling twice without an intervening RecordTurn is a no-op the
// second time.
func (s *Store) MaybeCompact(ctx context.Context, conversationID string) {
	s.mu.RLock()
	conv, ok := s.conversations[conversationID]
	s.mu.RUnlock()
	if !ok {
		return
	}

	pending, upto := conv.Pending()
	if len(pending) < s.window {
		return
	}

	prior := conv.Summary()
	summary, err := s.client.Summarize(ctx, prior, pending)
	if err != nil {
		s.logger.Warn("history compaction degraded, keeping previous summary",
			"conversation_id", conversationID, "pending_turns", len(pending), "error", err)
		return
	}

	summary = s.truncate(summary)
	conv.SetSummary(summary, upto)
	s.logger.Debug("history compacted",
		"conversation_id", conversationID, "folded_turns", len(pending), "watermark", upto)
}

// Len returns the number of turns recorded for the conversation.
func (s *Store) Len(conversationID string) int {
	s.mu.RLock()
	conv, ok := s.conversations[conversationID]
	s.mu.RUnlock()
	if !ok {
		return 0
	}
	return conv.Len()
}

func (s *Store) conversation(conversationID string) *core.Conversation {
	s.mu.RLock()
	conv, ok := s.conversations[conversationID]
	s.mu.RUnlock()
	if ok {
		return conv
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if conv, ok := s.conversations[conversationID]; ok {
		return conv
	}
	conv = core.NewConversation(conversationID)
	s.conversations[conversationID] = conv
	return conv
}

// truncate cuts the summary on a token boundary when it exceeds the budget.
// If the tokenizer cannot be loaded the summary is kept as is; an occasional
// oversized summary beats corrupting it with a byte-level cut.
func (s *Store) truncate(summary string) string {
	if s.maxSummaryTokens <= 0 {
		return summary
	}

	s.encodingOnce.Do(func() {
		enc, err := tiktoken.GetEncoding(summaryEncoding)
		if err != nil {
			s.logger.Warn("summary tokenizer unavailable", "encoding", summaryEncoding, "error", err)
			return
		}
		s.encoding = enc
	})
	if s.encoding == nil {
		return summary
	}

	tokens := s.encoding.Encode(summary, nil, nil)
	if len(tokens) <= s.maxSummaryTokens {
		return summary
	}
	return s.encoding.Decode(tokens[:s.maxSummaryTokens])
}
