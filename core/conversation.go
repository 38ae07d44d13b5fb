package core

import (
	"sync"
	"time"
)

// Turn is one completed exchange: the user query and the final answer text.
type Turn struct {
	Query  string `json:"query"`
	Answer string `json:"answer"`
}

// Conversation tracks the ordered turn history of one conversation together
// with a running summary of everything before the compaction watermark. It is
// safe for concurrent access; all mutations on one conversation serialize on
// its mutex so racing requests cannot corrupt summary ordering.
//
// Contract:
//   - lastSummarized <= len(turns) at all times
//   - Pending returns a copy of the turns past the watermark
//   - SetSummary replaces the summary and advances the watermark atomically
type Conversation struct {
	ID      string
	Created time.Time

	mu             sync.Mutex
	turns          []Turn
	summary        string
	lastSummarized int
}

// NewConversation creates an empty conversation with the given ID.
func NewConversation(id string) *Conversation {
	return &Conversation{ID: id, Created: time.Now()}
}

// AppendTurn records a completed exchange.
func (c *Conversation) AppendTurn(query, answer string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.turns = append(c.turns, Turn{Query: query, Answer: answer})
}

// Summary returns the current running summary (empty until first compaction).
func (c *Conversation) Summary() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.summary
}

// Len returns the number of recorded turns.
func (c *Conversation) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.turns)
}

// Pending returns a copy of the turns not yet folded into the summary, plus
// the index the watermark would advance to if they were summarized now.
func (c *Conversation) Pending() ([]Turn, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	pending := make([]Turn, len(c.turns)-c.lastSummarized)
	copy(pending, c.turns[c.lastSummarized:])
	return pending, len(c.turns)
}

// SetSummary installs a new summary and advances the watermark to upto. The
// call is ignored if upto would violate the watermark invariant (regress, or
// point past the recorded turns) so a stale compaction can never corrupt
// newer state.
func (c *Conversation) SetSummary(summary string, upto int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if upto < c.lastSummarized || upto > len(c.turns) {
		return
	}
	c.summary = summary
	c.lastSummarized = upto
}

// LastSummarized returns the current compaction watermark.
func (c *Conversation) LastSummarized() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastSummarized
}
