package history

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentroute/llm"
)

func TestGetContextUnknownConversation(t *testing.T) {
	s := NewStore(llm.Unavailable{})

	assert.Equal(t, "", s.GetContext("nope"))
}

func TestRecordTurnCreatesConversation(t *testing.T) {
	s := NewStore(llm.Unavailable{})

	s.RecordTurn("c1", "hello", "hi there")
	s.RecordTurn("c1", "how are you", "fine")

	assert.Equal(t, 2, s.Len("c1"))
	assert.Equal(t, 0, s.Len("c2"))
}

func TestMaybeCompactBelowWindow(t *testing.T) {
	mock := llm.NewMockClient()
	s := NewStore(mock, func(o *Options) { o.Window = 3 })

	s.RecordTurn("c1", "q1", "a1")
	s.RecordTurn("c1", "q2", "a2")
	s.MaybeCompact(context.Background(), "c1")

	assert.Zero(t, mock.SummarizeCalls)
	assert.Equal(t, "", s.GetContext("c1"))
}

func TestMaybeCompactFoldsPendingTurns(t *testing.T) {
	mock := llm.NewMockClient()
	mock.SummaryText = "user asked about q1 through q3"
	s := NewStore(mock, func(o *Options) { o.Window = 3 })

	s.RecordTurn("c1", "q1", "a1")
	s.RecordTurn("c1", "q2", "a2")
	s.RecordTurn("c1", "q3", "a3")
	s.MaybeCompact(context.Background(), "c1")

	assert.Equal(t, 1, mock.SummarizeCalls)
	assert.Equal(t, "user asked about q1 through q3", s.GetContext("c1"))
	require.Len(t, mock.LastSummarizeTurns, 3)
	assert.Equal(t, "q1", mock.LastSummarizeTurns[0].Query)
}

func TestMaybeCompactIdempotentWithoutNewTurns(t *testing.T) {
	mock := llm.NewMockClient()
	mock.SummaryText = "stable summary"
	s := NewStore(mock, func(o *Options) { o.Window = 2 })

	s.RecordTurn("c1", "q1", "a1")
	s.RecordTurn("c1", "q2", "a2")

	s.MaybeCompact(context.Background(), "c1")
	first := s.GetContext("c1")
	s.MaybeCompact(context.Background(), "c1")
	second := s.GetContext("c1")

	assert.Equal(t, first, second)
	// The second call saw zero pending turns and never hit the summarizer.
	assert.Equal(t, 1, mock.SummarizeCalls)
}

func TestMaybeCompactSeesOnlyTurnsPastWatermark(t *testing.T) {
	mock := llm.NewMockClient()
	mock.SummaryText = "round one"
	s := NewStore(mock, func(o *Options) { o.Window = 2 })

	s.RecordTurn("c1", "q1", "a1")
	s.RecordTurn("c1", "q2", "a2")
	s.MaybeCompact(context.Background(), "c1")

	mock.SummaryText = "round two"
	s.RecordTurn("c1", "q3", "a3")
	s.RecordTurn("c1", "q4", "a4")
	s.MaybeCompact(context.Background(), "c1")

	assert.Equal(t, "round two", s.GetContext("c1"))
	require.Len(t, mock.LastSummarizeTurns, 2)
	assert.Equal(t, "q3", mock.LastSummarizeTurns[0].Query)
	assert.Equal(t, "q4", mock.LastSummarizeTurns[1].Query)
}

func TestMaybeCompactDegradesGracefully(t *testing.T) {
	mock := llm.NewMockClient()
	mock.SummaryText = "good summary"
	s := NewStore(mock, func(o *Options) { o.Window = 2 })

	s.RecordTurn("c1", "q1", "a1")
	s.RecordTurn("c1", "q2", "a2")
	s.MaybeCompact(context.Background(), "c1")
	require.Equal(t, "good summary", s.GetContext("c1"))

	mock.SummarizeErr = llm.ErrUnavailable
	s.RecordTurn("c1", "q3", "a3")
	s.RecordTurn("c1", "q4", "a4")
	s.MaybeCompact(context.Background(), "c1")

	// Previous summary untouched, watermark not advanced.
	assert.Equal(t, "good summary", s.GetContext("c1"))

	// Once the backend recovers, the stale turns get folded in.
	mock.SummarizeErr = nil
	mock.SummaryText = "recovered summary"
	s.MaybeCompact(context.Background(), "c1")
	assert.Equal(t, "recovered summary", s.GetContext("c1"))
	assert.Equal(t, "q3", mock.LastSummarizeTurns[0].Query)
}

func TestMaybeCompactUnknownConversation(t *testing.T) {
	mock := llm.NewMockClient()
	s := NewStore(mock)

	s.MaybeCompact(context.Background(), "nope")

	assert.Zero(t, mock.SummarizeCalls)
}

func TestSummaryTruncatedToTokenBudget(t *testing.T) {
	mock := llm.NewMockClient()
	mock.SummaryText = strings.Repeat("the user talked about many different topics ", 200)
	s := NewStore(mock, func(o *Options) {
		o.Window = 1
		o.MaxSummaryTokens = 16
	})

	s.RecordTurn("c1", "q1", "a1")
	s.MaybeCompact(context.Background(), "c1")

	got := s.GetContext("c1")
	assert.NotEmpty(t, got)
	assert.Less(t, len(got), len(mock.SummaryText))
}

func TestConcurrentConversationsAreIndependent(t *testing.T) {
	mock := llm.NewMockClient()
	mock.SummaryText = "summary"
	s := NewStore(mock, func(o *Options) { o.Window = 2 })

	var wg sync.WaitGroup
	ids := []string{"c1", "c2", "c3", "c4"}
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			for i := 0; i < 10; i++ {
				s.RecordTurn(id, "q", "a")
				s.MaybeCompact(context.Background(), id)
			}
		}(id)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, 10, s.Len(id))
		assert.Equal(t, "summary", s.GetContext(id))
	}
}
