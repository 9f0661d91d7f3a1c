package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/deepscience/deepscience/internal/domain"
)

// fakeBackend serves the streaming and follow-up endpoints the way the real
// server does: one NDJSON frame per line, flushed as it goes.
type fakeBackend struct {
	frames        []domain.Frame
	followUps     []string
	followUpCalls atomic.Int32
}

func (b *fakeBackend) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/search/stream", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		enc := json.NewEncoder(w)
		for _, f := range b.frames {
			_ = enc.Encode(f)
			if fl, ok := w.(http.Flusher); ok {
				fl.Flush()
			}
		}
	})
	mux.HandleFunc("/api/follow-up", func(w http.ResponseWriter, r *http.Request) {
		b.followUpCalls.Add(1)
		_ = json.NewEncoder(w).Encode(domain.FollowUpResponse{Questions: b.followUps})
	})
	return mux
}

func TestStreamDrivesSessionToCompletion(t *testing.T) {
	backend := &fakeBackend{
		frames: []domain.Frame{
			domain.PapersFrame([]domain.Paper{{ID: "W1", Title: "First"}, {ID: "W2", Title: "Second"}}),
			domain.TextFrame("answer part one "),
			domain.TextFrame("[1] and part two [2]."),
			domain.DoneFrame(""),
		},
		followUps: []string{"And then what?"},
	}
	srv := httptest.NewServer(backend.handler())
	defer srv.Close()

	api := New(srv.URL, zap.NewNop())
	session := NewSession()
	ctx, pid := session.Start(context.Background(), "first query")

	require.NoError(t, api.Stream(ctx, session, pid, "first query"))

	state := session.Snapshot()
	assert.Equal(t, "answer part one [1] and part two [2].", state.Answer)
	assert.True(t, state.StreamComplete)
	assert.Empty(t, state.Err)
	require.Len(t, state.Papers, 2)
	assert.Equal(t, "W1", state.Papers[0].ID)
	assert.Equal(t, []string{"And then what?"}, state.FollowUpQuestions)
	assert.Equal(t, int32(1), backend.followUpCalls.Load())
}

func TestStreamFollowUpFetchedOncePerSession(t *testing.T) {
	backend := &fakeBackend{
		frames: []domain.Frame{
			domain.PapersFrame([]domain.Paper{{ID: "W1"}}),
			domain.TextFrame("short answer"),
			domain.DoneFrame(""),
		},
		followUps: []string{"follow-up?"},
	}
	srv := httptest.NewServer(backend.handler())
	defer srv.Close()

	api := New(srv.URL, zap.NewNop())
	session := NewSession()
	ctx, pid := session.Start(context.Background(), "q")

	require.NoError(t, api.Stream(ctx, session, pid, "q"))
	// A second pass with the same pipeline cannot re-fire the fetch.
	require.NoError(t, api.Stream(ctx, session, pid, "q"))

	assert.Equal(t, int32(1), backend.followUpCalls.Load())
}

func TestStreamErrorFrameSuppressesFollowUps(t *testing.T) {
	backend := &fakeBackend{
		frames: []domain.Frame{
			domain.PapersFrame([]domain.Paper{{ID: "W1"}}),
			domain.TextFrame("partial"),
			domain.ErrorFrame("Failed to generate AI response"),
		},
	}
	srv := httptest.NewServer(backend.handler())
	defer srv.Close()

	api := New(srv.URL, zap.NewNop())
	session := NewSession()
	ctx, pid := session.Start(context.Background(), "q")

	require.NoError(t, api.Stream(ctx, session, pid, "q"))

	state := session.Snapshot()
	assert.Equal(t, "Failed to generate AI response", state.Err)
	assert.Equal(t, "partial", state.Answer)
	assert.Empty(t, state.FollowUpQuestions)
	assert.Equal(t, int32(0), backend.followUpCalls.Load())
}

func TestStreamSupersededPipelineLeavesSessionUntouched(t *testing.T) {
	backend := &fakeBackend{
		frames: []domain.Frame{
			domain.PapersFrame([]domain.Paper{{ID: "Wstale"}}),
			domain.TextFrame("stale answer"),
			domain.DoneFrame(""),
		},
	}
	srv := httptest.NewServer(backend.handler())
	defer srv.Close()

	api := New(srv.URL, zap.NewNop())
	session := NewSession()
	staleCtx, stalePID := session.Start(context.Background(), "old query")

	// A newer query supersedes the first pipeline before it runs.
	session.Start(context.Background(), "new query")

	require.NoError(t, api.Stream(staleCtx, session, stalePID, "old query"))

	state := session.Snapshot()
	assert.Equal(t, "new query", state.Query)
	assert.Empty(t, state.Answer)
	assert.Empty(t, state.Papers)
	assert.False(t, state.StreamComplete)
	assert.Equal(t, int32(0), backend.followUpCalls.Load())
}

func TestStreamNon200FailsSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	api := New(srv.URL, zap.NewNop())
	session := NewSession()
	ctx, pid := session.Start(context.Background(), "q")

	require.Error(t, api.Stream(ctx, session, pid, "q"))
	assert.NotEmpty(t, session.Snapshot().Err)
}

func TestSuggestBlankInputSkipsNetwork(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	api := New(srv.URL, zap.NewNop())
	assert.Empty(t, api.Suggest(context.Background(), "   "))
	assert.False(t, called)
}

func TestSuggestReturnsSuggestions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "tardi", r.URL.Query().Get("q"))
		_ = json.NewEncoder(w).Encode(domain.SuggestResponse{Suggestions: []string{"tardigrade biology"}})
	}))
	defer srv.Close()

	api := New(srv.URL, zap.NewNop())
	assert.Equal(t, []string{"tardigrade biology"}, api.Suggest(context.Background(), "tardi"))
}
