package client

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/deepscience/deepscience/internal/domain"
)

// Session is the client-held state for the active query. At most one
// pipeline is live at a time: starting a new query cancels the previous
// pipeline's context synchronously before any state is reset, and every
// mutation is tagged with the pipeline id that produced it so frames from a
// superseded pipeline can never touch the current state.
type Session struct {
	mu sync.Mutex

	pipelineID uuid.UUID
	cancel     context.CancelFunc

	query           string
	papers          []domain.Paper
	answer          strings.Builder
	complete        bool
	errMsg          string
	followUps       []string
	followUpStarted bool
	highlightedID   string
}

// State is an immutable snapshot of the session for rendering.
type State struct {
	Query             string
	Papers            []domain.Paper
	Answer            string
	StreamComplete    bool
	Err               string
	FollowUpQuestions []string
	HighlightedID     string
}

// NewSession creates an empty session.
func NewSession() *Session {
	return &Session{}
}

// Start supersedes any in-flight pipeline and resets the session for a new
// query. The previous pipeline's context is cancelled before any mutation.
// Returns the new pipeline's context and id.
func (s *Session) Start(parent context.Context, query string) (context.Context, uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithCancel(parent)
	s.cancel = cancel
	s.pipelineID = uuid.New()

	s.query = query
	s.papers = nil
	s.answer.Reset()
	s.complete = false
	s.errMsg = ""
	s.followUps = nil
	s.followUpStarted = false
	s.highlightedID = ""

	return ctx, s.pipelineID
}

// Stop cancels the in-flight pipeline, if any. Used when leaving the view.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// Dispatch applies one frame to the session. Frames carrying a stale
// pipeline id are dropped; the return value reports whether the frame was
// applied.
func (s *Session) Dispatch(pipelineID uuid.UUID, frame domain.Frame) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if pipelineID != s.pipelineID {
		return false
	}

	switch frame.Type {
	case domain.FrameTypePapers:
		s.papers = frame.Papers
	case domain.FrameTypeAIResponse:
		if frame.Content != "" {
			s.answer.WriteString(frame.Content)
		}
		if frame.Done {
			s.complete = true
		}
	case domain.FrameTypeError:
		s.errMsg = frame.Content
	}
	return true
}

// Finish marks the stream complete at end-of-input regardless of whether a
// done frame arrived, matching how a closed response body is treated.
func (s *Session) Finish(pipelineID uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if pipelineID != s.pipelineID {
		return false
	}
	s.complete = true
	return true
}

// Fail records a transport-level failure for the given pipeline.
func (s *Session) Fail(pipelineID uuid.UUID, msg string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if pipelineID != s.pipelineID {
		return false
	}
	s.errMsg = msg
	return true
}

// BeginFollowUp reports whether the caller should fetch follow-up questions
// now. It returns true at most once per completed session: the in-flight
// guard is set before the network call happens, so concurrent re-evaluations
// of the completed state cannot double-fire.
func (s *Session) BeginFollowUp(pipelineID uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if pipelineID != s.pipelineID {
		return false
	}
	if !s.complete || s.errMsg != "" || s.followUpStarted {
		return false
	}
	if s.answer.Len() == 0 {
		return false
	}
	s.followUpStarted = true
	return true
}

// SetFollowUps records the fetched follow-up questions.
func (s *Session) SetFollowUps(pipelineID uuid.UUID, questions []string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if pipelineID != s.pipelineID {
		return false
	}
	s.followUps = questions
	return true
}

// ToggleHighlight highlights the given paper, or clears the highlight when
// the paper is already highlighted.
func (s *Session) ToggleHighlight(paperID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.highlightedID == paperID {
		s.highlightedID = ""
	} else {
		s.highlightedID = paperID
	}
}

// Snapshot returns a copy of the session state for rendering.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	papers := make([]domain.Paper, len(s.papers))
	copy(papers, s.papers)
	followUps := make([]string, len(s.followUps))
	copy(followUps, s.followUps)

	return State{
		Query:             s.query,
		Papers:            papers,
		Answer:            s.answer.String(),
		StreamComplete:    s.complete,
		Err:               s.errMsg,
		FollowUpQuestions: followUps,
		HighlightedID:     s.highlightedID,
	}
}
