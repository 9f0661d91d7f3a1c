package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/deepscience/deepscience/internal/domain"
)

// Client talks to the DeepScience HTTP API and drives a Session. OnUpdate,
// when set, is invoked after every session mutation so a UI can re-render.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger

	OnUpdate func()
}

// New creates an API client. The HTTP client carries no overall timeout
// because the answer stream is long-lived; cancellation comes from the
// pipeline context.
func New(baseURL string, logger *zap.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		logger:     logger,
	}
}

func (c *Client) notify() {
	if c.OnUpdate != nil {
		c.OnUpdate()
	}
}

// Stream runs the streaming search pipeline for the given query against the
// session. It returns when the stream ends, the pipeline is superseded, or
// the transport fails. On normal completion it fetches follow-up questions,
// exactly once per completed session.
func (c *Client) Stream(ctx context.Context, session *Session, pipelineID uuid.UUID, query string) error {
	body, err := json.Marshal(domain.SearchRequest{Query: query})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/search/stream", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			// Superseded pipeline: do not touch the session.
			return nil
		}
		session.Fail(pipelineID, "Failed to fetch search results. Please try again.")
		c.notify()
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		session.Fail(pipelineID, fmt.Sprintf("Search request failed with status %d.", resp.StatusCode))
		c.notify()
		return fmt.Errorf("stream endpoint returned HTTP %d", resp.StatusCode)
	}

	decoder := NewDecoder(c.logger)
	buf := make([]byte, 4096)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			for _, frame := range decoder.Feed(buf[:n]) {
				if !session.Dispatch(pipelineID, frame) {
					// Superseded mid-stream: stop reading entirely.
					return nil
				}
				c.notify()
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			if errors.Is(readErr, context.Canceled) || ctx.Err() != nil {
				return nil
			}
			session.Fail(pipelineID, "Failed to fetch search results. Please try again.")
			c.notify()
			return fmt.Errorf("reading stream: %w", readErr)
		}
	}

	for _, frame := range decoder.Close() {
		if !session.Dispatch(pipelineID, frame) {
			return nil
		}
		c.notify()
	}

	if session.Finish(pipelineID) {
		c.notify()
	}

	if session.BeginFollowUp(pipelineID) {
		state := session.Snapshot()
		questions := c.FollowUp(ctx, state.Query, state.Answer)
		if session.SetFollowUps(pipelineID, questions) {
			c.notify()
		}
	}
	return nil
}

// FollowUp fetches follow-up questions for a completed answer. Failure is
// silent and yields an empty list.
func (c *Client) FollowUp(ctx context.Context, query, answer string) []string {
	body, err := json.Marshal(domain.FollowUpRequest{Query: query, AIResponse: answer})
	if err != nil {
		return []string{}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/follow-up", bytes.NewReader(body))
	if err != nil {
		return []string{}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("follow-up fetch failed", zap.Error(err))
		return []string{}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return []string{}
	}

	var out domain.FollowUpResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		c.logger.Warn("follow-up response unreadable", zap.Error(err))
		return []string{}
	}
	if out.Questions == nil {
		return []string{}
	}
	return out.Questions
}

// Suggest fetches autocomplete suggestions for a partial query.
func (c *Client) Suggest(ctx context.Context, partial string) []string {
	if strings.TrimSpace(partial) == "" {
		return []string{}
	}

	reqCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	reqURL := c.baseURL + "/api/autocomplete?q=" + url.QueryEscape(partial)
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, reqURL, nil)
	if err != nil {
		return []string{}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return []string{}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return []string{}
	}

	var out domain.SuggestResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return []string{}
	}
	if out.Suggestions == nil {
		return []string{}
	}
	return out.Suggestions
}
