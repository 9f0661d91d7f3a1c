package service

import (
	"context"
	"sync"

	"github.com/deepscience/deepscience/internal/llm"
)

// fakeProvider is a scripted llm.Provider for service tests.
type fakeProvider struct {
	mu          sync.Mutex
	chatCalls   int
	streamCalls int
	lastHistory []llm.Message
	lastOptions *llm.Options

	chatResponse string
	chatErr      error

	streamDeltas []string
	streamErr    error // delivered after the scripted deltas
}

func (f *fakeProvider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chatCalls++
	f.lastHistory = history
	f.lastOptions = llm.Apply(opts)
	return f.chatResponse, f.chatErr
}

func (f *fakeProvider) ChatStream(ctx context.Context, history []llm.Message, opts ...llm.Option) (<-chan string, <-chan error) {
	f.mu.Lock()
	f.streamCalls++
	f.lastHistory = history
	f.lastOptions = llm.Apply(opts)
	deltas := f.streamDeltas
	streamErr := f.streamErr
	f.mu.Unlock()

	out := make(chan string)
	errs := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errs)
		for _, d := range deltas {
			select {
			case out <- d:
			case <-ctx.Done():
				errs <- ctx.Err()
				return
			}
		}
		if streamErr != nil {
			errs <- streamErr
		}
	}()
	return out, errs
}

func (f *fakeProvider) calls() (chat, stream int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.chatCalls, f.streamCalls
}
