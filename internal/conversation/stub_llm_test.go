package conversation

import (
	"context"
	"sync"
)

type stubLLMClient struct {
	mu        sync.Mutex
	responses []LLMResponse
	errs      []error
	requests  []LLMRequest
}

func (s *stubLLMClient) Complete(ctx context.Context, req LLMRequest) (LLMResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := len(s.requests)
	s.requests = append(s.requests, req)
	if idx < len(s.errs) && s.errs[idx] != nil {
		return LLMResponse{}, s.errs[idx]
	}
	if idx < len(s.responses) {
		return s.responses[idx], nil
	}
	if len(s.responses) > 0 {
		return s.responses[len(s.responses)-1], nil
	}
	return LLMResponse{}, nil
}

func (s *stubLLMClient) calls() []LLMRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]LLMRequest(nil), s.requests...)
}

type recordingObserver struct {
	mu      sync.Mutex
	entries []string
}

func (r *recordingObserver) ObserveLLMCall(purpose, outcome string, _ float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, purpose+":"+outcome)
}
