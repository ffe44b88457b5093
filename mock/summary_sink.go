package mock

import (
	"context"
	"sync"

	"github.com/dinoallo/sealos-nm-bytecount/internal/common/structs"
)

// TestingSummarySink records every submitted summary. Err, if set, is
// returned from Submit after recording.
type TestingSummarySink struct {
	mu        sync.Mutex
	summaries []structs.Summary
	Err       error
}

func NewTestingSummarySink() *TestingSummarySink {
	return &TestingSummarySink{}
}

func (s *TestingSummarySink) Submit(ctx context.Context, summary structs.Summary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summaries = append(s.summaries, summary)
	return s.Err
}

func (s *TestingSummarySink) Summaries() []structs.Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	summaries := make([]structs.Summary, len(s.summaries))
	copy(summaries, s.summaries)
	return summaries
}

// ByPort returns the summaries of one port in submission order.
func (s *TestingSummarySink) ByPort(port uint16) []structs.Summary {
	var summaries []structs.Summary
	for _, summary := range s.Summaries() {
		if summary.Port == port {
			summaries = append(summaries, summary)
		}
	}
	return summaries
}

func (s *TestingSummarySink) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summaries = nil
}
