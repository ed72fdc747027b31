package engine

import (
	"sync"

	"github.com/pansweep/pansweep/internal/types"
)

// store is the shared result sink for concurrent file scans.
type store struct {
	mu        sync.Mutex
	matches   []types.CardMatch
	withCards map[string]bool
	skipped   []types.SkipRecord
	done      int
	total     int
	progress  func(done, total int)
}

func newStore(total int, progress func(done, total int)) *store {
	return &store{withCards: map[string]bool{}, total: total, progress: progress}
}

func (s *store) add(m types.CardMatch) {
	s.mu.Lock()
	s.matches = append(s.matches, m)
	s.withCards[m.Path] = true
	s.mu.Unlock()
}

func (s *store) finish(skip *types.SkipRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if skip != nil {
		s.skipped = append(s.skipped, *skip)
	}
	s.done++
	if s.progress != nil {
		s.progress(s.done, s.total)
	}
}
