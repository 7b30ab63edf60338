package state

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/five82/ts3view/internal/viewer"
)

// Snapshot represents the latest data available to the UI.
type Snapshot struct {
	Tree                *viewer.Tree // last successful tree, nil before the first one
	Fallback            string       // set while the latest render failed
	LastUpdated         time.Time
	LastSuccess         time.Time
	LastError           error
	ConsecutiveFailures int
	Renders             int // completed render attempts
}

// HasTree reports whether a tree has ever been rendered.
func (s Snapshot) HasTree() bool {
	return s.Tree != nil
}

// IsOffline returns true when the server has been unreachable for multiple polls.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// Store coordinates concurrent updates to the snapshot.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
}

// Update records a render result. A failed result keeps the previous tree
// and records the error and fallback text.
func (s *Store) Update(res viewer.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.snapshot.LastUpdated = now
	s.snapshot.Renders++

	if !res.OK() {
		err := res.Err
		if err == nil {
			err = fmt.Errorf("render failed")
		}
		s.snapshot.LastError = err
		s.snapshot.Fallback = res.Fallback
		if s.snapshot.Fallback == "" {
			s.snapshot.Fallback = viewer.FallbackMessage
		}
		s.snapshot.ConsecutiveFailures++
		return
	}

	s.snapshot.Tree = cloneTree(res.Tree)
	s.snapshot.Fallback = ""
	s.snapshot.LastError = nil
	s.snapshot.LastSuccess = now
	s.snapshot.ConsecutiveFailures = 0
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.Tree = cloneTree(s.snapshot.Tree)
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	return snap
}

func cloneTree(tree *viewer.Tree) *viewer.Tree {
	if tree == nil {
		return nil
	}
	dup := *tree
	dup.Channels = cloneChannels(tree.Channels)
	return &dup
}

func cloneChannels(channels []viewer.RenderedChannel) []viewer.RenderedChannel {
	if len(channels) == 0 {
		return nil
	}
	dup := make([]viewer.RenderedChannel, len(channels))
	for i, ch := range channels {
		ch.Flags = slices.Clone(ch.Flags)
		ch.Users = cloneUsers(ch.Users)
		ch.Children = cloneChannels(ch.Children)
		dup[i] = ch
	}
	return dup
}

func cloneUsers(users []viewer.RenderedUser) []viewer.RenderedUser {
	if len(users) == 0 {
		return nil
	}
	dup := make([]viewer.RenderedUser, len(users))
	for i, u := range users {
		u.Flags = slices.Clone(u.Flags)
		dup[i] = u
	}
	return dup
}
