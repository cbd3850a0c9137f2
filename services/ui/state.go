// Package ui holds ephemeral presentation flags shared across requests.
package ui

import (
	"strings"
	"sync"
)

// Snapshot is the current set of UI flags.
type Snapshot struct {
	TrailerModalOpen  bool    `json:"trailerModalOpen"`
	CurrentTrailerKey *string `json:"currentTrailerKey"`
	SidebarOpen       bool    `json:"sidebarOpen"`
}

// State guards the UI flags. The zero value is ready to use.
type State struct {
	mu         sync.RWMutex
	trailerKey string
	modalOpen  bool
	sidebar    bool
}

func (s *State) OpenTrailer(key string) {
	key = strings.TrimSpace(key)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.modalOpen = true
	s.trailerKey = key
}

func (s *State) CloseTrailer() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.modalOpen = false
	s.trailerKey = ""
}

// ToggleSidebar flips the sidebar and returns the new value.
func (s *State) ToggleSidebar() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sidebar = !s.sidebar
	return s.sidebar
}

func (s *State) SetSidebarOpen(open bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sidebar = open
}

func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{TrailerModalOpen: s.modalOpen, SidebarOpen: s.sidebar}
	if s.modalOpen {
		key := s.trailerKey
		snap.CurrentTrailerKey = &key
	}
	return snap
}
