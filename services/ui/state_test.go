package ui

import "testing"

func TestTrailerModal(t *testing.T) {
	var s State

	if snap := s.Snapshot(); snap.TrailerModalOpen || snap.CurrentTrailerKey != nil {
		t.Fatalf("expected closed modal, got %+v", snap)
	}

	s.OpenTrailer("SUXWAEX2jlg")
	snap := s.Snapshot()
	if !snap.TrailerModalOpen || snap.CurrentTrailerKey == nil || *snap.CurrentTrailerKey != "SUXWAEX2jlg" {
		t.Fatalf("expected open modal with key, got %+v", snap)
	}

	s.CloseTrailer()
	if snap := s.Snapshot(); snap.TrailerModalOpen || snap.CurrentTrailerKey != nil {
		t.Fatalf("expected modal closed and key cleared, got %+v", snap)
	}
}

func TestSidebar(t *testing.T) {
	var s State

	if !s.ToggleSidebar() {
		t.Fatal("expected toggle to open sidebar")
	}
	if s.ToggleSidebar() {
		t.Fatal("expected second toggle to close sidebar")
	}

	s.SetSidebarOpen(true)
	if !s.Snapshot().SidebarOpen {
		t.Fatal("expected sidebar open")
	}
}
