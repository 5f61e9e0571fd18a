package ui

import (
	"bytes"
	"testing"

	"github.com/vrcdolly/dolly-agent/internal/library"
)

func TestCountsLabel(t *testing.T) {
	if got, want := countsLabel(2, 7), "Paths: 2  Points: 7/100"; got != want {
		t.Errorf("countsLabel = %q, want %q", got, want)
	}
}

func TestDocumentLabel(t *testing.T) {
	tests := []struct {
		doc  library.Document
		want string
	}{
		{library.Document{}, "Document: Untitled"},
		{library.Document{Dirty: true}, "Document: Untitled *"},
		{library.Document{Path: "/home/me/shots/intro.json"}, "Document: intro.json"},
		{library.Document{Path: "/home/me/shots/intro.yaml", Dirty: true}, "Document: intro.yaml *"},
	}

	for _, tt := range tests {
		if got := documentLabel(tt.doc); got != tt.want {
			t.Errorf("documentLabel(%+v) = %q, want %q", tt.doc, got, tt.want)
		}
	}
}

func TestIconIsPNG(t *testing.T) {
	if !bytes.HasPrefix(iconBytes, []byte("\x89PNG\r\n\x1a\n")) {
		t.Fatal("embedded icon is not a PNG")
	}
}
