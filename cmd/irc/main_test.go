package main

import (
	"testing"

	"github.com/whyrusleeping/hellabot"
)

func TestExtractRequest(t *testing.T) {
	tests := []struct {
		to, content string
		expected    string
		ok          bool
	}{
		{"#food", "Snap2Recipe: https://example.com/a.jpg", "https://example.com/a.jpg", true},
		{"#food", "snap2recipe, https://example.com/a.jpg", "https://example.com/a.jpg", true},
		{"#food", "look at https://example.com/a.jpg", "", false},
		{"#food", "Snap2Recipe:", "", false},
		{"Snap2Recipe", " https://example.com/a.jpg ", "https://example.com/a.jpg", true},
		{"", "hi", "", false},
	}
	for _, test := range tests {
		what, ok := extractRequest(&hbot.Message{To: test.to, Content: test.content}, "Snap2Recipe")
		if what != test.expected || ok != test.ok {
			t.Errorf("%q to %q: expected (%q, %v), got (%q, %v)", test.content, test.to, test.expected, test.ok, what, ok)
		}
	}
}

func TestFormatReply(t *testing.T) {
	tests := []struct {
		to, text string
		expected string
	}{
		{"#food", "📜 This recipe for *pasta*:\n\n1. Boil water.", "alice: 📜 This recipe for *pasta*:\n1. Boil water."},
		{"Snap2Recipe", "📥 Photo successfully received.", "📥 Photo successfully received."},
		{"#food", " \n\n ", ""},
	}
	for _, test := range tests {
		actual := formatReply(&hbot.Message{To: test.to, From: "alice"}, test.text)
		if expected := test.expected; expected != actual {
			t.Errorf("%q to %q: expected %q, got %q", test.text, test.to, expected, actual)
		}
	}
}
