package main

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestKeystroke_Script(t *testing.T) {
	f11 := 103

	tests := []struct {
		name string
		k    Keystroke
		want string
	}{
		{"space", Keystroke{Key: " "}, `tell application "System Events" to keystroke " "`},
		{"cmd w", Keystroke{Key: "w", Modifiers: []string{"cmd"}}, `tell application "System Events" to keystroke "w" using {command down}`},
		{"key code", Keystroke{Key: "x", Code: &f11}, `tell application "System Events" to key code 103`},
		{"quotes escaped", Keystroke{Key: `"`}, `tell application "System Events" to keystroke "\""`},
		{
			"unknown modifiers dropped",
			Keystroke{Key: "d", Modifiers: []string{"hyper", "Option", "SHIFT"}},
			`tell application "System Events" to keystroke "d" using {option down, shift down}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.k.script(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPress_Validation(t *testing.T) {
	for _, params := range []string{`{"key":""}`, `not json`, ``} {
		if err := press(json.RawMessage(params)); err == nil {
			t.Errorf("press(%q): expected error", params)
		}
	}
}

func TestHandlers_UnknownAction(t *testing.T) {
	resp := handlers.Handle(strings.NewReader(`{"action":"volume-up"}`))
	if resp.Success {
		t.Fatal("keyboard plugin should not handle volume-up")
	}
	if !strings.Contains(resp.Error, "unknown action") {
		t.Errorf("error = %q", resp.Error)
	}
}
