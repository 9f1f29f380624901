package persona_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vitormoschetta/go-voice-coach/internal/persona"
)

func TestNames(t *testing.T) {
	got := strings.Join(persona.Names(), ",")
	if got != "assistant,coach,safety" {
		t.Errorf("Names: got %s, want assistant,coach,safety", got)
	}
}

func TestBuiltin(t *testing.T) {
	p, err := persona.Builtin("coach")
	if err != nil {
		t.Fatalf("Builtin error: %v", err)
	}
	if !strings.Contains(p.Instruction, "Brutally Honest Productivity Coach") {
		t.Errorf("coach instruction not loaded: %q", p.Instruction[:40])
	}

	if _, err := persona.Builtin("pirate"); err == nil {
		t.Error("expected error for unknown persona")
	}
}

func TestLoad_FileOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "persona.txt")
	if err := os.WriteFile(path, []byte("  Be brief.\n"), 0644); err != nil {
		t.Fatalf("writing persona: %v", err)
	}

	p, err := persona.Load("custom", path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if p.Instruction != "Be brief." || p.Name != "custom" {
		t.Errorf("persona: got %+v", p)
	}

	empty := filepath.Join(t.TempDir(), "empty.txt")
	if err := os.WriteFile(empty, []byte("   "), 0644); err != nil {
		t.Fatalf("writing persona: %v", err)
	}
	if _, err := persona.Load("custom", empty); err == nil {
		t.Error("expected error for empty persona file")
	}
}
