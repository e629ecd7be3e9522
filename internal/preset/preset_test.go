package preset

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultCatalog(t *testing.T) {
	c, err := New("")
	if err != nil {
		t.Fatalf("load defaults: %v", err)
	}

	names := c.Names()
	want := []string{"easy", "normal", "hard", "master"}
	if len(names) != len(want) {
		t.Fatalf("names = %v", names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("names = %v, want %v", names, want)
		}
	}

	cfg, ok := c.Config("normal")
	if !ok {
		t.Fatal("normal preset missing")
	}
	if cfg.PieceCount != 8 || cfg.MemorizeSeconds != 12 {
		t.Fatalf("normal = %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("embedded preset invalid: %v", err)
	}
}

func TestConfigNameIsCaseInsensitive(t *testing.T) {
	c, err := New("")
	if err != nil {
		t.Fatalf("load defaults: %v", err)
	}
	if _, ok := c.Config("  Normal "); !ok {
		t.Fatal("trimmed case-insensitive lookup failed")
	}
	if _, ok := c.Config("impossible"); ok {
		t.Fatal("unknown preset resolved")
	}
}

func TestOverrideDir(t *testing.T) {
	dir := t.TempDir()
	override := []byte("presets:\n  normal:\n    label: Normal\n    piece_count: 10\n    memorize_seconds: 15\n  blitz:\n    label: Blitz\n    piece_count: 6\n    memorize_seconds: 5\n")
	if err := os.WriteFile(filepath.Join(dir, "10-custom.yaml"), override, 0o644); err != nil {
		t.Fatalf("write override: %v", err)
	}

	c, err := New(dir)
	if err != nil {
		t.Fatalf("load with overrides: %v", err)
	}

	cfg, ok := c.Config("normal")
	if !ok || cfg.PieceCount != 10 {
		t.Fatalf("override not applied: %+v ok=%v", cfg, ok)
	}
	if _, ok := c.Config("blitz"); !ok {
		t.Fatal("new preset from override missing")
	}
	// Untouched defaults survive.
	if _, ok := c.Config("master"); !ok {
		t.Fatal("default preset lost")
	}
}

func TestOverrideRejectsOutOfRange(t *testing.T) {
	dir := t.TempDir()
	bad := []byte("presets:\n  broken:\n    label: Broken\n    piece_count: 40\n    memorize_seconds: 10\n")
	if err := os.WriteFile(filepath.Join(dir, "bad.yaml"), bad, 0o644); err != nil {
		t.Fatalf("write override: %v", err)
	}
	if _, err := New(dir); err == nil {
		t.Fatal("out-of-range preset accepted")
	}
}
