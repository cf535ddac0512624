package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultsMatchReference(t *testing.T) {
	cfg := Defaults()
	if cfg.Width != 1600 || cfg.Height != 200 {
		t.Errorf("default image size = %dx%d, want 1600x200", cfg.Width, cfg.Height)
	}
	if cfg.MaxDepth != 150000 {
		t.Errorf("default max_depth = %v, want 150000", cfg.MaxDepth)
	}
	if cfg.WaterReflectionIterations != 10 {
		t.Errorf("default water_reflection_iterations = %v, want 10", cfg.WaterReflectionIterations)
	}
}

func TestLoadCLIOverridesDefaults(t *testing.T) {
	cfg, err := Load("", []string{"--width", "800", "--output", "render.tif"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Width != 800 {
		t.Errorf("Width = %d, want 800", cfg.Width)
	}
	if cfg.Output != "render.tif" {
		t.Errorf("Output = %q, want render.tif", cfg.Output)
	}
	// Untouched fields keep their defaults.
	if cfg.Height != 200 {
		t.Errorf("Height = %d, want unchanged default 200", cfg.Height)
	}
}

func TestLoadINIThenCLI(t *testing.T) {
	dir := t.TempDir()
	iniPath := filepath.Join(dir, "gamlenorge.ini")
	contents := "[default]\nwidth=640\nheight=480\n"
	if err := os.WriteFile(iniPath, []byte(contents), 0o644); err != nil {
		t.Fatalf("writing ini: %v", err)
	}

	cfg, err := Load(iniPath, []string{"--height", "100"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Width != 640 {
		t.Errorf("Width = %d, want 640 from ini", cfg.Width)
	}
	if cfg.Height != 100 {
		t.Errorf("Height = %d, want 100 (CLI should win over ini)", cfg.Height)
	}
}

func TestParseCoord(t *testing.T) {
	c, err := ParseCoord("123456.5,6789012.25")
	if err != nil {
		t.Fatalf("ParseCoord: %v", err)
	}
	if c.E != 123456.5 || c.N != 6789012.25 {
		t.Errorf("ParseCoord = %+v, want {123456.5 6789012.25}", c)
	}

	if _, err := ParseCoord("Nordre Trolltind"); err == nil {
		t.Error("expected error for symbolic place name")
	}
}
