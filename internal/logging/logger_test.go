package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/coilpress/muxctl/internal/config"
)

func TestNewLogger_NoFile(t *testing.T) {
	cfg := config.DefaultGlobalConfig()
	cfg.LogFile = ""
	l, err := NewLogger(&cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()
	l.Info("test message")
}

func TestNewLogger_WithFile(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DefaultGlobalConfig()
	cfg.LogFile = filepath.Join(dir, "muxmaster.log")
	l, err := NewLogger(&cfg)
	if err != nil {
		t.Fatal(err)
	}
	l.Info("to file")
	if err := l.Close(); err != nil {
		t.Fatal(err)
	}
	b, _ := os.ReadFile(cfg.LogFile)
	if !bytes.Contains(b, []byte("info")) || !bytes.Contains(b, []byte("to file")) {
		t.Errorf("log file content: %s", string(b))
	}
}

func TestLogger_RotateIfLarge(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DefaultGlobalConfig()
	cfg.LogFile = filepath.Join(dir, "muxmaster.log")
	l, err := NewLogger(&cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()

	l.Info("%s", string(bytes.Repeat([]byte("x"), 128)))
	if err := l.RotateIfLarge(64); err != nil {
		t.Fatal(err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	var sawCompressed bool
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".gz" {
			sawCompressed = true
		}
	}
	if !sawCompressed {
		t.Errorf("expected a rotated .gz file in %s, entries: %v", dir, entries)
	}
}
