package extract

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/coilpress/muxctl/internal/state"
)

func TestIsMatroska(t *testing.T) {
	for ext, want := range map[string]bool{".mkv": true, ".mka": true, ".mks": true, ".mp4": false, ".m2ts": false} {
		if got := isMatroska(ext); got != want {
			t.Errorf("isMatroska(%q) = %v, want %v", ext, got, want)
		}
	}
}

func TestFindTrack(t *testing.T) {
	tracks := []state.TrackInfo{{TrackID: 0}, {TrackID: 2}}
	if tr := findTrack(tracks, 2); tr == nil || tr.TrackID != 2 {
		t.Errorf("findTrack(2) = %v", tr)
	}
	if tr := findTrack(tracks, 5); tr != nil {
		t.Errorf("findTrack(5) = %v, want nil", tr)
	}
}

func TestNormalizeTimecodeHeaderRewritesLegacyLabel(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tc.txt")
	if err := os.WriteFile(path, []byte("# timestamp format v2\n0\n42\n84\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := normalizeTimecodeHeader(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := "# timecode format v2\n0\n42\n84\n"
	if string(got) != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestNormalizeTimecodeHeaderLeavesModernHeaderAlone(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tc.txt")
	if err := os.WriteFile(path, []byte("# timecode format v2\n0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := normalizeTimecodeHeader(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, _ := os.ReadFile(path)
	if string(got) != "# timecode format v2\n0\n" {
		t.Errorf("header changed unexpectedly: %q", got)
	}
}
