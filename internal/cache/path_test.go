package cache

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestPath_stable(t *testing.T) {
	p1 := Path("/clips", "gen-eight-rects.mp4")
	p2 := Path("/clips", "gen-eight-rects.mp4")
	if p1 != p2 {
		t.Errorf("Path should be stable: %q vs %q", p1, p2)
	}
	if p1 != filepath.Join("/clips", "gen-eight-rects.mp4") {
		t.Errorf("Path: %s", p1)
	}
}

func TestPath_sanitized(t *testing.T) {
	p := Path("/clips", "name/with/slash.mp4")
	if filepath.Base(p) != "name_with_slash.mp4" {
		t.Errorf("slashes should be sanitized: %s", p)
	}
	if filepath.Dir(p) != "/clips" {
		t.Errorf("must stay under root: %s", p)
	}
	if got := filepath.Base(Path("/clips", "..")); got != "unknown" {
		t.Errorf("dot-dot should be replaced: %s", got)
	}
}

func TestCreatePartial_unique(t *testing.T) {
	root := t.TempDir()
	p1, err := CreatePartial(root, "x.mp4")
	if err != nil {
		t.Fatalf("CreatePartial: %v", err)
	}
	p2, err := CreatePartial(root, "x.mp4")
	if err != nil {
		t.Fatalf("CreatePartial: %v", err)
	}
	if p1 == p2 {
		t.Errorf("partial paths should be unique: %s", p1)
	}
	for _, p := range []string{p1, p2} {
		if filepath.Dir(p) != root {
			t.Errorf("must stay under root: %s", p)
		}
		if p == Path(root, "x.mp4") {
			t.Error("partial path should differ from Path")
		}
		if !IsPartial(filepath.Base(p)) {
			t.Errorf("IsPartial(%q) = false", p)
		}
		if !strings.HasPrefix(filepath.Base(p), "x.mp4.") {
			t.Errorf("partial should be named after the artifact: %s", p)
		}
		if fi, err := os.Stat(p); err != nil || fi.Size() != 0 {
			t.Errorf("partial should exist and be empty: %v", err)
		}
	}
	if IsPartial("x.mp4") {
		t.Error("IsPartial should be false for final names")
	}
}

func TestCreatePartial_missingRoot(t *testing.T) {
	if _, err := CreatePartial(filepath.Join(t.TempDir(), "nope"), "x.mp4"); err == nil {
		t.Fatal("expected error for missing root")
	}
}
