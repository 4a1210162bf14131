package workspace

import (
	"context"
	"path/filepath"
	"testing"
)

func TestAutoDiscover(t *testing.T) {
	r := newTestRegistry(t)
	home := t.TempDir()

	projects := filepath.Join(home, "Projects")
	wsA := filepath.Join(projects, "alpha")
	mkdirAll(t, wsA)
	writeMarker(t, wsA)
	mkdirAll(t, filepath.Join(projects, "plain"))

	hidden := filepath.Join(projects, ".hidden-ws")
	mkdirAll(t, hidden)
	writeMarker(t, hidden)

	open := t.TempDir()
	writeMarker(t, open)

	extra := t.TempDir()
	wsB := filepath.Join(extra, "beta")
	mkdirAll(t, wsB)
	writeWorkspaceLayout(t, wsB)

	added, err := r.AutoDiscover(context.Background(), []string{open}, DiscoverOptions{
		Home:      home,
		ExtraDirs: []string{extra, filepath.Join(home, "does-not-exist")},
	})
	if err != nil {
		t.Fatalf("AutoDiscover: %v", err)
	}

	got := map[string]bool{}
	for _, rec := range added {
		got[rec.Path] = true
	}
	for _, want := range []string{open, wsA, wsB} {
		if !got[want] {
			t.Errorf("expected %s to be discovered, got %v", want, got)
		}
	}
	if got[hidden] {
		t.Error("hidden directory should be ignored")
	}
	if len(added) != 3 {
		t.Errorf("added %d workspaces, want 3", len(added))
	}

	// A second pass adds nothing new.
	again, err := r.AutoDiscover(context.Background(), []string{open}, DiscoverOptions{Home: home, ExtraDirs: []string{extra}})
	if err != nil {
		t.Fatalf("AutoDiscover: %v", err)
	}
	if len(again) != 0 {
		t.Errorf("second pass added %d, want 0", len(again))
	}
}

func TestAutoDiscover_CustomIgnore(t *testing.T) {
	r := newTestRegistry(t)
	root := t.TempDir()
	for _, name := range []string{"keep", "archive-old"} {
		dir := filepath.Join(root, name)
		mkdirAll(t, dir)
		writeMarker(t, dir)
	}

	added, err := r.AutoDiscover(context.Background(), nil, DiscoverOptions{
		ExtraDirs: []string{root},
		Ignore:    []string{"archive-*"},
	})
	if err != nil {
		t.Fatalf("AutoDiscover: %v", err)
	}
	if len(added) != 1 || added[0].Name != "keep" {
		t.Errorf("added = %+v, want only keep", added)
	}
}

func TestAutoDiscover_Cancelled(t *testing.T) {
	r := newTestRegistry(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := r.AutoDiscover(ctx, []string{t.TempDir()}, DiscoverOptions{}); err == nil {
		t.Error("expected context error")
	}
}
