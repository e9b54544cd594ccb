package watcher

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestWatcherReportsPHPChanges(t *testing.T) {
	root := t.TempDir()

	var mu sync.Mutex
	var got []string
	done := make(chan struct{}, 1)

	w, err := NewWatcher(50*time.Millisecond, nil, nil, func(paths []string) {
		mu.Lock()
		got = append(got, paths...)
		mu.Unlock()
		select {
		case done <- struct{}{}:
		default:
		}
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if err := w.Watch([]string{root}); err != nil {
		t.Fatal(err)
	}

	phpPath := filepath.Join(root, "Widget.php")
	if err := os.WriteFile(phpPath, []byte("<?php class Widget {}"), 0644); err != nil {
		t.Fatal(err)
	}
	// Non-source files must be filtered out.
	if err := os.WriteFile(filepath.Join(root, "notes.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for change callback")
	}

	mu.Lock()
	defer mu.Unlock()
	sawPHP, sawTxt := false, false
	for _, p := range got {
		if p == phpPath {
			sawPHP = true
		}
		if filepath.Base(p) == "notes.txt" {
			sawTxt = true
		}
	}
	if !sawPHP {
		t.Errorf("php change not reported, got %v", got)
	}
	if sawTxt {
		t.Errorf("txt change should be filtered, got %v", got)
	}
}

func TestWatcherExcludeGlobs(t *testing.T) {
	root := t.TempDir()
	vendor := filepath.Join(root, "vendor")
	if err := os.MkdirAll(vendor, 0755); err != nil {
		t.Fatal(err)
	}

	changed := make(chan []string, 4)
	w, err := NewWatcher(30*time.Millisecond, []string{"vendor"}, []string{"*_generated.php"}, func(paths []string) {
		changed <- paths
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if err := w.Watch([]string{root}); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(filepath.Join(vendor, "Lib.php"), []byte("<?php"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "Widget_generated.php"), []byte("<?php"), 0644); err != nil {
		t.Fatal(err)
	}
	keep := filepath.Join(root, "Keep.php")
	if err := os.WriteFile(keep, []byte("<?php"), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case paths := <-changed:
		for _, p := range paths {
			if filepath.Base(p) == "Widget_generated.php" {
				t.Errorf("excluded file reported: %v", paths)
			}
			if filepath.Dir(p) == vendor {
				t.Errorf("excluded dir reported: %v", paths)
			}
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for change callback")
	}
}

func TestWatcherSidecarChanges(t *testing.T) {
	root := t.TempDir()

	changed := make(chan []string, 1)
	w, err := NewWatcher(30*time.Millisecond, nil, nil, func(paths []string) {
		select {
		case changed <- paths:
		default:
		}
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if err := w.Watch([]string{root}); err != nil {
		t.Fatal(err)
	}

	sidecar := filepath.Join(root, "App_Widget.yaml")
	if err := os.WriteFile(sidecar, []byte("methods: []"), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case paths := <-changed:
		found := false
		for _, p := range paths {
			if p == sidecar {
				found = true
			}
		}
		if !found {
			t.Errorf("sidecar change not reported: %v", paths)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for change callback")
	}
}
