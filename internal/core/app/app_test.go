package app

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"phpnav/internal/core/config"
	"phpnav/internal/engine/scanner"
)

const widgetClass = `<?php

namespace App\Domain;

/**
 * @naming lowerCamel
 */
class Widget
{
    private $fooBar;
}
`

const consumerSource = `<?php
namespace App;

use App\Domain\Widget;

$widget = new Widget();
$widget->getFooBar();
`

func newTestApp(t *testing.T, withHistory bool) (*App, string, string) {
	t.Helper()
	root := t.TempDir()

	widgetPath := filepath.Join(root, "src", "App", "Domain", "Widget.php")
	consumerPath := filepath.Join(root, "src", "App", "consumer.php")
	for path, content := range map[string]string{
		widgetPath:   widgetClass,
		consumerPath: consumerSource,
	} {
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}

	cfg := config.Default(root)
	if withHistory {
		cfg.DB.Enabled = true
		cfg.DB.Path = filepath.Join(t.TempDir(), "history.db")
	}

	a, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close(context.Background()) })

	return a, widgetPath, consumerPath
}

func definitionLoc(t *testing.T, src, needle string) scanner.Location {
	t.Helper()
	i := strings.Index(src, needle)
	if i < 0 {
		t.Fatalf("needle %q not in source", needle)
	}
	return scanner.OffsetToLocation(src, i)
}

func TestDefinitionRecordsHistory(t *testing.T) {
	a, widgetPath, consumerPath := newTestApp(t, true)
	svc := a.NavigationService()

	got := svc.Definition(context.Background(), consumerPath, definitionLoc(t, consumerSource, "getFooBar"))
	require.True(t, got.Found)
	require.Equal(t, widgetPath, got.Path)

	records, err := svc.Recent(10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "definition", records[0].Operation)
	require.Equal(t, "getFooBar", records[0].Symbol)
	require.Equal(t, "accessor", records[0].Kind)
	require.True(t, records[0].Found)
	require.Equal(t, widgetPath, records[0].TargetPath)
}

func TestDefinitionWithoutHistory(t *testing.T) {
	a, widgetPath, consumerPath := newTestApp(t, false)
	svc := a.NavigationService()

	got := svc.Definition(context.Background(), consumerPath, definitionLoc(t, consumerSource, "getFooBar"))
	require.True(t, got.Found)
	require.Equal(t, widgetPath, got.Path)

	records, err := svc.Recent(10)
	require.NoError(t, err)
	require.Nil(t, records)
}

func TestReferencesAndCompletions(t *testing.T) {
	a, _, consumerPath := newTestApp(t, false)
	svc := a.NavigationService()

	refs := svc.References(context.Background(), consumerPath, definitionLoc(t, consumerSource, "getFooBar"))
	require.NotEmpty(t, refs)

	completionSrc := consumerSource + "$widget->"
	require.NoError(t, os.WriteFile(consumerPath, []byte(completionSrc), 0644))
	items := svc.Completions(context.Background(), consumerPath, scanner.OffsetToLocation(completionSrc, len(completionSrc)))
	require.NotEmpty(t, items)
}

func TestSidecarChangeClearsCaches(t *testing.T) {
	a, _, consumerPath := newTestApp(t, false)
	svc := a.NavigationService()

	got := svc.Definition(context.Background(), consumerPath, definitionLoc(t, consumerSource, "getFooBar"))
	require.True(t, got.Found)

	res, classes := a.Resolver.CacheSizes()
	require.Positive(t, res+classes)

	a.onFilesChanged([]string{"/workspace/_meta/App_Domain_Widget.yaml"})

	res, classes = a.Resolver.CacheSizes()
	require.Zero(t, res)
	require.Zero(t, classes)
}

func TestPHPChangeInvalidatesFile(t *testing.T) {
	a, widgetPath, consumerPath := newTestApp(t, false)
	svc := a.NavigationService()

	got := svc.Definition(context.Background(), consumerPath, definitionLoc(t, consumerSource, "getFooBar"))
	require.True(t, got.Found)

	a.onFilesChanged([]string{widgetPath})

	res, _ := a.Resolver.CacheSizes()
	require.Zero(t, res)
}

func TestHealth(t *testing.T) {
	a, _, _ := newTestApp(t, true)

	status := a.Health()
	require.Equal(t, "up", status.Status)
	require.Contains(t, status.Components, "resolver")
	require.Equal(t, "ok", status.Components["history"])
}

func TestStartWatchTwice(t *testing.T) {
	a, _, _ := newTestApp(t, false)

	require.NoError(t, a.StartWatch())
	require.Error(t, a.StartWatch())
	require.NoError(t, a.Close(context.Background()))
}

func TestNewRequiresConfig(t *testing.T) {
	_, err := New(nil)
	require.Error(t, err)
}
