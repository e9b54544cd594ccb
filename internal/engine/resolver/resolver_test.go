package resolver

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"phpnav/internal/engine/pathres"
	"phpnav/internal/engine/scanner"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func locOf(t *testing.T, src, needle string) scanner.Location {
	t.Helper()
	i := strings.Index(src, needle)
	if i < 0 {
		t.Fatalf("needle %q not in source", needle)
	}
	return scanner.OffsetToLocation(src, i)
}

func newWorkspace(t *testing.T) (string, *Resolver) {
	t.Helper()
	root := t.TempDir()
	r := New(Options{Paths: pathres.Options{Roots: []string{root}}})
	return root, r
}

const widgetClass = `<?php

namespace App\Domain;

/**
 * @naming lowerCamel
 */
class Widget
{
    private $code;
    private $internalCode;
    private $fooBar;
}
`

func TestResolveAccessorLowerCamel(t *testing.T) {
	root, r := newWorkspace(t)
	widgetPath := filepath.Join(root, "src", "App", "Domain", "Widget.php")
	writeFile(t, widgetPath, widgetClass)

	consumer := `<?php
namespace App;

use App\Domain\Widget;

$widget = new Widget();
$widget->getFooBar();
$widget->setFooBar(1);
`
	consumerPath := filepath.Join(root, "src", "App", "consumer.php")
	writeFile(t, consumerPath, consumer)

	for _, symbol := range []string{"getFooBar", "setFooBar"} {
		got := r.ResolveAt(context.Background(), consumerPath, locOf(t, consumer, symbol))
		if !got.Found {
			t.Fatalf("%s: expected a match", symbol)
		}
		if got.Path != widgetPath {
			t.Errorf("%s resolved into %s, want Widget.php", symbol, got.Path)
		}
		wantLoc := scanner.OffsetToLocation(widgetClass, strings.Index(widgetClass, "$fooBar"))
		if got.Line != wantLoc.Line {
			t.Errorf("%s resolved to line %d, want %d", symbol, got.Line, wantLoc.Line)
		}
	}
}

func TestResolveUpperCamelPrefersCapitalizedCandidate(t *testing.T) {
	root, r := newWorkspace(t)
	class := `<?php
namespace App;

/** @naming upperCamel */
class Report
{
    private $fooBar;
    private $FooBar;
}
`
	classPath := filepath.Join(root, "src", "App", "Report.php")
	writeFile(t, classPath, class)

	consumer := `<?php
namespace App;
$report = new Report();
$report->getFooBar();
`
	consumerPath := filepath.Join(root, "src", "App", "run.php")
	writeFile(t, consumerPath, consumer)

	got := r.ResolveAt(context.Background(), consumerPath, locOf(t, consumer, "getFooBar"))
	if !got.Found {
		t.Fatal("expected a match")
	}
	want := scanner.OffsetToLocation(class, strings.Index(class, "$FooBar"))
	if got.Line != want.Line {
		t.Errorf("resolved line %d, want %d ($FooBar before $fooBar)", got.Line, want.Line)
	}
}

func TestResolveThroughProxySidecar(t *testing.T) {
	root, r := newWorkspace(t)
	writeFile(t, filepath.Join(root, "src", "App", "Domain", "Widget.php"), widgetClass)

	proxySrc := `<?php

class Gen_App_Domain_Widget_Proxy
{
    public function getCode()
    {
    }
}
`
	proxyPath := filepath.Join(root, "gen", "Gen_App_Domain_Widget_Proxy.php")
	writeFile(t, proxyPath, proxySrc)
	writeFile(t, filepath.Join(root, "gen", "_meta", "App_Domain_Widget.yaml"),
		"methods:\n  - methodName: getCode\n    fieldName: internalCode\n")

	got := r.ResolveAt(context.Background(), proxyPath, locOf(t, proxySrc, "getCode"))
	if !got.Found {
		t.Fatal("expected a match")
	}
	// The sidecar mapping must beat the convention-derived candidate
	// "code", which also exists in Widget.
	want := scanner.OffsetToLocation(widgetClass, strings.Index(widgetClass, "$internalCode"))
	if got.Line != want.Line {
		t.Errorf("resolved line %d, want %d ($internalCode)", got.Line, want.Line)
	}
}

func TestResolveThroughProxyWithoutSidecar(t *testing.T) {
	root, r := newWorkspace(t)
	writeFile(t, filepath.Join(root, "src", "App", "Domain", "Widget.php"), widgetClass)

	proxySrc := `<?php
class Gen_App_Domain_Widget_Proxy
{
    public function getCode()
    {
    }
}
`
	proxyPath := filepath.Join(root, "gen", "Gen_App_Domain_Widget_Proxy.php")
	writeFile(t, proxyPath, proxySrc)

	got := r.ResolveAt(context.Background(), proxyPath, locOf(t, proxySrc, "getCode"))
	if !got.Found {
		t.Fatal("expected a match")
	}
	want := scanner.OffsetToLocation(widgetClass, strings.Index(widgetClass, "$code"))
	if got.Line != want.Line {
		t.Errorf("resolved line %d, want %d ($code via convention)", got.Line, want.Line)
	}
}

func TestResolveInheritedProperty(t *testing.T) {
	root, r := newWorkspace(t)
	parent := `<?php
namespace App\Domain;

abstract class BaseItem
{
    protected $id;
}
`
	writeFile(t, filepath.Join(root, "src", "App", "Domain", "BaseItem.php"), parent)
	writeFile(t, filepath.Join(root, "src", "App", "Domain", "Child.php"), `<?php
namespace App\Domain;

class Child extends BaseItem
{
    private $own;
}
`)

	consumer := `<?php
namespace App;

use App\Domain\Child;

$child = new Child();
$child->getId();
`
	consumerPath := filepath.Join(root, "src", "App", "use_child.php")
	writeFile(t, consumerPath, consumer)

	got := r.ResolveAt(context.Background(), consumerPath, locOf(t, consumer, "getId"))
	if !got.Found {
		t.Fatal("expected a match in the parent class")
	}
	if !strings.HasSuffix(got.Path, "BaseItem.php") {
		t.Errorf("resolved into %s, want BaseItem.php", got.Path)
	}
}

func TestChainedCallsResolveToSameClass(t *testing.T) {
	root, r := newWorkspace(t)
	writeFile(t, filepath.Join(root, "src", "App", "Chain.php"), `<?php
namespace App;

class Chain
{
    private $a;
    private $b;
}
`)
	consumer := `<?php
namespace App;
(new Chain())->setA(1)->setB(2);
`
	consumerPath := filepath.Join(root, "src", "App", "chained.php")
	writeFile(t, consumerPath, consumer)

	gotA := r.ResolveAt(context.Background(), consumerPath, locOf(t, consumer, "setA"))
	gotB := r.ResolveAt(context.Background(), consumerPath, locOf(t, consumer, "setB"))
	if !gotA.Found || !gotB.Found {
		t.Fatalf("setA found=%v setB found=%v", gotA.Found, gotB.Found)
	}
	if gotA.Path != gotB.Path {
		t.Errorf("setA resolved in %s but setB in %s", gotA.Path, gotB.Path)
	}
}

func TestNonAccessorIsUnknown(t *testing.T) {
	src := `<?php
$widget->calculate();
`
	ref := Classify(src, "x.php", strings.Index(src, "calculate"))
	if ref.Kind != KindUnknown {
		t.Errorf("Kind = %v, want Unknown", ref.Kind)
	}

	_, r := newWorkspace(t)
	if got := r.ResolveReference(context.Background(), src, ref); got.Found {
		t.Error("unknown reference must not resolve")
	}
}

func TestIdempotentAndCached(t *testing.T) {
	root, r := newWorkspace(t)
	widgetPath := filepath.Join(root, "src", "App", "Domain", "Widget.php")
	writeFile(t, widgetPath, widgetClass)

	consumer := `<?php
namespace App;
$widget = new \App\Domain\Widget();
$widget->getFooBar();
`
	consumerPath := filepath.Join(root, "src", "App", "c.php")
	writeFile(t, consumerPath, consumer)

	ctx := context.Background()
	loc := locOf(t, consumer, "getFooBar")
	first := r.ResolveAt(ctx, consumerPath, loc)
	if !first.Found {
		t.Fatal("expected a match")
	}

	// Removing the class file proves the second call is served from the
	// cache without repeating filesystem scans.
	if err := os.Remove(widgetPath); err != nil {
		t.Fatal(err)
	}
	second := r.ResolveAt(ctx, consumerPath, loc)
	if second != first {
		t.Errorf("second resolution %+v differs from first %+v", second, first)
	}
}

func TestInvalidatePath(t *testing.T) {
	root, r := newWorkspace(t)
	widgetPath := filepath.Join(root, "src", "App", "Domain", "Widget.php")
	writeFile(t, widgetPath, widgetClass)

	consumer := `<?php
$w = new \App\Domain\Widget();
$w->getFooBar();
`
	consumerPath := filepath.Join(root, "src", "App", "c.php")
	writeFile(t, consumerPath, consumer)

	ctx := context.Background()
	loc := locOf(t, consumer, "getFooBar")
	if got := r.ResolveAt(ctx, consumerPath, loc); !got.Found {
		t.Fatal("expected a match")
	}

	res, cls := r.CacheSizes()
	if res == 0 || cls == 0 {
		t.Fatalf("expected populated caches, got %d/%d", res, cls)
	}

	// Invalidate the declaring file: both the resolution pointing into it
	// and its class-file entry must drop.
	if n := r.InvalidatePath(widgetPath); n == 0 {
		t.Error("expected invalidations")
	}
	res, cls = r.CacheSizes()
	if res != 0 || cls != 0 {
		t.Errorf("caches not emptied: %d/%d", res, cls)
	}
}

func TestAbsentWhenTypeUnknown(t *testing.T) {
	root, r := newWorkspace(t)
	consumer := `<?php
$mystery->getFooBar();
`
	consumerPath := filepath.Join(root, "src", "m.php")
	writeFile(t, consumerPath, consumer)

	if got := r.ResolveAt(context.Background(), consumerPath, locOf(t, consumer, "getFooBar")); got.Found {
		t.Errorf("expected absent, got %+v", got)
	}
}

func TestResolvePropertyAccess(t *testing.T) {
	root, r := newWorkspace(t)
	widgetPath := filepath.Join(root, "src", "App", "Domain", "Widget.php")
	writeFile(t, widgetPath, widgetClass)

	consumer := `<?php
/** @var \App\Domain\Widget $w */
$w->fooBar;
`
	consumerPath := filepath.Join(root, "src", "p.php")
	writeFile(t, consumerPath, consumer)

	got := r.ResolveAt(context.Background(), consumerPath, locOf(t, consumer, "fooBar;"))
	if !got.Found || got.Path != widgetPath {
		t.Errorf("property access resolved to %+v", got)
	}
}

func TestReferencesAt(t *testing.T) {
	root, r := newWorkspace(t)
	widgetPath := filepath.Join(root, "src", "App", "Domain", "Widget.php")
	writeFile(t, widgetPath, widgetClass)

	consumer := `<?php
$w = new \App\Domain\Widget();
$w->getFooBar();
$w->setFooBar(2);
`
	consumerPath := filepath.Join(root, "src", "uses.php")
	writeFile(t, consumerPath, consumer)

	refs := r.ReferencesAt(context.Background(), consumerPath, locOf(t, consumer, "getFooBar"))
	if len(refs) < 3 {
		t.Fatalf("expected at least declaration + two accessor calls, got %d: %+v", len(refs), refs)
	}
	var sawDecl, sawSet bool
	for _, ref := range refs {
		if ref.Path == widgetPath {
			sawDecl = true
		}
		if ref.Path == consumerPath && ref.Line == 4 {
			sawSet = true
		}
	}
	if !sawDecl || !sawSet {
		t.Errorf("missing declaration (%v) or setter call (%v) in %+v", sawDecl, sawSet, refs)
	}
}

func TestCompletionsAt(t *testing.T) {
	root, r := newWorkspace(t)
	writeFile(t, filepath.Join(root, "src", "App", "Domain", "Widget.php"), widgetClass)

	consumer := `<?php
$w = new \App\Domain\Widget();
$w->
`
	consumerPath := filepath.Join(root, "src", "complete.php")
	writeFile(t, consumerPath, consumer)

	loc := scanner.OffsetToLocation(consumer, strings.LastIndex(consumer, "->")+2)
	items := r.CompletionsAt(context.Background(), consumerPath, loc)
	if len(items) == 0 {
		t.Fatal("expected completions")
	}
	labels := make(map[string]bool, len(items))
	for _, it := range items {
		labels[it.Label] = true
	}
	for _, want := range []string{"fooBar", "getFooBar", "setFooBar", "internalCode"} {
		if !labels[want] {
			t.Errorf("missing completion %q in %v", want, items)
		}
	}
}
