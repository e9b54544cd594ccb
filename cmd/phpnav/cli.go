package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"phpnav/internal/core/app"
	"phpnav/internal/engine/resolver"
	"phpnav/internal/engine/scanner"
)

// parsePosition splits "file:line:column". The file part may itself
// contain colons on Windows-style paths, so split from the right.
func parsePosition(arg string) (string, scanner.Location, error) {
	last := strings.LastIndex(arg, ":")
	if last < 0 {
		return "", scanner.Location{}, fmt.Errorf("expected file:line:column, got %q", arg)
	}
	prev := strings.LastIndex(arg[:last], ":")
	if prev < 0 {
		return "", scanner.Location{}, fmt.Errorf("expected file:line:column, got %q", arg)
	}

	file := arg[:prev]
	line, err := strconv.Atoi(arg[prev+1 : last])
	if err != nil {
		return "", scanner.Location{}, fmt.Errorf("invalid line in %q: %w", arg, err)
	}
	col, err := strconv.Atoi(arg[last+1:])
	if err != nil {
		return "", scanner.Location{}, fmt.Errorf("invalid column in %q: %w", arg, err)
	}
	if file == "" || line < 1 || col < 1 {
		return "", scanner.Location{}, fmt.Errorf("file must be non-empty and line/column 1-based in %q", arg)
	}
	return file, scanner.Location{Line: line, Column: col}, nil
}

func runResolve(ctx context.Context, a *app.App, arg string, asJSON bool) int {
	file, loc, err := parsePosition(arg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return 2
	}

	result := a.NavigationService().Definition(ctx, file, loc)
	if asJSON {
		printJSON(result)
		if !result.Found {
			return 1
		}
		return 0
	}
	if !result.Found {
		fmt.Println("no definition found")
		return 1
	}
	fmt.Println(formatLocation(result))
	return 0
}

func runReferences(ctx context.Context, a *app.App, arg string, asJSON bool) int {
	file, loc, err := parsePosition(arg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return 2
	}

	refs := a.NavigationService().References(ctx, file, loc)
	if asJSON {
		printJSON(map[string]any{"references": refs})
		return 0
	}
	if len(refs) == 0 {
		fmt.Println("no references found")
		return 1
	}
	for _, ref := range refs {
		fmt.Println(formatLocation(ref))
	}
	return 0
}

func runCompletions(ctx context.Context, a *app.App, arg string, asJSON bool) int {
	file, loc, err := parsePosition(arg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return 2
	}

	items := a.NavigationService().Completions(ctx, file, loc)
	if asJSON {
		printJSON(map[string]any{"items": items})
		return 0
	}
	for _, item := range items {
		fmt.Printf("%s\t%s\n", item.Label, item.Detail)
	}
	return 0
}

func formatLocation(loc resolver.ResolvedLocation) string {
	return fmt.Sprintf("%s:%d:%d", loc.Path, loc.Line, loc.Column)
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
