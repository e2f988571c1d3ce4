package main

import (
	"strings"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/frontier/grid"
)

func TestRender(t *testing.T) {
	g, err := grid.NewCells(6, 5, 1)
	if err != nil {
		t.Fatalf("NewCells: %v", err)
	}
	var sb strings.Builder
	render(&sb, g, []r2.Vec{{X: 2.5, Y: 2.5}})

	lines := strings.Split(strings.TrimSpace(sb.String()), "\n")
	want := []string{
		"######",
		"######",
		"##R.##",
		"######",
		"######",
	}
	if len(lines) != len(want) {
		t.Fatalf("got %d lines, want %d:\n%s", len(lines), len(want), sb.String())
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}
