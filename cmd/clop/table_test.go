package main

import (
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestCollapsePathHomeDirectory(t *testing.T) {
	t.Setenv("HOME", "/home/casey")

	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"/home/casey", "~"},
		{"/home/casey/shots/a.clop.png", "~/shots/a.clop.png"},
		{"/srv/media/b.clop.png", "/srv/media/b.clop.png"},
		{"/home/caseyother/c.png", "/home/caseyother/c.png"},
	}
	for _, tt := range tests {
		if got := collapsePath(tt.in); got != tt.want {
			t.Errorf("collapsePath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCollapsePathTruncatesLongPaths(t *testing.T) {
	t.Setenv("HOME", "/home/casey")

	long := "/var/lib/captures/2026/08/session-archive/really-long-name.clop.17.png"
	got := collapsePath(long)
	if !strings.HasPrefix(got, "…") {
		t.Errorf("truncated path missing ellipsis: %q", got)
	}
	if !strings.HasSuffix(got, string(filepath.Separator)+"really-long-name.clop.17.png") {
		t.Errorf("truncated path lost its file name: %q", got)
	}
	if n := utf8.RuneCountInString(got); n > pathDisplayWidth {
		t.Errorf("truncated path is %d runes, cap is %d: %q", n, pathDisplayWidth, got)
	}
}

func TestRenderTableCollapsesPathColumns(t *testing.T) {
	t.Setenv("HOME", "/home/casey")

	out := renderTable(
		[]column{
			{title: "File"},
			{title: "Output", path: true},
		},
		[][]string{
			{"shot.png", "/home/casey/shots/shot.clop.png"},
		},
	)
	if !strings.Contains(out, "~/shots/shot.clop.png") {
		t.Errorf("path column not collapsed:\n%s", out)
	}
	if strings.Contains(out, "/home/casey") {
		t.Errorf("raw home path leaked into output:\n%s", out)
	}
}

func TestRenderTablePadsShortRows(t *testing.T) {
	out := renderTable(
		[]column{
			{title: "File"},
			{title: "Status"},
			{title: "Details", align: alignRight},
		},
		[][]string{
			{"clip.mp4"},
			{"doc.pdf", "succeeded", "saved 40%"},
		},
	)
	for _, want := range []string{"File", "Status", "Details", "clip.mp4", "saved 40%"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderTableEmptyColumns(t *testing.T) {
	if out := renderTable(nil, [][]string{{"a"}}); out != "" {
		t.Errorf("expected empty render, got %q", out)
	}
}
