package main

import (
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

// column describes one table column. path marks cells that hold filesystem
// paths, which are shortened for display before rendering.
type column struct {
	title string
	align columnAlignment
	path  bool
}

// pathDisplayWidth caps the rune width of a rendered path cell. Longer
// values keep their trailing segments so the ".clop" name stays visible.
const pathDisplayWidth = 48

// collapsePath shortens a path for table display: the home directory
// collapses to "~" and anything past pathDisplayWidth keeps only the tail
// behind an ellipsis, cut at a separator when one falls inside the window.
func collapsePath(p string) string {
	if p == "" {
		return ""
	}
	if home, err := os.UserHomeDir(); err == nil && home != "" && home != "/" {
		if p == home {
			p = "~"
		} else if rest, ok := strings.CutPrefix(p, home+string(filepath.Separator)); ok {
			p = "~" + string(filepath.Separator) + rest
		}
	}
	if utf8.RuneCountInString(p) <= pathDisplayWidth {
		return p
	}
	runes := []rune(p)
	tail := string(runes[len(runes)-pathDisplayWidth+1:])
	if i := strings.IndexRune(tail, filepath.Separator); i > 0 {
		tail = tail[i:]
	}
	return "…" + tail
}

func renderTable(cols []column, rows [][]string) string {
	if len(cols) == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(cols))
	for i, c := range cols {
		header[i] = c.title
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, len(cols))
		for i, c := range cols {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			if c.path {
				cell = collapsePath(cell)
			}
			r[i] = cell
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, len(cols))
	for i, c := range cols {
		align := text.AlignLeft
		if c.align == alignRight {
			align = text.AlignRight
		}
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}
