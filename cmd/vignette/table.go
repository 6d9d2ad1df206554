package main

import (
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
)

// tableColumn describes one output column. Numeric columns are right
// aligned so counts and durations line up.
type tableColumn struct {
	header  string
	numeric bool
}

func col(header string) tableColumn    { return tableColumn{header: header} }
func numCol(header string) tableColumn { return tableColumn{header: header, numeric: true} }

type tableBuilder struct {
	columns []tableColumn
	rows    []table.Row
}

func newTable(columns ...tableColumn) *tableBuilder {
	return &tableBuilder{columns: columns}
}

// addRow pads or truncates cells to the column count.
func (b *tableBuilder) addRow(cells ...string) {
	row := make(table.Row, len(b.columns))
	for i := range b.columns {
		if i < len(cells) {
			row[i] = cells[i]
		} else {
			row[i] = ""
		}
	}
	b.rows = append(b.rows, row)
}

func (b *tableBuilder) render() string {
	if len(b.columns) == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(b.columns))
	configs := make([]table.ColumnConfig, len(b.columns))
	for i, column := range b.columns {
		header[i] = column.header
		align := text.AlignLeft
		if column.numeric {
			align = text.AlignRight
		}
		configs[i] = table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		}
	}
	tw.AppendHeader(header)
	tw.SetColumnConfigs(configs)

	for _, row := range b.rows {
		tw.AppendRow(row)
	}
	return tw.Render()
}

func isTerminal(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
