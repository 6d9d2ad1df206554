package main

import (
	"strings"
	"testing"
)

func TestTableRenderAlignsNumericColumns(t *testing.T) {
	tbl := newTable(col("Stage"), numCol("Count"))
	tbl.addRow("scenes", "5")
	tbl.addRow("images", "123")

	output := tbl.render()
	if !strings.Contains(output, "Stage") || !strings.Contains(output, "Count") {
		t.Fatalf("missing headers in output:\n%s", output)
	}
	if !strings.Contains(output, "    5 ") {
		t.Fatalf("numeric cell not right aligned:\n%s", output)
	}
	if !strings.Contains(output, "scenes ") {
		t.Fatalf("text cell not left aligned:\n%s", output)
	}
}

func TestTableAddRowPadsShortRows(t *testing.T) {
	tbl := newTable(col("A"), col("B"), col("C"))
	tbl.addRow("only")

	output := tbl.render()
	if !strings.Contains(output, "only") {
		t.Fatalf("row cell missing:\n%s", output)
	}
	if lines := strings.Split(output, "\n"); len(lines) < 4 {
		t.Fatalf("expected framed table, got:\n%s", output)
	}
}

func TestTableRenderEmpty(t *testing.T) {
	if got := newTable().render(); got != "" {
		t.Fatalf("render() = %q, want empty", got)
	}
}
