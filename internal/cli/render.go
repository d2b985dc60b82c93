package cli

import (
	"fmt"
	"io"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/mattn/go-runewidth"

	"github.com/Project-Sylos/Arbor/internal/tree"
)

// maxTitleWidth caps the title column of text output
const maxTitleWidth = 60

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return nil
}

// outlineLine is one row of the text outline
type outlineLine struct {
	label string
	id    int
	extra string
}

// writeOutline prints rows with the labels padded to a common display width,
// so wide characters in titles keep the id column aligned
func writeOutline(w io.Writer, lines []outlineLine) error {
	width := 0
	for i := range lines {
		lines[i].label = runewidth.Truncate(lines[i].label, maxTitleWidth, "…")
		if lw := runewidth.StringWidth(lines[i].label); lw > width {
			width = lw
		}
	}
	for _, l := range lines {
		row := runewidth.FillRight(l.label, width) + "  #" + fmt.Sprint(l.id)
		if l.extra != "" {
			row += "  " + l.extra
		}
		if _, err := fmt.Fprintln(w, row); err != nil {
			return err
		}
	}
	return nil
}

// renderFlat prints a flat tree as an indented outline
func renderFlat(w io.Writer, nodes []*tree.FlatNode) error {
	lines := make([]outlineLine, 0, len(nodes))
	for _, n := range nodes {
		marker := "•"
		if n.Expandable {
			marker = "▾"
		}
		lines = append(lines, outlineLine{
			label: strings.Repeat("  ", n.Level) + marker + " " + n.Title(),
			id:    n.ID,
			extra: fmt.Sprintf("pos=%d", n.Position),
		})
	}
	return writeOutline(w, lines)
}

// renderTree prints a nested tree with box-drawing branches
func renderTree(w io.Writer, nodes []*tree.Node) error {
	var lines []outlineLine
	var walk func(nodes []*tree.Node, prefix string)
	walk = func(nodes []*tree.Node, prefix string) {
		for i, n := range nodes {
			branch, next := "├─ ", "│  "
			if i == len(nodes)-1 {
				branch, next = "└─ ", "   "
			}
			lines = append(lines, outlineLine{label: prefix + branch + n.Name, id: n.ID})
			walk(n.Children, prefix+next)
		}
	}
	walk(nodes, "")
	return writeOutline(w, lines)
}

// renderAnnotations prints level and tree_weight per record
func renderAnnotations(w io.Writer, annotations []tree.Annotation, titles map[int]string) error {
	lines := make([]outlineLine, 0, len(annotations))
	for _, a := range annotations {
		lines = append(lines, outlineLine{
			label: strings.Repeat("  ", a.Level) + titles[a.RecordID],
			id:    a.RecordID,
			extra: fmt.Sprintf("level=%d tree_weight=%d", a.Level, a.TreeWeight),
		})
	}
	return writeOutline(w, lines)
}
