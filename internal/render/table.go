package render

import "strings"

// tables scans the text line by line and folds every run of lines that both
// start and end with '|' into a single <table> element placed where the run
// began. Separator rows are dropped, the first remaining row becomes the
// header. All lines come out trimmed.
func tables(html string) string {
	lines := strings.Split(html, "\n")
	out := make([]string, 0, len(lines))

	var (
		tbl      strings.Builder
		inTable  bool
		firstRow bool
	)
	flush := func() {
		if !inTable {
			return
		}
		tbl.WriteString("</table>")
		out = append(out, tbl.String())
		tbl.Reset()
		inTable = false
	}

	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		if !isTableLine(line) {
			flush()
			out = append(out, line)
			continue
		}
		if !inTable {
			inTable = true
			firstRow = true
			tbl.WriteString("<table>")
		}
		if separatorRe.MatchString(line) {
			continue
		}
		tag := "td"
		if firstRow {
			tag = "th"
		}
		tbl.WriteString("<tr>")
		for _, cell := range cells(line) {
			tbl.WriteString("<" + tag + ">" + cell + "</" + tag + ">")
		}
		tbl.WriteString("</tr>")
		firstRow = false
	}
	flush()

	return strings.Join(out, "\n")
}

func isTableLine(line string) bool {
	return strings.HasPrefix(line, "|") && strings.HasSuffix(line, "|")
}

// cells splits a row on '|' and drops fragments that are blank, which removes
// the empty pieces outside the outer pipes. Escaped pipes are not supported.
func cells(line string) []string {
	parts := strings.Split(line, "|")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if c := strings.TrimSpace(p); c != "" {
			out = append(out, c)
		}
	}
	return out
}
