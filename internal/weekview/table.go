package weekview

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/stundenplan/internal/schedule"
)

// TableOptions controls RenderTable.
type TableOptions struct {
	// Width truncates lines when > 0.
	Width int
	// Today marks the column of that day index; -1 disables marking.
	Today int
	// Legend appends the subject names used in the week.
	Legend bool
}

// RenderTable writes the week grid as an aligned text table.
func RenderTable(w io.Writer, tt schedule.Timetable, opts TableOptions) error {
	headers := []string{"Zeit"}
	for day := 0; day < schedule.SchoolDays; day++ {
		h := dayShort[day]
		if day == opts.Today {
			h = "*" + h
		}
		headers = append(headers, h)
	}
	rows := make([][]string, 0, len(tt.Slots))
	for i, slot := range tt.Slots {
		row := []string{slot.Start.String() + "-" + slot.End.String()}
		for day := 0; day < schedule.SchoolDays; day++ {
			code := tt.Week.Code(day, i)
			if code == "" {
				code = "-"
			}
			row = append(row, code)
		}
		rows = append(rows, row)
	}

	lines := formatTable(headers, rows)
	if opts.Legend {
		if legend := legendLines(tt); len(legend) > 0 {
			lines = append(lines, "")
			lines = append(lines, legend...)
		}
	}
	for _, line := range lines {
		if opts.Width > 0 && runewidth.StringWidth(line) > opts.Width {
			line = runewidth.Truncate(line, opts.Width, "…")
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return fmt.Errorf("failed to write table: %w", err)
		}
	}
	return nil
}

func legendLines(tt schedule.Timetable) []string {
	seen := map[string]struct{}{}
	for _, row := range tt.Week {
		for _, code := range row {
			if code != "" {
				seen[code] = struct{}{}
			}
		}
	}
	codes := make([]string, 0, len(seen))
	for code := range seen {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	rows := make([][]string, 0, len(codes))
	for _, code := range codes {
		rows = append(rows, []string{code, tt.Names.Label(code)})
	}
	return formatTable(nil, rows)
}

func formatTable(headers []string, rows [][]string) []string {
	colCount := len(headers)
	for _, row := range rows {
		if len(row) > colCount {
			colCount = len(row)
		}
	}
	if colCount == 0 {
		return nil
	}

	widths := make([]int, colCount)
	for i, header := range headers {
		widths[i] = runewidth.StringWidth(header)
	}
	for _, row := range rows {
		for i, cell := range row {
			if w := runewidth.StringWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	lines := make([]string, 0, len(rows)+1)
	if len(headers) > 0 {
		lines = append(lines, formatRow(headers, widths))
	}
	for _, row := range rows {
		lines = append(lines, formatRow(row, widths))
	}
	return lines
}

func formatRow(row []string, widths []int) string {
	var b strings.Builder
	for i, width := range widths {
		cell := ""
		if i < len(row) {
			cell = row[i]
		}
		if i > 0 {
			b.WriteString("  ")
		}
		if i == len(widths)-1 {
			b.WriteString(cell)
			continue
		}
		b.WriteString(runewidth.FillRight(cell, width))
	}
	return strings.TrimRight(b.String(), " ")
}
