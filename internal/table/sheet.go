package table

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"sessionchart/internal/apperr"
)

// DefaultSheetNames is the ordered list of sheet spellings tried by LoadSheet.
var DefaultSheetNames = []string{"Chart", "Chart 1"}

// LoadSheet opens a workbook and reads the first sheet whose name matches
// one of the candidates. Rows empty in every column are dropped.
func LoadSheet(path string, candidates []string) (*Table, string, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, "", apperr.New(apperr.KindSourceUnavailable, fmt.Sprintf("missing source %s", path), err).With("path", path)
		}
		return nil, "", apperr.New(apperr.KindUnreadableFormat, fmt.Sprintf("stat %s", path), err).With("path", path)
	}
	if len(candidates) == 0 {
		candidates = DefaultSheetNames
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, "", apperr.New(apperr.KindUnreadableFormat, fmt.Sprintf("open workbook %s", path), err).With("path", path)
	}
	defer f.Close()

	sheet, ok := findSheet(f.GetSheetList(), candidates)
	if !ok {
		return nil, "", apperr.Newf(apperr.KindSheetNotFound, "%s: no sheet named %s", path, quoteList(candidates)).
			With("path", path).
			With("sheets", f.GetSheetList())
	}

	formatted, err := f.GetRows(sheet)
	if err != nil {
		return nil, "", apperr.New(apperr.KindUnreadableFormat, fmt.Sprintf("read sheet %q", sheet), err)
	}
	raw, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, "", apperr.New(apperr.KindUnreadableFormat, fmt.Sprintf("read raw sheet %q", sheet), err)
	}

	tbl, err := sheetTable(formatted, raw)
	if err != nil {
		return nil, "", apperr.New(apperr.KindUnreadableFormat, fmt.Sprintf("sheet %q", sheet), err)
	}
	return tbl, sheet, nil
}

func findSheet(sheets, candidates []string) (string, bool) {
	for _, want := range candidates {
		for _, have := range sheets {
			if have == want {
				return have, true
			}
		}
	}
	for _, want := range candidates {
		for _, have := range sheets {
			if strings.EqualFold(strings.TrimSpace(have), strings.TrimSpace(want)) {
				return have, true
			}
		}
	}
	return "", false
}

// sheetTable merges the formatted and raw views of a sheet. A cell becomes
// numeric only when both its stored and displayed values are numbers, which
// keeps time-of-day and date cells as text.
func sheetTable(formatted, raw [][]string) (*Table, error) {
	start := -1
	for i, row := range formatted {
		if !isBlankRow(textRow(row)) {
			start = i
			break
		}
	}
	if start < 0 {
		return nil, errors.New("sheet has no header row")
	}

	header := formatted[start]
	var records [][]Cell
	for i := start + 1; i < len(formatted); i++ {
		row := make([]Cell, len(formatted[i]))
		for j, text := range formatted[i] {
			row[j] = sheetCell(text, cellAt(raw, i, j))
		}
		if isBlankRow(row) {
			continue
		}
		records = append(records, row)
	}

	return newTable(header, records), nil
}

func sheetCell(text, raw string) Cell {
	text = StripQuotes(text)
	if _, err := strconv.ParseFloat(strings.ReplaceAll(text, ",", ""), 64); err != nil {
		return Cell{Text: text}
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return Cell{Text: text}
	}
	return NumberCell(v, text)
}

func cellAt(rows [][]string, i, j int) string {
	if i >= len(rows) || j >= len(rows[i]) {
		return ""
	}
	return rows[i][j]
}

func textRow(row []string) []Cell {
	out := make([]Cell, len(row))
	for i, v := range row {
		out[i] = Cell{Text: v}
	}
	return out
}

func quoteList(items []string) string {
	quoted := make([]string, len(items))
	for i, v := range items {
		quoted[i] = strconv.Quote(v)
	}
	return strings.Join(quoted, " or ")
}
