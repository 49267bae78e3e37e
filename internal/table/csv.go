package table

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/ianaindex"

	"sessionchart/internal/apperr"
)

// DefaultEncodings is tried in order when no encodings are configured.
var DefaultEncodings = []string{"utf-8", "latin1"}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// LoadCSV reads a delimited text file, trying each encoding in turn until
// one decodes and parses cleanly.
func LoadCSV(path string, encodings []string) (*Table, error) {
	raw, err := readSource(path)
	if err != nil {
		return nil, err
	}
	if len(encodings) == 0 {
		encodings = DefaultEncodings
	}

	var attempts []string
	for _, name := range encodings {
		text, err := decode(raw, name)
		if err != nil {
			attempts = append(attempts, fmt.Sprintf("%s: %v", name, err))
			continue
		}
		tbl, err := parseCSV(text)
		if err != nil {
			attempts = append(attempts, fmt.Sprintf("%s: %v", name, err))
			continue
		}
		return tbl, nil
	}

	return nil, apperr.Newf(apperr.KindUnreadableFormat, "%s: no encoding could parse the file (%s)", path, strings.Join(attempts, "; ")).
		With("path", path)
}

func readSource(path string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperr.New(apperr.KindSourceUnavailable, fmt.Sprintf("missing source %s", path), err).With("path", path)
		}
		return nil, apperr.New(apperr.KindUnreadableFormat, fmt.Sprintf("read %s", path), err).With("path", path)
	}
	return raw, nil
}

func decode(raw []byte, name string) ([]byte, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "utf-8", "utf8":
		raw = bytes.TrimPrefix(raw, utf8BOM)
		if !utf8.Valid(raw) {
			return nil, errors.New("invalid utf-8 byte sequence")
		}
		return raw, nil
	case "latin1", "latin-1", "iso-8859-1":
		return decodeWith(charmap.ISO8859_1, raw)
	case "cp1252", "windows-1252":
		return decodeWith(charmap.Windows1252, raw)
	}

	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil || enc == nil {
		return nil, fmt.Errorf("unknown encoding %q", name)
	}
	return decodeWith(enc, raw)
}

func decodeWith(enc encoding.Encoding, raw []byte) ([]byte, error) {
	out, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func parseCSV(text []byte) (*Table, error) {
	reader := csv.NewReader(bytes.NewReader(text))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty file")
		}
		return nil, err
	}

	var records [][]Cell
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		row := make([]Cell, len(rec))
		for i, v := range rec {
			row[i] = TextCell(v)
		}
		if isBlankRow(row) {
			continue
		}
		records = append(records, row)
	}

	return newTable(header, records), nil
}
