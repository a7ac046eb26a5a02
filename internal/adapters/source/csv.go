package source

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/okian/pulse/internal/domain/model"
	"golang.org/x/text/encoding/charmap"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Table is a decoded CSV file: a header and data rows padded to its width.
// An empty cell is reported as nil.
type Table struct {
	Header []string
	Rows   [][]*string
}

// ReadCSV decodes a CSV stream. UTF-8 input (with or without BOM) is used as
// is; anything else is decoded as Windows-1252.
func ReadCSV(r io.Reader) (*Table, error) {
	const op = "source.read_csv"
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	raw = bytes.TrimPrefix(raw, utf8BOM)
	if !utf8.Valid(raw) {
		raw, err = charmap.Windows1252.NewDecoder().Bytes(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: decode: %w", op, err)
		}
	}

	cr := csv.NewReader(bytes.NewReader(raw))
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%s: %v: %w", op, err, ErrInvalidCSV)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s: missing header: %w", op, ErrInvalidCSV)
	}

	header := make([]string, len(records[0]))
	seen := make(map[string]struct{}, len(header))
	for i, h := range records[0] {
		h = strings.TrimSpace(h)
		if h == "" {
			h = fmt.Sprintf("column_%d", i+1)
		}
		key := strings.ToLower(h)
		if _, dup := seen[key]; dup {
			return nil, fmt.Errorf("%s: duplicate column %q: %w", op, h, ErrInvalidCSV)
		}
		seen[key] = struct{}{}
		header[i] = h
	}

	t := &Table{Header: header, Rows: make([][]*string, 0, len(records)-1)}
	for _, rec := range records[1:] {
		row := make([]*string, len(header))
		for i := range header {
			if i < len(rec) && rec[i] != "" {
				v := rec[i]
				row[i] = &v
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// FileSource reads rows straight from a CSV file on every fetch.
type FileSource struct {
	path   string
	mapper rowMapper
}

// NewFileSource reads path using cols.
func NewFileSource(path string, cols Columns) *FileSource {
	return &FileSource{path: path, mapper: rowMapper{cols: cols.withDefaults()}}
}

// FetchAll implements Source.
func (s *FileSource) FetchAll(ctx context.Context) ([]model.RawRow, error) {
	const op = "source.file.fetch_all"
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer f.Close()

	t, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	index := make(map[string]int, len(t.Header))
	for i, h := range t.Header {
		index[strings.ToLower(h)] = i
	}
	out := make([]model.RawRow, 0, len(t.Rows))
	for _, row := range t.Rows {
		out = append(out, s.mapper.row(func(name string) (*string, bool) {
			i, ok := index[strings.ToLower(name)]
			if !ok {
				return nil, false
			}
			return row[i], true
		}))
	}
	return out, nil
}
