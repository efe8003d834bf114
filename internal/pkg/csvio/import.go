package csvio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrMissingColumn is returned when the header lacks a required column.
var ErrMissingColumn = errors.New("missing required column")

// ErrEmptyFile is returned when the input has no header row.
var ErrEmptyFile = errors.New("the file is empty")

// RowError describes one rejected row. Line is 1-based and counts the header.
type RowError struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
}

func (e RowError) String() string { return fmt.Sprintf("line %d: %s", e.Line, e.Message) }

// Result summarizes an import.
type Result struct {
	TotalRecords  int        `json:"total_records"`
	TotalImported int        `json:"total_imported"`
	Errors        []RowError `json:"errors,omitempty"`
}

// Failed returns how many rows were rejected.
func (r Result) Failed() int { return r.TotalRecords - r.TotalImported }

// Messages returns the row errors formatted for display.
func (r Result) Messages() []string {
	out := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		out = append(out, e.String())
	}
	return out
}

// Row maps a normalized header name to the cell value.
type Row map[string]string

// Get returns the value for the first of names that is present.
func (r Row) Get(names ...string) string {
	for _, n := range names {
		if v, ok := r[n]; ok {
			return v
		}
	}
	return ""
}

// Messager is implemented by errors that carry a short user-facing message,
// such as *domain.ValidationError.
type Messager interface {
	First() string
}

// Reader reads rows keyed by a normalized header.
type Reader struct {
	cr     *csv.Reader
	header []string
	line   int
}

// NewReader reads and normalizes the header from src. aliases rewrite
// alternative header names to canonical ones before required is checked.
func NewReader(src io.Reader, required []string, aliases map[string]string) (*Reader, error) {
	cr := csv.NewReader(src)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = false

	header, err := cr.Read()
	if err == io.EOF {
		return nil, ErrEmptyFile
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i, h := range header {
		h = NormalizeHeader(h)
		if canonical, ok := aliases[h]; ok {
			h = canonical
		}
		header[i] = h
	}
	for _, col := range required {
		found := false
		for _, h := range header {
			if h == col {
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("%w %q", ErrMissingColumn, col)
		}
	}
	return &Reader{cr: cr, header: header, line: 1}, nil
}

// Header returns the normalized header.
func (r *Reader) Header() []string { return r.header }

// NormalizeHeader lower-cases and trims a header cell, dropping a UTF-8 BOM.
func NormalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	return strings.ToLower(strings.TrimSpace(h))
}

// Sanitize trims a cell and strips NUL bytes.
func Sanitize(v string) string {
	return strings.TrimSpace(strings.ReplaceAll(v, "\x00", ""))
}

// Each calls fn for every non-blank row. A parse error or an error from fn
// is recorded against the row and the import continues. Only a failure of
// the underlying reader is returned.
func (r *Reader) Each(fn func(row Row) error) (Result, error) {
	var res Result
	for {
		record, err := r.cr.Read()
		if err == io.EOF {
			return res, nil
		}
		if err != nil {
			var perr *csv.ParseError
			if !errors.As(err, &perr) {
				return res, fmt.Errorf("read after line %d: %w", r.line, err)
			}
			res.TotalRecords++
			res.Errors = append(res.Errors, RowError{Line: perr.Line, Message: perr.Err.Error()})
			continue
		}
		r.line, _ = r.cr.FieldPos(0)

		row := make(Row, len(r.header))
		blank := true
		for i, h := range r.header {
			if i >= len(record) {
				break
			}
			v := Sanitize(record[i])
			if v != "" {
				blank = false
			}
			row[h] = v
		}
		if blank {
			continue
		}

		res.TotalRecords++
		if err := fn(row); err != nil {
			msg := err.Error()
			var m Messager
			if errors.As(err, &m) && m.First() != "" {
				msg = m.First()
			}
			res.Errors = append(res.Errors, RowError{Line: r.line, Message: msg})
			continue
		}
		res.TotalImported++
	}
}
