package csvio

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"iter"
)

// Record is a value that can be written as one CSV row.
type Record interface {
	// CSVHeader returns the column labels, in the order of CSVRecord.
	CSVHeader() []string
	CSVRecord() []string
}

// FetchFunc loads one page of rows starting at offset.
type FetchFunc[T any] func(ctx context.Context, offset, limit int) ([]T, error)

// Paginate returns a lazy sequence over every row fetch can produce,
// requesting pageSize rows at a time and stopping after the first short
// page. A fetch error is yielded once and ends the sequence. Each range
// over the result starts again from offset zero.
func Paginate[T any](ctx context.Context, pageSize int, fetch FetchFunc[T]) iter.Seq2[T, error] {
	if pageSize <= 0 {
		pageSize = 500
	}
	return func(yield func(T, error) bool) {
		offset := 0
		for {
			if err := ctx.Err(); err != nil {
				var zero T
				yield(zero, err)
				return
			}
			page, err := fetch(ctx, offset, pageSize)
			if err != nil {
				var zero T
				yield(zero, err)
				return
			}
			for _, row := range page {
				if !yield(row, nil) {
					return
				}
			}
			if len(page) < pageSize {
				return
			}
			offset += len(page)
		}
	}
}

// flushEvery bounds how many rows sit in the csv buffer before they are
// pushed to the client.
const flushEvery = 500

// Writer writes records, emitting the header before the first row.
type Writer struct {
	cw     *csv.Writer
	rows   int
	header bool
}

// NewWriter wraps w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{cw: csv.NewWriter(w)}
}

// Rows returns how many data rows were written.
func (w *Writer) Rows() int { return w.rows }

// Write appends rec, preceded by its header when it is the first row.
func (w *Writer) Write(rec Record) error {
	if !w.header {
		if err := w.cw.Write(rec.CSVHeader()); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
		w.header = true
	}
	if err := w.cw.Write(rec.CSVRecord()); err != nil {
		return fmt.Errorf("write row %d: %w", w.rows+1, err)
	}
	w.rows++
	if w.rows%flushEvery == 0 {
		w.cw.Flush()
		return w.cw.Error()
	}
	return nil
}

// Close writes empty's header if no row was written, then flushes.
func (w *Writer) Close(empty Record) error {
	if !w.header && empty != nil {
		if err := w.cw.Write(empty.CSVHeader()); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
		w.header = true
	}
	w.cw.Flush()
	return w.cw.Error()
}

// WriteAll drains seq into w and returns the number of data rows written.
// Sequence and writer errors are returned, never swallowed; rows already
// flushed stay written.
func WriteAll[T Record](w io.Writer, seq iter.Seq2[T, error]) (int, error) {
	var zero T
	return WriteAllWith(w, seq, zero)
}

// WriteAllWith is WriteAll with the record whose header is written when seq
// yields nothing, for rows whose columns depend on their contents.
func WriteAllWith[T Record](w io.Writer, seq iter.Seq2[T, error], empty T) (int, error) {
	cw := NewWriter(w)
	for rec, err := range seq {
		if err != nil {
			cw.Close(nil)
			return cw.Rows(), err
		}
		if err := cw.Write(rec); err != nil {
			return cw.Rows(), err
		}
	}
	return cw.Rows(), cw.Close(empty)
}
