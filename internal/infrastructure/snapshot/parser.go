// Package snapshot loads sell-out data from a directory of CSV exports so
// reports can be run without a database.
package snapshot

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

var (
	// ErrEmptyFile is returned when a CSV file has no content
	ErrEmptyFile = errors.New("CSV file is empty")

	// ErrInvalidEncoding is returned when a CSV file is not UTF-8
	ErrInvalidEncoding = errors.New("invalid file encoding, expected UTF-8")

	// ErrMissingHeader is returned when a CSV file has no header row
	ErrMissingHeader = errors.New("CSV file missing header row")
)

// MissingColumnsError lists required headers absent from a file
type MissingColumnsError struct {
	File    string
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("%s: missing columns %s", e.File, strings.Join(e.Columns, ", "))
}

// Parser reads a headed CSV file. Header names are matched case-insensitively.
type Parser struct {
	headerMap  map[string]int
	headers    []string
	currentRow int
	reader     *csv.Reader
}

// NewParser strips a UTF-8 BOM, checks the encoding and reads the header row
func NewParser(r io.Reader) (*Parser, error) {
	buf := bufio.NewReader(r)

	bom, err := buf.Peek(3)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if len(bom) >= 3 && bom[0] == 0xEF && bom[1] == 0xBB && bom[2] == 0xBF {
		_, _ = buf.Discard(3)
	}

	const checkSize = 4096
	head, err := buf.Peek(checkSize)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to read file for encoding validation: %w", err)
	}
	if len(head) == 0 {
		return nil, ErrEmptyFile
	}
	if len(head) == checkSize {
		head = trimPartialRune(head)
	}
	if !utf8.Valid(head) {
		return nil, ErrInvalidEncoding
	}

	p := &Parser{headerMap: make(map[string]int), reader: csv.NewReader(buf)}
	p.reader.LazyQuotes = true
	p.reader.TrimLeadingSpace = true
	p.reader.FieldsPerRecord = -1

	record, err := p.reader.Read()
	if err == io.EOF {
		return nil, ErrMissingHeader
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	p.headers = make([]string, len(record))
	for i, h := range record {
		name := strings.ToLower(strings.TrimSpace(h))
		p.headers[i] = name
		p.headerMap[name] = i
	}
	p.currentRow = 1
	return p, nil
}

// trimPartialRune drops a multi-byte rune cut off at the end of a peek window
func trimPartialRune(b []byte) []byte {
	for i := 0; i < utf8.UTFMax && len(b) > 0; i++ {
		r, size := utf8.DecodeLastRune(b)
		if r != utf8.RuneError || size > 1 {
			return b
		}
		b = b[:len(b)-1]
	}
	return b
}

// Headers returns the normalized header names
func (p *Parser) Headers() []string {
	return p.headers
}

// Missing returns the required headers that are absent
func (p *Parser) Missing(required ...string) []string {
	var missing []string
	for _, h := range required {
		if _, ok := p.headerMap[h]; !ok {
			missing = append(missing, h)
		}
	}
	return missing
}

// Row is a parsed CSV line keyed by header
type Row struct {
	LineNumber int
	data       map[string]string
}

// Get returns the trimmed value of a column, or "" when absent
func (r *Row) Get(header string) string {
	return r.data[header]
}

func (r *Row) empty() bool {
	for _, v := range r.data {
		if v != "" {
			return false
		}
	}
	return true
}

// ReadRow reads the next row. It returns io.EOF after the last row.
func (p *Parser) ReadRow() (*Row, error) {
	record, err := p.reader.Read()
	if err == io.EOF {
		return nil, io.EOF
	}
	p.currentRow++
	if err != nil {
		return nil, fmt.Errorf("error reading row %d: %w", p.currentRow, err)
	}

	row := &Row{LineNumber: p.currentRow, data: make(map[string]string, len(p.headers))}
	for i, header := range p.headers {
		if i < len(record) {
			row.data[header] = strings.TrimSpace(record[i])
		}
	}
	return row, nil
}

// ReadAll reads the remaining rows, skipping blank lines
func (p *Parser) ReadAll() ([]*Row, error) {
	var rows []*Row
	for {
		row, err := p.ReadRow()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return rows, err
		}
		if row.empty() {
			continue
		}
		rows = append(rows, row)
	}
}
