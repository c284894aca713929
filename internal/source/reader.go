// Package source reads the replay input file one line at a time.
package source

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const defaultMaxLineBytes = 1024 * 1024

// ErrUnavailable wraps every failure to open or read the input
var ErrUnavailable = errors.New("input unavailable")

// Line is one raw line of the input, numbered from 1
type Line struct {
	Number int
	Text   string
}

// Reader is a sequential line reader over the input file
type Reader struct {
	path    string
	file    io.Closer
	scanner *bufio.Scanner
	line    int
	err     error
}

// Open opens path for sequential reading. A leading UTF-8 byte order mark
// is dropped and lines longer than maxLineBytes fail the read.
func Open(path string, maxLineBytes int) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrUnavailable, path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: stat %s: %v", ErrUnavailable, path, err)
	}
	if info.IsDir() {
		f.Close()
		return nil, fmt.Errorf("%w: %s is a directory", ErrUnavailable, path)
	}

	r := newReader(f, maxLineBytes)
	r.path = path
	r.file = f
	return r, nil
}

// NewReader wraps an already open stream
func NewReader(in io.Reader, maxLineBytes int) *Reader {
	return newReader(in, maxLineBytes)
}

func newReader(in io.Reader, maxLineBytes int) *Reader {
	if maxLineBytes <= 0 {
		maxLineBytes = defaultMaxLineBytes
	}
	decoded := transform.NewReader(in, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	scanner := bufio.NewScanner(decoded)
	initial := 64 * 1024
	if maxLineBytes < initial {
		initial = maxLineBytes
	}
	scanner.Buffer(make([]byte, 0, initial), maxLineBytes)
	return &Reader{scanner: scanner}
}

// Next returns the next line. It returns io.EOF once the input is consumed
// and an ErrUnavailable wrapped error when reading fails.
func (r *Reader) Next() (Line, error) {
	if r.err != nil {
		return Line{}, r.err
	}
	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			r.err = fmt.Errorf("%w: read line %d of %s: %v", ErrUnavailable, r.line+1, r.name(), err)
		} else {
			r.err = io.EOF
		}
		return Line{}, r.err
	}
	r.line++
	return Line{Number: r.line, Text: strings.TrimRight(r.scanner.Text(), "\r")}, nil
}

// Close releases the underlying file
func (r *Reader) Close() error {
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}

func (r *Reader) name() string {
	if r.path == "" {
		return "input"
	}
	return r.path
}
