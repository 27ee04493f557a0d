package csvparser

import (
	"bufio"
	"io"
	"strings"
)

const (
	initialLineBuffer = 64 * 1024
	maxLineLength     = 16 * 1024 * 1024
)

// utf8BOM is the byte order mark some editors put before the header.
const utf8BOM = "\uFEFF"

// lineReader iterates over the physical lines of a source.
//
// USAGE:
//
//	lines := newLineReader(r)
//	for lines.Next() {
//	    text := lines.Text()
//	    // ...
//	}
//	if err := lines.Err(); err != nil {
//	    // handle error
//	}
type lineReader struct {
	scanner *bufio.Scanner
	line    int
	text    string
}

func newLineReader(r io.Reader) *lineReader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, initialLineBuffer), maxLineLength)
	return &lineReader{scanner: scanner}
}

// Next advances to the next line. Returns false at the end of the input or
// on a read error.
func (l *lineReader) Next() bool {
	if !l.scanner.Scan() {
		return false
	}
	l.line++

	text := l.scanner.Text()
	if l.line == 1 {
		text = strings.TrimPrefix(text, utf8BOM)
	}
	l.text = strings.TrimSuffix(text, "\r")
	return true
}

// Text is the current line without its line terminator.
func (l *lineReader) Text() string { return l.text }

// Line is the 1-based number of the current line.
func (l *lineReader) Line() int { return l.line }

// Err returns the first read error.
func (l *lineReader) Err() error { return l.scanner.Err() }
