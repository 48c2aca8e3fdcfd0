// Package tail extracts lines from log files: the last N lines of an
// arbitrarily large file, and lines appended since a given byte offset.
package tail

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
)

// Line is a single log line with its terminator already stripped.
type Line string

// Offset is a byte position into a specific file.
type Offset = int64

// lastLinesBlockSize is the chunk size used when scanning backward from
// EOF to find the last N lines. The scanned bytes are retained, not
// just used to reposition.
const lastLinesBlockSize = 32 * 1024

// sinceReadBufSize is the bufio.Reader size used for forward scans.
const sinceReadBufSize = 64 * 1024

// Reader extracts lines directly from the filesystem.
type Reader struct{}

// NewReader returns a Reader. It carries no state; every call opens and
// closes the file fresh, since streams may be read from concurrently by
// unrelated goroutines.
func NewReader() *Reader {
	return &Reader{}
}

// LastLines returns the last n terminated lines of path, oldest first,
// along with the offset just past the file's last line terminator (the
// file's size when the file ends in a terminator; to be used as the
// stream's initial offset). If the file has fewer than n terminated
// lines, all of them are returned. An unterminated trailing fragment is
// never included, and lies at or after the returned offset so that
// LinesSince delivers it once its terminator lands on disk.
//
// Peak auxiliary memory is bounded by a small multiple of
// n*max_line_bytes plus one block buffer: the backward scan stops as
// soon as it has found n+1 line terminators (or reached byte 0), it
// never reads the whole file.
func (r *Reader) LastLines(path string, n int) ([]Line, Offset, error) {
	f, err := openForRead(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	size, err := fileSize(f)
	if err != nil {
		return nil, 0, err
	}
	if size == 0 || n <= 0 {
		return nil, size, nil
	}

	lines, end, err := scanLastLines(f, size, n)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrIO, err)
	}
	return lines, end, nil
}

// LinesSince returns every terminated line whose terminator lies
// strictly after byte fromOffset, in file order, along with the offset
// just past the last terminator it read. Callers must ensure fromOffset
// lies on a line boundary (the Per-File Stream guarantees this). An
// unterminated trailing fragment is left unconsumed: it lies after
// newOffset, so the next call re-scans and delivers the fragment once
// its terminator lands on disk. If the file is no larger than
// fromOffset, no lines are returned and newOffset is the file's size.
func (r *Reader) LinesSince(path string, fromOffset Offset) ([]Line, Offset, error) {
	f, err := openForRead(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	size, err := fileSize(f)
	if err != nil {
		return nil, 0, err
	}
	if size <= fromOffset {
		return nil, size, nil
	}

	if _, err := f.Seek(fromOffset, io.SeekStart); err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrIO, err)
	}

	lines, consumed, err := scanForwardLines(f)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrIO, err)
	}
	return lines, fromOffset + consumed, nil
}

func openForRead(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}
	return f, nil
}

func fileSize(f *os.File) (int64, error) {
	info, err := f.Stat()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrIO, err)
	}
	return info.Size(), nil
}

// scanLastLines reads backward from EOF in fixed-size blocks, stopping
// once it has seen n+1 line terminators (or exhausted the file), then
// slices out the last n complete lines from the retained window. It
// also returns the offset just past the last terminator (0 if none).
func scanLastLines(f *os.File, size int64, n int) ([]Line, Offset, error) {
	var window []byte
	pos := size
	newlines := 0

	for pos > 0 && newlines <= n {
		readSize := int64(lastLinesBlockSize)
		if readSize > pos {
			readSize = pos
		}
		pos -= readSize

		chunk := make([]byte, readSize)
		if _, err := f.ReadAt(chunk, pos); err != nil && err != io.EOF {
			return nil, 0, err
		}
		newlines += bytes.Count(chunk, []byte{'\n'})
		window = append(chunk, window...)
	}

	last := bytes.LastIndexByte(window, '\n')
	if last < 0 {
		// No terminator anywhere in the file: zero complete lines.
		return nil, 0, nil
	}
	end := pos + int64(last) + 1
	window = window[:last+1]

	parts := bytes.Split(window, []byte{'\n'})
	parts = parts[:len(parts)-1] // drop the empty tail after the final '\n'
	if pos > 0 {
		// The first segment started mid-block, before our read window;
		// it is a fragment of an earlier line, not a complete one.
		parts = parts[1:]
	}
	if len(parts) > n {
		parts = parts[len(parts)-n:]
	}

	lines := make([]Line, len(parts))
	for i, p := range parts {
		lines[i] = Line(stripCR(p))
	}
	return lines, end, nil
}

// scanForwardLines reads complete terminated lines from the current
// position of f until EOF, and reports how many bytes those lines
// (terminators included) occupy. A trailing unterminated fragment, if
// any, is discarded and not counted.
func scanForwardLines(f *os.File) ([]Line, int64, error) {
	reader := bufio.NewReaderSize(f, sinceReadBufSize)
	var lines []Line
	var consumed int64
	for {
		raw, err := reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				return lines, consumed, nil
			}
			return nil, 0, err
		}
		consumed += int64(len(raw))
		lines = append(lines, Line(stripCR([]byte(raw[:len(raw)-1]))))
	}
}

func stripCR(b []byte) string {
	if len(b) > 0 && b[len(b)-1] == '\r' {
		b = b[:len(b)-1]
	}
	return string(b)
}
