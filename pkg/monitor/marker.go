package monitor

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/bulkdock/bulkdock/pkg/core"
)

// Marker is the literal that precedes "<attempted>/<total>" in worker logs.
const Marker = core.ProgressMarker

// tailSize is how much of a log is scanned before falling back to the whole file.
const tailSize = 64 << 10

// ParseMarker extracts attempted/total from a single log line.
func ParseMarker(line string) (attempted, total int, ok bool) {
	idx := strings.LastIndex(line, Marker)
	if idx < 0 {
		return 0, 0, false
	}
	fields := strings.Fields(line[idx+len(Marker):])
	if len(fields) == 0 {
		return 0, 0, false
	}
	a, t, found := strings.Cut(fields[0], "/")
	if !found {
		return 0, 0, false
	}
	attempted, err := strconv.Atoi(a)
	if err != nil || attempted < 0 {
		return 0, 0, false
	}
	total, err = strconv.Atoi(t)
	if err != nil || total <= 0 || attempted > total {
		return 0, 0, false
	}
	return attempted, total, true
}

// LastMarker scans r for the last well-formed marker. Malformed marker lines are skipped.
func LastMarker(r io.Reader) (attempted, total int, ok bool) {
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if a, t, found := ParseMarker(line); found {
			attempted, total, ok = a, t, true
		}
		if err != nil {
			return attempted, total, ok
		}
	}
}

// ReadLogMarker returns the last marker in the log at path. Only the tail is
// read for large logs unless the tail holds no marker.
func ReadLogMarker(path string) (attempted, total int, ok bool, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, false, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return 0, 0, false, err
	}
	if info.Size() > tailSize {
		offset := info.Size() - tailSize
		buf := make([]byte, tailSize)
		n, err := f.ReadAt(buf, offset)
		if err != nil && err != io.EOF {
			return 0, 0, false, err
		}
		buf = buf[:n]
		// Drop the partial first line.
		if i := bytes.IndexByte(buf, '\n'); i >= 0 {
			buf = buf[i+1:]
		}
		if a, t, found := LastMarker(bytes.NewReader(buf)); found {
			return a, t, true, nil
		}
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return 0, 0, false, err
		}
	}

	a, t, found := LastMarker(f)
	return a, t, found, nil
}
