package collate

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bulkdock/bulkdock/pkg/internal/fsutil"
)

// Merge concatenates inputs into dest atomically. A CSV input keeps its
// header only when no earlier CSV input has written one, and always ends on a
// line break. Other inputs are concatenated byte for byte. The format follows
// each input's extension, not dest's.
func Merge(dest string, inputs []string) error {
	return fsutil.WriteFileAtomic(dest, 0o644, func(w io.Writer) error {
		seenHeader := false
		for _, path := range inputs {
			headered := strings.EqualFold(filepath.Ext(path), ".csv")
			if err := appendFile(w, path, headered && seenHeader, headered); err != nil {
				return err
			}
			seenHeader = seenHeader || headered
		}
		return nil
	})
}

func appendFile(w io.Writer, path string, skipHeader, lineBreak bool) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open batch output: %w", err)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	if skipHeader {
		if _, err := r.ReadString('\n'); err != nil && err != io.EOF {
			return fmt.Errorf("read header of %s: %w", path, err)
		}
	}

	// Rows of the next file must not join this file's last row.
	var last [1]byte
	n, err := io.Copy(&trailingByte{w: w, last: &last}, r)
	if err != nil {
		return fmt.Errorf("copy %s: %w", path, err)
	}
	if lineBreak && n > 0 && !bytes.Equal(last[:], []byte{'\n'}) {
		if _, err := w.Write([]byte{'\n'}); err != nil {
			return err
		}
	}
	return nil
}

// trailingByte remembers the last byte written through it.
type trailingByte struct {
	w    io.Writer
	last *[1]byte
}

func (t *trailingByte) Write(p []byte) (int, error) {
	n, err := t.w.Write(p)
	if n > 0 {
		t.last[0] = p[n-1]
	}
	return n, err
}
