package submit

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// auditLog appends "<jobID> <command line>" records.
type auditLog struct {
	mu   sync.Mutex
	path string
}

func (a *auditLog) Record(jobID, commandLine string) error {
	if a == nil || a.path == "" {
		return nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(a.path), 0o755); err != nil {
		return fmt.Errorf("create audit log dir: %w", err)
	}
	f, err := os.OpenFile(a.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}
	if _, err := fmt.Fprintf(f, "%s %s\n", jobID, commandLine); err != nil {
		f.Close()
		return fmt.Errorf("write audit log: %w", err)
	}
	return f.Close()
}
