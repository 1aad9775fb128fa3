package runlog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// TextFile appends one human-readable line per entry, the format operators grep
// after a run:
//
//	doc1.json: all imported (12 records)
//	doc2.json: success 9, failed 2, invalid 1
//	doc3.json failed: open doc3.json: permission denied
type TextFile struct {
	path string
	mu   sync.Mutex
}

func NewTextFile(path string) *TextFile {
	return &TextFile{path: path}
}

func (f *TextFile) Path() string { return f.path }

// Reset removes the file so a new run starts from an empty log.
func (f *TextFile) Reset() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("runlog: reset %s: %w", f.path, err)
	}
	return nil
}

func (f *TextFile) Append(ctx context.Context, e Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	if dir := filepath.Dir(f.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("runlog: mkdir %s: %w", dir, err)
		}
	}
	fh, err := os.OpenFile(f.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("runlog: open %s: %w", f.path, err)
	}
	defer fh.Close()
	if _, err := fmt.Fprintln(fh, FormatLine(e)); err != nil {
		return fmt.Errorf("runlog: write %s: %w", f.path, err)
	}
	return nil
}

func FormatLine(e Entry) string {
	switch {
	case e.Status == StatusFailed && e.Result.Success == 0 && e.Message != "":
		return fmt.Sprintf("%s failed: %s", e.Source, e.Message)
	case e.Result.Errors == 0 && e.Result.Success > 0:
		return fmt.Sprintf("%s: all imported (%d records)", e.Source, e.Result.Success)
	default:
		return fmt.Sprintf("%s: success %d, failed %d, invalid %d",
			e.Source, e.Result.Success, e.Result.Errors, e.Result.Invalid)
	}
}
