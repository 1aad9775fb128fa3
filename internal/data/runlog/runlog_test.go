package runlog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/yungbote/graphloader/internal/domain/kg"
)

func TestStatusFor(t *testing.T) {
	cases := []struct {
		res  kg.BatchResult
		want Status
	}{
		{kg.BatchResult{}, StatusEmpty},
		{kg.BatchResult{Invalid: 3}, StatusEmpty},
		{kg.BatchResult{Success: 4}, StatusOK},
		{kg.BatchResult{Success: 4, Invalid: 1}, StatusOK},
		{kg.BatchResult{Errors: 2}, StatusFailed},
		{kg.BatchResult{Success: 1, Errors: 1}, StatusPartial},
	}
	for _, tc := range cases {
		if got := StatusFor(tc.res); got != tc.want {
			t.Fatalf("StatusFor(%+v) = %q, want %q", tc.res, got, tc.want)
		}
	}
}

func TestFormatLine(t *testing.T) {
	cases := []struct {
		entry Entry
		want  string
	}{
		{
			Entry{Source: "doc1.json", Status: StatusOK, Result: kg.BatchResult{Success: 12}},
			"doc1.json: all imported (12 records)",
		},
		{
			Entry{Source: "doc2.json", Status: StatusPartial, Result: kg.BatchResult{Success: 9, Errors: 2, Invalid: 1}},
			"doc2.json: success 9, failed 2, invalid 1",
		},
		{
			Entry{Source: "doc3.json", Status: StatusFailed, Message: "permission denied"},
			"doc3.json failed: permission denied",
		},
		{
			Entry{Source: "doc5.json", Status: StatusOK, Result: kg.BatchResult{Success: 3, Invalid: 1}},
			"doc5.json: all imported (3 records)",
		},
		{
			Entry{Source: "doc4.json", Status: StatusEmpty, Result: kg.BatchResult{Invalid: 2}},
			"doc4.json: success 0, failed 0, invalid 2",
		},
	}
	for _, tc := range cases {
		if got := FormatLine(tc.entry); got != tc.want {
			t.Fatalf("FormatLine() = %q, want %q", got, tc.want)
		}
	}
}

func TestTextFile_AppendsAndResets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "import_errors.txt")
	f := NewTextFile(path)
	ctx := context.Background()

	if err := f.Append(ctx, Entry{Source: "a.json", Status: StatusOK, Result: kg.BatchResult{Success: 1}}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := f.Append(ctx, Entry{Source: "b.json", Status: StatusPartial, Result: kg.BatchResult{Success: 1, Errors: 1}}); err != nil {
		t.Fatalf("append: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	if len(lines) != 2 || lines[0] != "a.json: all imported (1 records)" {
		t.Fatalf("unexpected log contents: %q", raw)
	}

	if err := f.Reset(); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected log removed after reset, stat err=%v", err)
	}
	if err := f.Reset(); err != nil {
		t.Fatalf("reset of missing file should succeed: %v", err)
	}
}

type failingSink struct{ err error }

func (s failingSink) Append(context.Context, Entry) error { return s.err }

type countingSink struct{ n int }

func (s *countingSink) Append(context.Context, Entry) error {
	s.n++
	return nil
}

func TestMulti_AttemptsEverySink(t *testing.T) {
	boom := errors.New("boom")
	counter := &countingSink{}
	m := Multi{failingSink{err: boom}, nil, counter, Discard{}}
	err := m.Append(context.Background(), Entry{Source: "x"})
	if !errors.Is(err, boom) {
		t.Fatalf("expected joined error to carry boom, got %v", err)
	}
	if counter.n != 1 {
		t.Fatalf("expected later sinks to still run, got %d", counter.n)
	}
}

func newSQLiteStore(t *testing.T) *GormStore {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "runlog.db")), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	s, err := NewGormStore(db, nil)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestGormStore_AppendAndList(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()
	run := uuid.New()
	other := uuid.New()
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	entries := []Entry{
		{RunID: run, Source: "doc1.json", Status: StatusOK, Result: kg.BatchResult{Success: 3}, CreatedAt: base},
		{
			RunID:     run,
			Source:    "doc2.json",
			Status:    StatusPartial,
			Result:    kg.BatchResult{Success: 1, Errors: 1, Invalid: 2},
			Reasons:   map[string]int{"empty": 1, "missing_field": 1},
			CreatedAt: base.Add(time.Second),
		},
		{RunID: other, Source: "doc3.json", Status: StatusEmpty, CreatedAt: base},
	}
	for _, e := range entries {
		if err := s.Append(ctx, e); err != nil {
			t.Fatalf("append %s: %v", e.Source, err)
		}
	}

	got, err := s.List(ctx, run)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 entries for run, got %d", len(got))
	}
	if got[0].Source != "doc1.json" || got[0].Status != StatusOK || got[0].Result.Success != 3 {
		t.Fatalf("unexpected first entry: %+v", got[0])
	}
	second := got[1]
	if second.Result != (kg.BatchResult{Success: 1, Errors: 1, Invalid: 2}) {
		t.Fatalf("unexpected counts: %+v", second.Result)
	}
	if second.Reasons["empty"] != 1 || second.Reasons["missing_field"] != 1 {
		t.Fatalf("reasons not round-tripped: %v", second.Reasons)
	}
}

func TestOpen_NotConfigured(t *testing.T) {
	if _, err := Open(nil, Config{}); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}
