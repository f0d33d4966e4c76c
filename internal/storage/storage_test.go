package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func exerciseBlob(t *testing.T, b Blob) {
	t.Helper()
	ctx := context.Background()

	if _, err := b.Get(ctx, "activity-storage"); !errors.Is(err, ErrBlobNotFound) {
		t.Fatalf("expected ErrBlobNotFound, got %v", err)
	}
	if err := b.Put(ctx, "activity-storage", []byte(`{"v":1}`)); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := b.Put(ctx, "activity-storage", []byte(`{"v":2}`)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, err := b.Get(ctx, "activity-storage")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != `{"v":2}` {
		t.Fatalf("expected latest contents, got %s", got)
	}
}

func TestMemoryBlob(t *testing.T) {
	t.Parallel()
	exerciseBlob(t, NewMemoryBlob())
}

func TestFileBlob(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	b, err := NewFileBlob(dir)
	if err != nil {
		t.Fatalf("new file blob: %v", err)
	}
	exerciseBlob(t, b)

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "activity-storage.json" {
		t.Fatalf("expected only the final blob file, got %v", entries)
	}
}

func TestFileBlobRejectsPathNames(t *testing.T) {
	t.Parallel()
	b, err := NewFileBlob(t.TempDir())
	if err != nil {
		t.Fatalf("new file blob: %v", err)
	}
	if err := b.Put(context.Background(), "../escape", []byte("x")); err == nil {
		t.Fatalf("expected invalid name error")
	}
}

func TestSQLiteBlob(t *testing.T) {
	t.Parallel()
	b, err := OpenSQLiteBlob(context.Background(), filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("open sqlite blob: %v", err)
	}
	defer b.Close()
	exerciseBlob(t, b)
}

type failingBlob struct{ err error }

func (f failingBlob) Get(ctx context.Context, name string) ([]byte, error) { return nil, f.err }
func (f failingBlob) Put(ctx context.Context, name string, contents []byte) error { return f.err }

func TestMirrorWritesEverywhere(t *testing.T) {
	t.Parallel()
	primary, secondary := NewMemoryBlob(), NewMemoryBlob()
	m := NewMirror(primary, secondary)
	exerciseBlob(t, m)

	got, err := secondary.Get(context.Background(), "activity-storage")
	if err != nil || string(got) != `{"v":2}` {
		t.Fatalf("expected secondary to hold latest contents, got %s (%v)", got, err)
	}
}

func TestMirrorToleratesSecondaryFailure(t *testing.T) {
	t.Parallel()
	primary := NewMemoryBlob()
	m := NewMirror(primary, failingBlob{errors.New("offline")})
	if err := m.Put(context.Background(), "x", []byte("1")); err != nil {
		t.Fatalf("expected secondary failure to be tolerated, got %v", err)
	}
	if primary.Puts() != 1 {
		t.Fatalf("expected primary write, got %d", primary.Puts())
	}
}

func TestMirrorReportsPrimaryFailure(t *testing.T) {
	t.Parallel()
	boom := errors.New("disk full")
	m := NewMirror(failingBlob{boom}, NewMemoryBlob())
	if err := m.Put(context.Background(), "x", []byte("1")); !errors.Is(err, boom) {
		t.Fatalf("expected primary error, got %v", err)
	}
}
