package storage_test

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"horizon-tapper/internal/infra/storage"
)

func TestAtomicWriteFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "acc.session")
	if err := storage.AtomicWriteFile(path, []byte("v1")); err != nil {
		t.Fatalf("AtomicWriteFile() error = %v", err)
	}
	if err := storage.AtomicWriteFile(path, []byte("v2")); err != nil {
		t.Fatalf("AtomicWriteFile() overwrite error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil || string(data) != "v2" {
		t.Fatalf("ReadFile() = %q, %v; want v2", data, err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if perm := info.Mode().Perm(); perm != storage.DefaultFilePerm {
		t.Fatalf("perm = %o, want %o", perm, storage.DefaultFilePerm)
	}
	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Fatalf("dir has %d entries, temp files left behind", len(entries))
	}
}

func TestReadLines(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "proxies.txt")
	content := "# socks\nsocks5://a:b@1.1.1.1:1080\n\n  http://2.2.2.2:3128  \r\n#disabled\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	got, err := storage.ReadLines(path)
	if err != nil {
		t.Fatalf("ReadLines() error = %v", err)
	}
	want := []string{"socks5://a:b@1.1.1.1:1080", "http://2.2.2.2:3128"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ReadLines() = %q, want %q", got, want)
	}

	missing, err := storage.ReadLines(filepath.Join(dir, "missing.txt"))
	if err != nil || missing != nil {
		t.Fatalf("ReadLines(missing) = %v, %v; want nil, nil", missing, err)
	}
}
