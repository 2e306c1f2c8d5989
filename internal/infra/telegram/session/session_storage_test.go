package session_test

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/go-faster/errors"
	tdsession "github.com/gotd/td/session"

	"horizon-tapper/internal/infra/telegram/session"
)

func TestFileStorage(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := &session.FileStorage{Path: session.Path(t.TempDir(), "acc1")}

	if _, err := s.LoadSession(ctx); !errors.Is(err, tdsession.ErrNotFound) {
		t.Fatalf("LoadSession() on empty = %v, want ErrNotFound", err)
	}
	if err := s.StoreSession(ctx, []byte(`{"Version":1}`)); err != nil {
		t.Fatalf("StoreSession() error = %v", err)
	}
	data, err := s.LoadSession(ctx)
	if err != nil || string(data) != `{"Version":1}` {
		t.Fatalf("LoadSession() = %q, %v", data, err)
	}
}

func TestList(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	for _, name := range []string{"zeta.session", "alpha.session", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o600); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "dir.session"), 0o700); err != nil {
		t.Fatalf("Mkdir() error = %v", err)
	}

	got, err := session.List(dir)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if !reflect.DeepEqual(got, []string{"alpha", "zeta"}) {
		t.Fatalf("List() = %v, want [alpha zeta]", got)
	}

	missing, err := session.List(filepath.Join(dir, "nope"))
	if err != nil || missing != nil {
		t.Fatalf("List(missing) = %v, %v", missing, err)
	}
}
