package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mdwerror "github.com/msto63/koi/foundation/core/error"
	"github.com/msto63/koi/foundation/koi/command"
)

func stores(t *testing.T) map[string]Store {
	t.Helper()

	sqlite, err := NewSQLiteStore(filepath.Join(t.TempDir(), "nested", "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sqlite.Close() })

	return map[string]Store{
		"sqlite": sqlite,
		"memory": NewMemoryStore(),
	}
}

func sampleRun() Run {
	return Run{
		Source:    "scene.koi",
		Threshold: 1,
		Commands: []*command.Command{
			command.New("character", command.Basic("Alice"), command.Basic(`"Hello, world!"`)),
			command.New("background", command.Composite("color", "red, 0x00ff00"), command.Basic("fade")),
			command.New("end"),
		},
		Errors: []string{"parse error at line 4, column 1: missing command name"},
	}
}

func TestStore_SaveAndGet(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			want := sampleRun()

			id, err := s.SaveRun(ctx, want)
			require.NoError(t, err)
			require.NotEmpty(t, id)

			got, err := s.GetRun(ctx, id)
			require.NoError(t, err)

			assert.Equal(t, id, got.ID)
			assert.Equal(t, want.Source, got.Source)
			assert.Equal(t, want.Threshold, got.Threshold)
			assert.Equal(t, want.Errors, got.Errors)
			assert.False(t, got.CreatedAt.IsZero())

			require.Len(t, got.Commands, len(want.Commands))
			for i := range want.Commands {
				assert.True(t, want.Commands[i].Equal(got.Commands[i]),
					"command %d: got %s, want %s", i, got.Commands[i], want.Commands[i])
			}

			p, ok := got.Commands[1].Param(0)
			require.True(t, ok)
			assert.True(t, p.IsComposite())
		})
	}
}

func TestStore_KeepsGivenID(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			run := sampleRun()
			run.ID = "fixed-id"

			id, err := s.SaveRun(context.Background(), run)
			require.NoError(t, err)
			assert.Equal(t, "fixed-id", id)
		})
	}
}

func TestStore_ListRuns(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

			for i, src := range []string{"a.koi", "b.koi", "c.koi"} {
				run := sampleRun()
				run.Source = src
				run.CreatedAt = base.Add(time.Duration(i) * time.Minute)
				_, err := s.SaveRun(ctx, run)
				require.NoError(t, err)
			}

			all, err := s.ListRuns(ctx, 0)
			require.NoError(t, err)
			require.Len(t, all, 3)
			assert.Equal(t, "c.koi", all[0].Source)
			assert.Equal(t, "a.koi", all[2].Source)
			assert.Equal(t, 3, all[0].Commands)
			assert.Equal(t, 1, all[0].Errors)

			limited, err := s.ListRuns(ctx, 2)
			require.NoError(t, err)
			assert.Len(t, limited, 2)
		})
	}
}

func TestStore_DeleteRun(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			id, err := s.SaveRun(ctx, sampleRun())
			require.NoError(t, err)

			require.NoError(t, s.DeleteRun(ctx, id))

			_, err = s.GetRun(ctx, id)
			assert.True(t, mdwerror.HasCode(err, mdwerror.CodeNotFound))

			err = s.DeleteRun(ctx, id)
			assert.True(t, mdwerror.HasCode(err, mdwerror.CodeNotFound))
		})
	}
}

func TestStore_GetMissing(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.GetRun(context.Background(), "does-not-exist")
			require.Error(t, err)
			assert.Equal(t, mdwerror.CodeNotFound, mdwerror.GetCode(err))
		})
	}
}

func TestStore_EmptyRun(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			id, err := s.SaveRun(ctx, Run{Source: "empty", Threshold: 2})
			require.NoError(t, err)

			got, err := s.GetRun(ctx, id)
			require.NoError(t, err)
			assert.Empty(t, got.Commands)
			assert.Empty(t, got.Errors)
		})
	}
}

func TestSQLiteStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	ctx := context.Background()

	s, err := NewSQLiteStore(path)
	require.NoError(t, err)
	id, err := s.SaveRun(ctx, sampleRun())
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = NewSQLiteStore(path)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.GetRun(ctx, id)
	require.NoError(t, err)
	assert.Len(t, got.Commands, 3)
}

func TestNewSQLiteStore_BadPath(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	_, err := NewSQLiteStore(filepath.Join(blocker, "runs.db"))
	require.Error(t, err)
	assert.True(t, mdwerror.HasCode(err, mdwerror.CodeStorageError))
}
