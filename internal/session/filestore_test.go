package session_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/waabox/constitutiongpt/internal/session"
)

func TestFileStore_MissingFileLoadsEmptyPair(t *testing.T) {
	store := session.NewFileStore(filepath.Join(t.TempDir(), "nope", "session.toml"))
	p, err := store.Load(context.Background())
	require.NoError(t, err)
	require.True(t, p.IsZero())
}

func TestFileStore_SaveLoadClear(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cfg", "session.toml")
	store := session.NewFileStore(path)

	require.NoError(t, store.Save(ctx, session.Pair{AccessToken: "A1", RefreshToken: "R1"}))
	require.NoError(t, store.Save(ctx, session.Pair{AccessToken: "A2", RefreshToken: "R2"}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0600), info.Mode().Perm())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(raw), `access_token = "A2"`)
	require.Contains(t, string(raw), `refresh_token = "R2"`)

	p, err := store.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, session.Pair{AccessToken: "A2", RefreshToken: "R2"}, p)

	require.NoError(t, store.Clear(ctx))
	require.NoError(t, store.Clear(ctx))
	_, err = os.Stat(path)
	require.True(t, os.IsNotExist(err))
}

func TestFileStore_CorruptFileIsAnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.toml")
	require.NoError(t, os.WriteFile(path, []byte("access_token = "), 0600))

	_, err := session.NewFileStore(path).Load(context.Background())
	require.Error(t, err)
}
