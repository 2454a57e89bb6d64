package media

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"global-app/internal/config"
)

func newTestStore(t *testing.T) *LocalStore {
	t.Helper()
	s, err := NewLocalStore(config.StorageConfig{LocalPath: t.TempDir(), BaseURL: "/uploads/"})
	require.NoError(t, err)
	return s
}

func TestLocalStoreSaveAndDelete(t *testing.T) {
	s := newTestStore(t)
	body := "fake png bytes"

	info, err := s.Save(context.Background(), KindAvatar, strings.NewReader(body), int64(len(body)), "me.PNG", "image/png")
	require.NoError(t, err)

	assert.Equal(t, KindAvatar, info.Kind)
	assert.True(t, strings.HasPrefix(info.URL, "/uploads/avatar/"))
	assert.True(t, strings.HasSuffix(info.URL, ".png"))
	assert.Equal(t, int64(len(body)), info.Size)

	data, err := os.ReadFile(info.Path)
	require.NoError(t, err)
	assert.Equal(t, body, string(data))

	require.NoError(t, s.Delete(context.Background(), info))
	_, err = os.Stat(info.Path)
	assert.True(t, os.IsNotExist(err))
	assert.NoError(t, s.Delete(context.Background(), info))
}

func TestLocalStoreRejectsWrongType(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Save(context.Background(), KindResume, strings.NewReader("x"), 1, "cv.png", "image/png")
	assert.ErrorIs(t, err, ErrUnsupportedType)

	_, err = s.Save(context.Background(), Kind("archive"), strings.NewReader("x"), 1, "a.zip", "application/zip")
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestLocalStoreSizeMismatchRemovesFile(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Save(context.Background(), KindResume, strings.NewReader("short"), 100, "cv.pdf", "application/pdf")
	require.ErrorIs(t, err, ErrSizeMismatch)

	entries, err := os.ReadDir(s.basePath + "/resume")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("")
	require.NoError(t, err)
	assert.Equal(t, KindPost, k)

	k, err = ParseKind("Resume")
	require.NoError(t, err)
	assert.Equal(t, KindResume, k)

	_, err = ParseKind("banner")
	assert.ErrorIs(t, err, ErrUnknownKind)

	assert.True(t, KindPost.Accepts("video/mp4"))
	assert.True(t, KindAvatar.Accepts("image/jpeg; charset=binary"))
	assert.False(t, KindAvatar.Accepts("application/pdf"))
}
