package posts

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/saltyorg/litemapper/internal/database"
	"github.com/saltyorg/litemapper/internal/orm"
)

func TestPostLifecycle(t *testing.T) {
	db := database.New(filepath.Join(t.TempDir(), "posts.db"), nil)
	defer db.Close()

	post := New("Hello", "World")
	require.NoError(t, post.Save(db))
	id, ok := post.ID()
	require.True(t, ok)
	require.EqualValues(t, 1, id)

	kind := Posts.With(db)
	got, err := kind.Get(1)
	require.NoError(t, err)
	require.Equal(t, orm.Values{"id": int64(1), "title": "Hello", "text": "World"}, orm.Public(got))

	got.Text = "Mundo"
	require.NoError(t, got.Update(db))
	require.NoError(t, db.Commit())

	reloaded, err := kind.Get(1)
	require.NoError(t, err)
	require.Equal(t, "Mundo", reloaded.Text)
	require.Equal(t, "Hello Mundo", reloaded.Show())

	require.NoError(t, reloaded.Delete(db))
	require.NoError(t, db.Commit())

	_, err = kind.Get(1)
	require.ErrorIs(t, err, orm.ErrMissingObject)

	count := 0
	for _, err := range kind.All() {
		require.NoError(t, err)
		count++
	}
	require.Zero(t, count)

	again := New("Hello", "World")
	require.NoError(t, again.Save(db))
	require.Equal(t, `{id: 2, text: "World", title: "Hello"}`, again.String())
}

func TestPostSurvivesReconnect(t *testing.T) {
	path := filepath.Join(t.TempDir(), "posts.db")
	db := database.New(path, nil)

	require.NoError(t, New("kept", "yes").Save(db))
	require.NoError(t, db.Commit())
	require.NoError(t, New("dropped", "no").Save(db))
	require.NoError(t, db.Close())

	reopened := database.New(path, nil)
	defer reopened.Close()

	var titles []string
	for p, err := range Posts.With(reopened).All() {
		require.NoError(t, err)
		titles = append(titles, p.Title)
	}
	require.Equal(t, []string{"kept"}, titles)
}
