package model

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_Watch(t *testing.T) {
	c, err := NewCache(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, c.Save(testArtifact()))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan string, 100)
	require.NoError(t, c.Watch(ctx, func(lang string) { changed <- lang }))

	a := testArtifact()
	a.Classes[0].LogPrior = -0.1
	require.NoError(t, c.Save(a))

	select {
	case lang := <-changed:
		assert.Equal(t, "en", lang)
	case <-time.After(5 * time.Second):
		t.Fatal("no change event for the cached language")
	}
}

func waitForLanguage(t *testing.T, changed <-chan string, want string) {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case lang := <-changed:
			if lang == want {
				return
			}
		case <-timeout:
			t.Fatalf("no change event for %s", want)
		}
	}
}

func TestCache_WatchNewLanguage(t *testing.T) {
	c, err := NewCache(t.TempDir())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan string, 100)
	require.NoError(t, c.Watch(ctx, func(lang string) { changed <- lang }))

	a := testArtifact()
	a.Language = "zh"
	require.NoError(t, c.Save(a))
	waitForLanguage(t, changed, "zh")

	// the new language stays watched
	a.Classes[0].LogPrior = -0.2
	require.NoError(t, c.Save(a))
	waitForLanguage(t, changed, "zh")
}

func TestCache_LanguageOf(t *testing.T) {
	c, err := NewCache("/tmp/cherry")
	require.NoError(t, err)

	lang, ok := c.languageOf(c.Path("en"))
	assert.True(t, ok)
	assert.Equal(t, "en", lang)

	_, ok = c.languageOf("/tmp/cherry/data/en/model.mp")
	assert.False(t, ok)
	_, ok = c.languageOf("/tmp/cherry/data/en/cache/.tmp-123")
	assert.False(t, ok)
}
