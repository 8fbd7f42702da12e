package typing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/playground/internal/shared/types"
)

func collect(ch <-chan Frame) []Frame {
	var out []Frame
	for f := range ch {
		out = append(out, f)
	}
	return out
}

func TestStreamTypesFilesInOrder(t *testing.T) {
	files := []types.ProjectFile{
		{Path: "index.html", Content: "<p>hi</p>"},
		{Path: "empty.css", Content: ""},
		{Path: "app.js", Content: "héllo"},
	}
	frames := collect(New(Config{CharsPerTick: 4}).Stream(context.Background(), files))

	var got []string
	for _, f := range frames[:len(frames)-1] {
		last := f.Files[len(f.Files)-1]
		assert.Equal(t, last.Path, f.Active)
		assert.False(t, f.Done)
		got = append(got, last.Path+"="+last.Content)
	}
	assert.Equal(t, []string{
		"index.html=<p>h",
		"index.html=<p>hi</p",
		"index.html=<p>hi</p>",
		"empty.css=",
		"app.js=héll",
		"app.js=héllo",
	}, got)

	final := frames[len(frames)-1]
	assert.True(t, final.Done)
	assert.Equal(t, files, final.Files)
	assert.Equal(t, "app.js", final.Active)

	// earlier files are complete in later frames
	assert.Equal(t, files[0], frames[4].Files[0])
}

func TestStreamEmpty(t *testing.T) {
	frames := collect(New(Config{}).Stream(context.Background(), nil))
	require.Len(t, frames, 1)
	assert.True(t, frames[0].Done)
	assert.Empty(t, frames[0].Files)
}

func TestStreamCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	a := New(Config{CharsPerTick: 1, Tick: time.Millisecond})
	ch := a.Stream(ctx, []types.ProjectFile{{Path: "a.js", Content: "0123456789abcdef"}})

	first := <-ch
	assert.Equal(t, "0", first.Files[0].Content)
	cancel()

	for f := range ch {
		assert.False(t, f.Done)
	}
}

func TestStreamRestartCancelsPrevious(t *testing.T) {
	a := New(Config{CharsPerTick: 1, Tick: time.Millisecond})
	old := a.Stream(context.Background(), []types.ProjectFile{{Path: "old.js", Content: "a long file body"}})
	<-old

	fresh := a.Stream(context.Background(), []types.ProjectFile{{Path: "new.js", Content: "ok"}})
	for f := range old {
		assert.False(t, f.Done)
	}

	frames := collect(fresh)
	require.NotEmpty(t, frames)
	assert.True(t, frames[len(frames)-1].Done)
	assert.Equal(t, "new.js", frames[0].Active)
}
