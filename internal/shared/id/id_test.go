package id

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateUnique(t *testing.T) {
	gen := NewGenerator()
	assert.NotEqual(t, gen.Generate().String(), gen.Generate().String())
	assert.Len(t, gen.GenerateString(), 26)
}

func TestTypedIDs(t *testing.T) {
	ids := map[string]string{
		ProjectPrefix: NewProjectID().String(),
		BuildPrefix:   NewBuildID().String(),
		ConnPrefix:    NewConnID().String(),
	}

	for prefix, s := range ids {
		parts := strings.Split(s, "_")
		require.Len(t, parts, 2, s)
		assert.Equal(t, prefix, parts[0])
		assert.True(t, IsValid(parts[1]), s)
	}
}

func TestParseProjectID(t *testing.T) {
	valid := NewProjectID()
	got, err := ParseProjectID(valid.String())
	require.NoError(t, err)
	assert.Equal(t, valid, got)

	tests := []string{
		"",
		"proj",
		"proj_",
		"build_" + Default().GenerateString(),
		"proj_zzzzzzzzzzzzzzzzzzzzzzzzzz",
	}
	for _, s := range tests {
		_, err := ParseProjectID(s)
		assert.True(t, errors.Is(err, ErrMalformed), "input %q", s)
	}
}

func TestTimestamp(t *testing.T) {
	before := time.Now().UnixMilli()
	pid := NewProjectID()
	after := time.Now().UnixMilli()

	ts, err := Timestamp(pid.String())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, ts.UnixMilli(), before)
	assert.LessOrEqual(t, ts.UnixMilli(), after)

	_, err = Timestamp("invalid")
	assert.Error(t, err)
}

func TestMonotonicOrdering(t *testing.T) {
	gen := NewGenerator()
	prev := gen.GenerateString()
	for i := 0; i < 1000; i++ {
		next := gen.GenerateString()
		assert.Greater(t, next, prev)
		prev = next
	}
}

func TestConcurrentGeneration(t *testing.T) {
	gen := NewGenerator()

	const goroutines = 50
	const perGoroutine = 100

	var wg sync.WaitGroup
	out := make(chan string, goroutines*perGoroutine)
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				out <- gen.GenerateWithPrefix(ProjectPrefix)
			}
		}()
	}
	wg.Wait()
	close(out)

	seen := make(map[string]bool)
	for s := range out {
		assert.False(t, seen[s], "duplicate %s", s)
		seen[s] = true
	}
	assert.Len(t, seen, goroutines*perGoroutine)
}

func BenchmarkGenerateWithPrefix(b *testing.B) {
	gen := NewGenerator()
	for i := 0; i < b.N; i++ {
		_ = gen.GenerateWithPrefix(ProjectPrefix)
	}
}
