package preview

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/playground/internal/shared/types"
	"github.com/GriffinCanCode/playground/internal/transpiler"
)

func readyService(t *testing.T) *transpiler.Service {
	t.Helper()
	s := transpiler.NewService(transpiler.NewESBuild("es2017"), nil, nil)
	require.NoError(t, s.Init(context.Background()))
	return s
}

func TestCompile(t *testing.T) {
	c := NewCompiler(readyService(t))
	modules, err := c.Compile(context.Background(), []types.ProjectFile{
		file("index.html", "<div id=root></div>"),
		file("style.css", "body{}"),
		file("src/App.jsx", "export default function App() { return <h1>hi</h1>; }"),
		file("src/util.ts", "export const n: number = 1;"),
	})
	require.NoError(t, err)

	assert.Len(t, modules, 2)
	assert.Contains(t, modules["src/App.jsx"].Code, "React.createElement")
	assert.Equal(t, "src/util.ts", modules["src/util.ts"].Path)
	assert.NotContains(t, modules["src/util.ts"].Code, ": number")
}

func TestCompileFailsFast(t *testing.T) {
	c := NewCompiler(readyService(t))
	modules, err := c.Compile(context.Background(), []types.ProjectFile{
		file("a.js", "export const a = 1;"),
		file("broken.jsx", "export default () => <div></span>;"),
		file("c.js", "export const c = ;"),
	})
	require.Error(t, err)
	assert.Nil(t, modules)

	var ce *CompilationError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "broken.jsx", ce.Path)
	assert.Equal(t, 1, ce.Line)
	assert.NotEmpty(t, ce.Message)
	assert.Contains(t, ce.Error(), "broken.jsx:1:")
}

type failingTransformer struct {
	err error
}

func (f failingTransformer) Transform(context.Context, transpiler.Request) (transpiler.Result, error) {
	return transpiler.Result{}, f.err
}

func TestCompileUnavailableIsNotACompilationError(t *testing.T) {
	s := transpiler.NewService(transpiler.NewESBuild(""), nil, nil) // never initialized
	_, err := NewCompiler(s).Compile(context.Background(), []types.ProjectFile{file("a.js", "1")})

	assert.True(t, errors.Is(err, transpiler.ErrUnavailable))
	var ce *CompilationError
	assert.False(t, errors.As(err, &ce))
}

func TestCompileWrapsPlainErrors(t *testing.T) {
	c := NewCompiler(failingTransformer{err: errors.New("boom")})
	_, err := c.Compile(context.Background(), []types.ProjectFile{file("a.js", "1")})

	var ce *CompilationError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "a.js", ce.Path)
	assert.Equal(t, "boom", ce.Message)
}
