package transpiler

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDialectsFor(t *testing.T) {
	assert.Equal(t, []Dialect{DialectJSX}, DialectsFor("src/App.jsx"))
	assert.Equal(t, []Dialect{DialectJSX}, DialectsFor("script.js"))
	assert.Equal(t, []Dialect{DialectTypeScript, DialectJSX}, DialectsFor("src/index.TSX"))
	assert.Equal(t, []Dialect{DialectTypeScript}, DialectsFor("util.ts"))
}

func TestESBuildProducesCommonJS(t *testing.T) {
	e := NewESBuild("es2017")
	require.NoError(t, e.Init(context.Background()))

	res, err := e.Transform(context.Background(), Request{
		Source: `import React from 'react';
import { helper } from './helper';
export default function App() { return <div>{helper()}</div>; }`,
		Filename: "src/App.jsx",
		Dialects: DialectsFor("src/App.jsx"),
	})
	require.NoError(t, err)

	assert.Contains(t, res.Code, `require("react")`)
	assert.Contains(t, res.Code, `require("./helper")`)
	assert.Contains(t, res.Code, "module.exports")
	assert.Contains(t, res.Code, "React.createElement")
	assert.NotContains(t, res.Code, "import ")
}

func TestESBuildStripsTypes(t *testing.T) {
	e := NewESBuild("")
	res, err := e.Transform(context.Background(), Request{
		Source:   "const n: number = 1; export const f = (x: string): string => x + n;",
		Filename: "util.ts",
		Dialects: DialectsFor("util.ts"),
	})
	require.NoError(t, err)
	assert.NotContains(t, res.Code, ": number")
	assert.Contains(t, res.Code, "exports")
}

func TestESBuildParsesTypeAssertionsInTS(t *testing.T) {
	e := NewESBuild("es2017")
	res, err := e.Transform(context.Background(), Request{
		Source:   "const v: unknown = 1;\nexport const n = <number>v;\n",
		Filename: "util.ts",
		Dialects: DialectsFor("util.ts"),
	})
	require.NoError(t, err)
	assert.NotContains(t, res.Code, "<number>")
	assert.Contains(t, res.Code, "exports")
}

func TestESBuildDiagnostic(t *testing.T) {
	e := NewESBuild("es2017")
	_, err := e.Transform(context.Background(), Request{
		Source:   "const ok = 1;\nconst broken = ;\n",
		Filename: "broken.js",
		Dialects: DialectsFor("broken.js"),
	})
	require.Error(t, err)

	var d *Diagnostic
	require.True(t, errors.As(err, &d))
	assert.Equal(t, "broken.js", d.File)
	assert.Equal(t, 2, d.Line)
	assert.Greater(t, d.Column, 0)
	assert.NotEmpty(t, d.Message)
	assert.Contains(t, d.Error(), "broken.js:2:")
}

func TestESBuildHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewESBuild("").Transform(ctx, Request{Source: "1", Filename: "a.js"})
	assert.ErrorIs(t, err, context.Canceled)
}
