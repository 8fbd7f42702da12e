package preview

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/GriffinCanCode/playground/internal/shared/types"
)

func file(p, content string) types.ProjectFile {
	return types.ProjectFile{Path: p, Content: content}
}

func TestScanExcludesHostProvided(t *testing.T) {
	got := Scan([]types.ProjectFile{
		file("index.js", "import x from 'left-pad'; import react from 'react';"),
	})
	assert.Equal(t, []string{"left-pad"}, got)
}

func TestScan(t *testing.T) {
	tests := []struct {
		name  string
		files []types.ProjectFile
		want  []string
	}{
		{
			name: "static forms",
			files: []types.ProjectFile{file("a.js", `
import confetti from 'canvas-confetti';
import * as d3 from "d3";
import { debounce, throttle } from 'lodash';
import 'normalize.css';
export { format } from 'date-fns';
export * from '@scope/pkg';
import ReactDOM from 'react-dom/client';
`)},
			want: []string{"canvas-confetti", "d3", "lodash", "normalize.css", "date-fns", "@scope/pkg"},
		},
		{
			name: "dynamic forms in source order",
			files: []types.ProjectFile{file("a.js", `
const a = require('axios');
import b from 'b-pkg';
const c = await import("c-pkg");
`)},
			want: []string{"axios", "b-pkg", "c-pkg"},
		},
		{
			name:  "multi-line named imports",
			files: []types.ProjectFile{file("a.tsx", "import {\n  a,\n  b,\n} from 'multi';\n")},
			want:  []string{"multi"},
		},
		{
			name: "relative absolute and url specifiers are skipped",
			files: []types.ProjectFile{file("a.js", `
import x from './x';
import y from '../y';
import z from '/z';
import w from 'https://esm.sh/w';
`)},
			want: nil,
		},
		{
			name: "deduplicated across files in store order",
			files: []types.ProjectFile{
				file("b.js", "import 'second'; import 'first';"),
				file("a.js", "import 'first'; require('third');"),
			},
			want: []string{"second", "first", "third"},
		},
		{
			name: "non-script files are ignored",
			files: []types.ProjectFile{
				file("index.html", `<script>import x from 'html-only'</script>`),
				file("style.css", `@import 'css-only';`),
				file("notes.md", `import x from 'md-only'`),
			},
			want: nil,
		},
		{
			name:  "member calls named require are not imports",
			files: []types.ProjectFile{file("a.js", "loader.require('nope'); obj.import('nope2');")},
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Scan(tt.files))
		})
	}
}

// The scanner is textual. These cases pin down its known limits.
func TestScanKnownLimits(t *testing.T) {
	t.Run("false positive in comment", func(t *testing.T) {
		got := Scan([]types.ProjectFile{file("a.js", "// import x from 'commented-out'\n")})
		assert.Equal(t, []string{"commented-out"}, got)
	})

	t.Run("false positive in string", func(t *testing.T) {
		got := Scan([]types.ProjectFile{file("a.js", `const s = "require('in-string')";`)})
		assert.Equal(t, []string{"in-string"}, got)
	})

	t.Run("computed specifiers are missed", func(t *testing.T) {
		got := Scan([]types.ProjectFile{file("a.js", "const n = 'lib'; require(n); import(`pkg-${n}`);")})
		assert.Empty(t, got)
	})
}

func TestIsBare(t *testing.T) {
	assert.True(t, IsBare("lodash"))
	assert.True(t, IsBare("@scope/pkg/sub"))
	assert.False(t, IsBare("./a"))
	assert.False(t, IsBare("../a"))
	assert.False(t, IsBare("/a"))
	assert.False(t, IsBare("https://cdn/x.js"))
	assert.False(t, IsBare(""))
}
