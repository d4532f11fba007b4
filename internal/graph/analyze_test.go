package graph

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// analyze parses source as the module /work/src/mod.js with cwd /work.
func analyze(t *testing.T, source string) *Analysis {
	t.Helper()
	p := NewTreeSitterParser(NewResolver("/work"))
	defer p.Close()

	a, err := p.Parse(context.Background(), "/work/src/mod.js", []byte(source))
	require.NoError(t, err)
	require.NotNil(t, a)
	return a
}

// assertDisjoint checks that edit spans are pairwise non-overlapping.
func assertDisjoint(t *testing.T, edits []Edit) {
	t.Helper()
	sorted := make([]Edit, len(edits))
	copy(sorted, edits)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })
	for i := 1; i < len(sorted); i++ {
		assert.GreaterOrEqual(t, sorted[i].Start, sorted[i-1].End,
			"edits %d and %d overlap", i-1, i)
	}
}

// ---------------------------------------------------------------------------
// Import declarations
// ---------------------------------------------------------------------------

func TestAnalyze_ImportShapes(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		want     string // replacement of the single edit
		resolved string // canonical key of the imported module
	}{
		{
			"default",
			`import d from './a.js';`,
			`const d = require("./src/a.js").default;`,
			"/work/src/a.js",
		},
		{
			"named",
			`import {x} from './a.js';`,
			`const { x } = require("./src/a.js");`,
			"/work/src/a.js",
		},
		{
			"named multiple no rename",
			`import {x, y} from './a.js';`,
			`const { x, y } = require("./src/a.js");`,
			"/work/src/a.js",
		},
		{
			"named renamed",
			`import {x as y} from './a.js';`,
			`const y = require("./src/a.js").x;`,
			"/work/src/a.js",
		},
		{
			"rename forces individual bindings",
			`import {a, x as y} from './a.js';`,
			`const a = require("./src/a.js").a; const y = require("./src/a.js").x;`,
			"/work/src/a.js",
		},
		{
			"namespace",
			`import * as ns from './a.js';`,
			`const ns = require("./src/a.js");`,
			"/work/src/a.js",
		},
		{
			"side effect",
			`import './a.js';`,
			`require("./src/a.js");`,
			"/work/src/a.js",
		},
		{
			"default plus named",
			`import d, {x} from './a.js';`,
			`const d = require("./src/a.js").default; const { x } = require("./src/a.js");`,
			"/work/src/a.js",
		},
		{
			"default plus namespace ordering",
			`import d, * as ns from './a.js';`,
			`const ns = require("./src/a.js"); const d = require("./src/a.js").default;`,
			"/work/src/a.js",
		},
		{
			"specifier without suffix",
			`import {x} from './a';`,
			`const { x } = require("./src/a.js");`,
			"/work/src/a.js",
		},
		{
			"parent directory",
			`import {x} from '../lib/util.js';`,
			`const { x } = require("./lib/util.js");`,
			"/work/lib/util.js",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := analyze(t, tt.source)
			require.Len(t, a.Edits, 1)
			assert.Equal(t, tt.want, a.Edits[0].Replacement)
			assert.Equal(t, uint(0), a.Edits[0].Start)
			assert.Equal(t, uint(len(tt.source)), a.Edits[0].End)
			require.Len(t, a.Imports, 1)
			assert.False(t, a.Imports[0].External)
			assert.Equal(t, tt.resolved, firstLocal(a.Imports).Resolved)
		})
	}
}

// firstLocal returns the first non-external import.
func firstLocal(imports []Import) Import {
	for _, im := range imports {
		if !im.External {
			return im
		}
	}
	return Import{}
}

func TestAnalyze_ExternalImport(t *testing.T) {
	a := analyze(t, `import _ from 'lodash';`)

	require.Len(t, a.Edits, 1)
	assert.Equal(t, `const _ = require("lodash").default;`, a.Edits[0].Replacement)

	require.Len(t, a.Imports, 1)
	assert.True(t, a.Imports[0].External)
	assert.Empty(t, a.Imports[0].Resolved)
}

func TestAnalyze_ImportDescriptor(t *testing.T) {
	a := analyze(t, `import d, {x as y, z} from './a.js';`)

	require.Len(t, a.Imports, 1)
	im := a.Imports[0]
	assert.Equal(t, "./a.js", im.Specifier)
	assert.Equal(t, "d", im.Default)
	assert.Empty(t, im.Namespace)
	assert.Equal(t, []NamedBinding{{Imported: "x", Local: "y"}, {Imported: "z", Local: "z"}}, im.Named)
	assert.ElementsMatch(t, []ImportKind{ImportKindDefault, ImportKindNamed}, im.Kinds())
	assert.Equal(t, uint(0), im.Start)
	assert.Equal(t, uint(len(`import d, {x as y, z} from './a.js';`)), im.End)
}

// ---------------------------------------------------------------------------
// Named export declarations
// ---------------------------------------------------------------------------

func TestAnalyze_ExportConst(t *testing.T) {
	src := `export const x = 2, y = 3;`
	a := analyze(t, src)

	assert.Equal(t, []string{"x", "y"}, a.Exports.Names)
	assert.False(t, a.Exports.HasDefault)
	assert.Equal(t, []string{"exports.x = x;", "exports.y = y;"}, a.Appends)

	// Only the export keyword is stripped; the declaration survives.
	require.Len(t, a.Edits, 1)
	assert.Equal(t, "", a.Edits[0].Replacement)
	assert.Equal(t, uint(0), a.Edits[0].Start)
	assert.Equal(t, uint(len("export ")), a.Edits[0].End)
}

func TestAnalyze_ExportFunctionAndClass(t *testing.T) {
	a := analyze(t, "export function f() { return 1; }\nexport class C {}\n")

	assert.Equal(t, []string{"f", "C"}, a.Exports.Names)
	assert.Equal(t, []string{"exports.f = f;", "exports.C = C;"}, a.Appends)
	require.Len(t, a.Edits, 2)
	for _, e := range a.Edits {
		assert.Empty(t, e.Replacement)
	}
	assertDisjoint(t, a.Edits)
}

func TestAnalyze_ExportDestructuringDeclarator(t *testing.T) {
	a := analyze(t, `export const {a, b} = obj;`)

	// Out of scope: the declarator records no export, the keyword is still
	// stripped.
	assert.Empty(t, a.Exports.Names)
	assert.Empty(t, a.Appends)
	require.Len(t, a.Edits, 1)
}

func TestAnalyze_ExportClause(t *testing.T) {
	a := analyze(t, "const a = 1;\nconst b = 2;\nexport { a, b as c };\n")

	require.Len(t, a.Edits, 1)
	assert.Equal(t, "exports.a = a; exports.c = b;", a.Edits[0].Replacement)
	assert.Equal(t, []string{"a", "c"}, a.Exports.Names)
	assert.Empty(t, a.Appends)
}

func TestAnalyze_ReExportWithSource(t *testing.T) {
	a := analyze(t, `export { x, y as z } from './a.js';`)

	require.Len(t, a.Edits, 1)
	assert.Equal(t,
		`const ___a_js = require("./src/a.js"); exports.x = ___a_js.x; exports.z = ___a_js.y;`,
		a.Edits[0].Replacement)
	assert.Equal(t, []string{"x", "z"}, a.Exports.Names)

	// The source is recorded as a dependency.
	require.Len(t, a.Imports, 1)
	assert.Equal(t, "./a.js", a.Imports[0].Specifier)
	assert.Equal(t, "/work/src/a.js", a.Imports[0].Resolved)
}

func TestAnalyze_ReExportAliasUnique(t *testing.T) {
	a := analyze(t, "export { x } from './a.js';\nexport { y } from './a.js';\n")

	require.Len(t, a.Edits, 2)
	assert.Contains(t, a.Edits[0].Replacement, "const ___a_js = ")
	assert.Contains(t, a.Edits[1].Replacement, "const ___a_js_2 = ")
}

func TestAnalyze_NamespaceReExportWarns(t *testing.T) {
	src := `export * from './a.js';`
	a := analyze(t, src)

	// Recognized but unsupported: warn, leave the statement verbatim.
	assert.Empty(t, a.Edits)
	assert.Empty(t, a.Imports)
	require.Len(t, a.Warnings, 1)
	assert.Equal(t, "export * from", a.Warnings[0].Construct)
}

// ---------------------------------------------------------------------------
// Default export declarations
// ---------------------------------------------------------------------------

func TestAnalyze_DefaultShapes(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		edit    string   // expected whole-statement replacement, "" if strip
		appends []string // expected appends
	}{
		{
			"identifier",
			"const v = 1;\nexport default v;\n",
			"exports.default = v;",
			nil,
		},
		{
			"expression",
			`export default 1 + 2;`,
			"exports.default = 1 + 2;",
			nil,
		},
		{
			"named function",
			`export default function f() { return 1; }`,
			"",
			[]string{"exports.default = f;"},
		},
		{
			"named class",
			`export default class C {}`,
			"",
			[]string{"exports.default = C;"},
		},
		{
			"anonymous function",
			`export default function () { return 1; }`,
			"exports.default = function () { return 1; };",
			nil,
		},
		{
			"anonymous class",
			`export default class {}`,
			"exports.default = class {};",
			nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := analyze(t, tt.source)
			assert.True(t, a.Exports.HasDefault)
			require.Len(t, a.Edits, 1)
			if tt.edit != "" {
				assert.Equal(t, tt.edit, a.Edits[0].Replacement)
			} else {
				// Named declaration: export default prefix stripped in place.
				assert.Empty(t, a.Edits[0].Replacement)
			}
			assert.Equal(t, tt.appends, a.Appends)
		})
	}
}

// ---------------------------------------------------------------------------
// Ordering, dedup, preservation
// ---------------------------------------------------------------------------

func TestAnalyze_EditsInTraversalOrder(t *testing.T) {
	a := analyze(t, "import {x} from './a.js';\nexport const y = 1;\nexport default y;\n")

	require.Len(t, a.Edits, 3)
	for i := 1; i < len(a.Edits); i++ {
		assert.Greater(t, a.Edits[i].Start, a.Edits[i-1].Start)
	}
	assertDisjoint(t, a.Edits)
}

func TestAnalyze_SatisfiedSetDedup(t *testing.T) {
	a := analyze(t, "export const x = 1;\nexport { x };\n")

	// x appears once in the exports set and exactly one assignment source is
	// scheduled for it: the clause edit collapses to nothing.
	assert.Equal(t, []string{"x"}, a.Exports.Names)
	assert.Equal(t, []string{"exports.x = x;"}, a.Appends)
	assert.Contains(t, a.Satisfied, "x")
	require.Len(t, a.Edits, 2)
	assert.Empty(t, a.Edits[1].Replacement)
}

func TestAnalyze_IgnoresNonModuleSyntax(t *testing.T) {
	src := "const a = 1;\nfunction f() { return import.meta; }\nclass C {}\nif (a) { f(); }\n"
	a := analyze(t, src)

	assert.Empty(t, a.Edits)
	assert.Empty(t, a.Imports)
	assert.Empty(t, a.Exports.Names)
	assert.False(t, a.Exports.HasDefault)
}

func TestParse_SyntaxError(t *testing.T) {
	p := NewTreeSitterParser(NewResolver("/work"))
	defer p.Close()

	_, err := p.Parse(context.Background(), "/work/bad.js", []byte(`import { from ;;;`))
	require.Error(t, err)

	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "/work/bad.js", perr.Key)
}
