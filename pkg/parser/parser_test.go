package parser

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/lae/internal/engine"
	"github.com/ajitpratap0/lae/pkg/compression"
	"github.com/ajitpratap0/lae/pkg/computation"
	"github.com/ajitpratap0/lae/pkg/errors"
	"github.com/ajitpratap0/lae/pkg/testutil"
)

const nested = `{
  "operator": "*",
  "operands": [
    {"operator": "+", "operands": [[[1, 2], [3, 4]], [[5, 6], [7, 8]], [[0, 0], [0, 1]]]},
    {"operator": "T", "operands": [[[1, 0], [2, 1]]]}
  ]
}`

func TestParseStructure(t *testing.T) {
	g, err := ParseBytes([]byte(nested))
	require.NoError(t, err)

	assert.Equal(t, "((2x2 + 2x2 + 2x2) * T(2x2))", g.Describe(g.Root()))
	assert.Equal(t, 7, g.Size())

	kind, err := g.Kind(g.Root())
	require.NoError(t, err)
	assert.Equal(t, computation.NodeMultiply, kind)

	children, err := g.Children(g.Root())
	require.NoError(t, err)
	require.Len(t, children, 2)

	sum, err := g.Children(children[0])
	require.NoError(t, err)
	first, err := g.Matrix(sum[0])
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{1, 2}, {3, 4}}, first)
}

func TestParseOperatorAliases(t *testing.T) {
	tests := map[string]computation.NodeType{
		"+": computation.NodeAdd, "add": computation.NodeAdd,
		"*": computation.NodeMultiply, "MULTIPLY": computation.NodeMultiply,
		"-": computation.NodeNegate, "negate": computation.NodeNegate,
		"T": computation.NodeTranspose, " transpose ": computation.NodeTranspose,
	}
	for op, want := range tests {
		g, err := ParseBytes([]byte(`{"operator": "` + op + `", "operands": [[[1]]]}`))
		require.NoError(t, err, op)
		kind, err := g.Kind(g.Root())
		require.NoError(t, err)
		assert.Equal(t, want, kind, op)
	}
}

func TestParseBareMatrix(t *testing.T) {
	g, err := ParseBytes([]byte(" [[1.5, -2], [3e2, 0]] \n"))
	require.NoError(t, err)
	assert.True(t, g.IsReduced())

	m, err := g.Matrix(g.Root())
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{1.5, -2}, {300, 0}}, m)
}

func TestParseKeepsOperandCountsForTheEngine(t *testing.T) {
	g, err := ParseBytes([]byte(`{"operator": "-", "operands": [[[1]], [[2]]]}`))
	require.NoError(t, err)
	children, err := g.Children(g.Root())
	require.NoError(t, err)
	assert.Len(t, children, 2)
}

func TestParseErrors(t *testing.T) {
	tests := map[string]string{
		"empty":           "",
		"scalar":          "42",
		"null":            "null",
		"ragged":          "[[1, 2], [3]]",
		"vector":          "[1, 2, 3]",
		"null row":        "[[1], null]",
		"string cell":     `[["a"]]`,
		"unknown op":      `{"operator": "/", "operands": [[[1]], [[2]]]}`,
		"missing op":      `{"operands": [[[1]]]}`,
		"unknown field":   `{"operator": "+", "operands": [], "extra": 1}`,
		"bad operand":     `{"operator": "+", "operands": [[[1]], true]}`,
		"truncated":       `{"operator": "+", "operands": [[[1]]`,
		"trailing object": `{"operator": "-", "operands": [[[1]]]} {"operator": "-"}`,
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseBytes([]byte(doc))
			require.Error(t, err)
			assert.Truef(t, errors.IsType(err, errors.ErrorTypeValidation), "got %v", err)
		})
	}
}

func TestParseErrorNamesThePath(t *testing.T) {
	_, err := ParseBytes([]byte(`{"operator": "+", "operands": [[[1]], {"operator": "?", "operands": []}]}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "$.operands[1]")
}

func TestParseDepthLimit(t *testing.T) {
	doc := strings.Repeat(`{"operator": "-", "operands": [`, MaxDepth+1) + "[[1]]" + strings.Repeat("]}", MaxDepth+1)
	_, err := ParseBytes([]byte(doc))
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()

	for _, name := range []string{"in.json", "in.json.gz", "in.json.zst", "in.json.lz4", "in.json.s2"} {
		t.Run(name, func(t *testing.T) {
			comp, err := compression.NewCompressor(&compression.Config{Algorithm: compression.ForPath(name)})
			require.NoError(t, err)
			data, err := comp.Compress([]byte(nested))
			require.NoError(t, err)

			path := filepath.Join(dir, name)
			require.NoError(t, os.WriteFile(path, data, 0o600))

			g, err := ParseFile(path)
			require.NoError(t, err)
			assert.Equal(t, 7, g.Size())
		})
	}
}

func TestParseFileErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := ParseFile(filepath.Join(dir, "missing.json"))
	assert.True(t, errors.IsType(err, errors.ErrorTypeFile))

	path := filepath.Join(dir, "plain.json.gz")
	require.NoError(t, os.WriteFile(path, []byte(nested), 0o600))
	_, err = ParseFile(path)
	assert.True(t, errors.IsType(err, errors.ErrorTypeFile), "uncompressed data behind a .gz name")
}

func TestParseReader(t *testing.T) {
	g, err := Parse(strings.NewReader(`{"operator": "-", "operands": [[[1, 2]]]}`))
	require.NoError(t, err)
	assert.Equal(t, "-(1x2)", g.Describe(g.Root()))
}

func TestParsedDocumentEvaluates(t *testing.T) {
	g, err := ParseBytes([]byte(nested))
	require.NoError(t, err)

	e, err := engine.New(engine.Config{Threads: 2}, testutil.TestLogger(t))
	require.NoError(t, err)
	defer e.Close()

	got, err := e.Run(context.Background(), g)
	require.NoError(t, err)

	// sum = [[6,8],[10,13]], T = [[1,2],[0,1]]
	assert.Equal(t, [][]float64{{6, 20}, {10, 33}}, got)
}
