// Package parser reads expression documents into computation graphs.
//
// A document is one JSON node. A node is either a matrix, written as an array
// of equal-length rows of numbers, or an operator object:
//
//	{"operator": "*", "operands": [
//	    {"operator": "+", "operands": [[[1, 2], [3, 4]], [[5, 6], [7, 8]]]},
//	    {"operator": "T", "operands": [[[1, 0], [0, 1]]]}
//	]}
//
// Operators are "+", "*", "-" and "T", or their long names "add", "multiply",
// "negate" and "transpose". Operand counts are not checked here; the engine
// reports them when the operator is evaluated.
package parser

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/ajitpratap0/lae/pkg/compression"
	"github.com/ajitpratap0/lae/pkg/computation"
	"github.com/ajitpratap0/lae/pkg/errors"
	"github.com/ajitpratap0/lae/pkg/json"
	"github.com/ajitpratap0/lae/pkg/memory"
)

// MaxDepth bounds the nesting of operator objects.
const MaxDepth = 1024

var operators = map[string]computation.NodeType{
	"+":         computation.NodeAdd,
	"add":       computation.NodeAdd,
	"*":         computation.NodeMultiply,
	"multiply":  computation.NodeMultiply,
	"-":         computation.NodeNegate,
	"negate":    computation.NodeNegate,
	"t":         computation.NodeTranspose,
	"transpose": computation.NodeTranspose,
}

type operatorNode struct {
	Operator *string           `json:"operator"`
	Operands []json.RawMessage `json:"operands"`
}

// ParseFile reads and parses the document at path. A compressed extension
// (.gz, .zst, .s2, .sz, .lz4) is decompressed first.
func ParseFile(path string) (*computation.Graph, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to read input file").
			WithDetail("path", path)
	}

	comp, err := compression.NewCompressor(&compression.Config{Algorithm: compression.ForPath(path)})
	if err != nil {
		return nil, err
	}
	data, err := comp.Decompress(raw)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to decompress input file").
			WithDetail("path", path).
			WithDetail("algorithm", string(comp.Algorithm()))
	}

	return ParseBytes(data)
}

// Parse reads a whole document from r.
func Parse(r io.Reader) (*computation.Graph, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to read input")
	}
	return ParseBytes(data)
}

// ParseBytes parses a document held in memory.
func ParseBytes(data []byte) (*computation.Graph, error) {
	g := computation.NewGraph()
	root, err := parseNode(g, data, "$", 0)
	if err != nil {
		return nil, err
	}
	if err := g.SetRoot(root); err != nil {
		return nil, err
	}
	return g, nil
}

func parseNode(g *computation.Graph, data []byte, path string, depth int) (computation.NodeID, error) {
	if depth > MaxDepth {
		return computation.InvalidNode, invalid(path, "expression nested deeper than %d levels", MaxDepth)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return computation.InvalidNode, invalid(path, "empty document")
	}

	switch trimmed[0] {
	case '[':
		return parseMatrix(g, trimmed, path)
	case '{':
		return parseOperator(g, trimmed, path, depth)
	default:
		return computation.InvalidNode, invalid(path, "expected a matrix or an operator object")
	}
}

func parseMatrix(g *computation.Graph, data []byte, path string) (computation.NodeID, error) {
	var rows [][]float64
	if err := json.Unmarshal(data, &rows); err != nil {
		return computation.InvalidNode, errors.Wrap(err, errors.ErrorTypeValidation, "malformed matrix").
			WithDetail("path", path)
	}
	for i, row := range rows {
		if row == nil {
			return computation.InvalidNode, invalid(path, "row %d is null", i)
		}
	}
	if _, _, err := memory.Shape(rows); err != nil {
		return computation.InvalidNode, errors.Wrap(err, errors.ErrorTypeValidation, "matrix is not rectangular").
			WithDetail("path", path)
	}
	return g.AddMatrix(rows), nil
}

func parseOperator(g *computation.Graph, data []byte, path string, depth int) (computation.NodeID, error) {
	var doc operatorNode
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&doc); err != nil {
		return computation.InvalidNode, errors.Wrap(err, errors.ErrorTypeValidation, "malformed operator").
			WithDetail("path", path)
	}
	if dec.More() {
		return computation.InvalidNode, invalid(path, "unexpected data after operator object")
	}
	if doc.Operator == nil {
		return computation.InvalidNode, invalid(path, `operator object has no "operator" field`)
	}

	kind, ok := operators[strings.ToLower(strings.TrimSpace(*doc.Operator))]
	if !ok {
		return computation.InvalidNode, invalid(path, "unknown operator %q", *doc.Operator)
	}

	children := make([]computation.NodeID, 0, len(doc.Operands))
	for i, operand := range doc.Operands {
		child, err := parseNode(g, operand, path+".operands["+strconv.Itoa(i)+"]", depth+1)
		if err != nil {
			return computation.InvalidNode, err
		}
		children = append(children, child)
	}

	id, err := g.AddOperator(kind, children...)
	if err != nil {
		return computation.InvalidNode, errors.Wrap(err, errors.ErrorTypeValidation, "invalid operator").
			WithDetail("path", path)
	}
	return id, nil
}

func invalid(path, format string, args ...interface{}) error {
	return errors.Newf(errors.ErrorTypeValidation, "%s: %s", path, fmt.Sprintf(format, args...)).
		WithDetail("path", path)
}
