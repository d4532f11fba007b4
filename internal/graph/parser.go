package graph

import (
	"context"
	"fmt"
)

// Analysis holds the outputs of analyzing a single module: the positional
// edits that rewrite module syntax, the import and export descriptors, the
// trailing export assignments to append, and any analyzer warnings.
type Analysis struct {
	Edits   []Edit   `json:"edits"`
	Imports []Import `json:"imports"`
	Exports Exports  `json:"exports"`
	Appends []string `json:"appends"`

	// Satisfied lists export names already covered by an edit or append.
	Satisfied []string `json:"satisfied"`

	// Warnings are recognized-but-unsupported constructs (left verbatim).
	Warnings []Warning `json:"warnings"`
}

// Warning reports a construct the analyzer recognizes but does not rewrite,
// such as a namespace re-export. The construct is preserved verbatim.
type Warning struct {
	Construct string `json:"construct"`
	Start     uint   `json:"start"`
}

// Parser turns module source text into an Analysis.
// Implementations: TreeSitterParser.
type Parser interface {
	// Parse analyzes a single module. key is the canonical module key,
	// source is the file content.
	Parse(ctx context.Context, key string, source []byte) (*Analysis, error)

	// Close releases parser resources (Tree-sitter C memory).
	Close() error
}

// ReadError reports that a module file could not be read.
type ReadError struct {
	Key string
	Err error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("graph: read module %s: %v", e.Key, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// ParseError reports that a module's source does not parse.
type ParseError struct {
	Key string
	Err error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("graph: parse module %s: %v", e.Key, e.Err)
	}
	return fmt.Sprintf("graph: parse module %s: syntax error", e.Key)
}

func (e *ParseError) Unwrap() error { return e.Err }
