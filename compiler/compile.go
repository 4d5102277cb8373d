// Package compiler is the single entry point for the DSL compile pipeline
// (spec §1 C1, §6 "Compiler I/O"): it strings the lexer, parser, analyzer,
// and codegen packages together into one `Compile` call that turns DSL
// source text into a serialized PNGB byte buffer, the way a GPU resource
// core exposes one validated entry point (`RequestAdapter`/`RequestDevice`
// style descriptor calls) over its internal registries rather than making
// callers drive each stage themselves.
package compiler

import (
	"fmt"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/HugoDaniel/pngine/compiler/analyzer"
	"github.com/HugoDaniel/pngine/compiler/codegen"
	"github.com/HugoDaniel/pngine/compiler/parser"
	"github.com/HugoDaniel/pngine/format"
)

// config is the functional-options target for Compile (spec SPEC_FULL.md
// "Configuration": the compiler is a library, so behavior is selected by
// Option values rather than a config file).
type config struct {
	legacyFirstFrameOnly bool
}

// Option configures a Compile call.
type Option func(*config)

// WithLegacyFirstFrameOnly documents the source runtime's pre-fix behavior
// of always executing the first `define_frame` regardless of the
// animation table (spec §9 Open Question 1). PNGine has no legacy
// executor to reproduce that behavior against, so this option is a stub:
// it is accepted for discoverability but Compile reports
// ErrUnsupportedOption rather than silently ignoring it.
func WithLegacyFirstFrameOnly() Option {
	return func(c *config) { c.legacyFirstFrameOnly = true }
}

// ErrUnsupportedOption is returned by Compile for an Option this build
// does not implement.
var ErrUnsupportedOption = fmt.Errorf("compiler: option not supported in this build")

// Result is everything a successful Compile call produces: the serialized
// PNGB bytes ready to embed in a PNG container, and the in-memory Module
// they were serialized from (useful for tests and for tools that want to
// inspect tables without a round-trip deserialize).
type Result struct {
	PNGB   []byte
	Module *format.Module
}

// Compile runs the full C1 pipeline (lexer → parser → analyzer → codegen
// → serialize) over source and returns the assembled PNGB buffer.
//
// Errors from any stage are returned as-is (callers can type-assert to
// *lexer.Error / *parser.Error / *analyzer.DuplicateName / etc. per spec
// §6); Location wraps any error carrying a byte offset into a
// "path:line:col: message" string for the stderr-reporting convention
// spec §7 describes.
func Compile(source string, opts ...Option) (*Result, error) {
	cfg := &config{}
	for _, o := range opts {
		o(cfg)
	}
	if cfg.legacyFirstFrameOnly {
		return nil, ErrUnsupportedOption
	}

	clean, err := stripBOM(source)
	if err != nil {
		return nil, err
	}

	ast, err := parser.Parse(clean)
	if err != nil {
		return nil, err
	}

	res, err := analyzer.Analyze(ast)
	if err != nil {
		return nil, err
	}

	mod, _, err := codegen.Generate(res)
	if err != nil {
		return nil, err
	}

	buf, err := mod.Serialize()
	if err != nil {
		return nil, err
	}

	return &Result{PNGB: buf, Module: mod}, nil
}

// stripBOM removes a leading UTF-8 byte-order mark from source, so a
// `#wgsl` file saved by an external editor with a BOM does not corrupt the
// lexer's first token (spec SPEC_FULL.md DOMAIN STACK). Text without a BOM
// passes through unchanged.
func stripBOM(source string) (string, error) {
	out, _, err := transform.String(unicode.BOMOverride(transform.Nop), source)
	if err != nil {
		return "", fmt.Errorf("compiler: stripping BOM: %w", err)
	}
	return out, nil
}
