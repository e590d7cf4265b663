// Package genkit is the composition root of the generator toolchain. It
// declares the service contracts and stable identifiers for the business
// services (grammar parsing, linting, code generation, packaging), the
// default module set that registers them, and environment-specific container
// factories.
package genkit

import (
	"context"
)

// Grammar is the parsed form of a grammar source.
type Grammar struct {
	Name  string
	Rules []Rule
}

// Rule is a single named production.
type Rule struct {
	Name       string
	Definition string
}

// Diagnostic is a linter finding.
type Diagnostic struct {
	Rule     string
	Message  string
	Severity string // "error" or "warning"
}

// GrammarParser extracts a Grammar from source text.
type GrammarParser interface {
	Parse(ctx context.Context, source string) (*Grammar, error)
}

// Linter checks a parsed grammar for structural problems.
type Linter interface {
	Lint(ctx context.Context, g *Grammar) []Diagnostic
}

// TemplateService renders a named template with the given data.
type TemplateService interface {
	Render(name string, data any) (string, error)
}

// Generator produces one artifact (documentation, type stubs, tests, CI
// pipeline) from a parsed grammar.
type Generator interface {
	Generate(ctx context.Context, g *Grammar) (string, error)
}

// PackageManagerService produces the package manifest for generated output.
type PackageManagerService interface {
	Manifest(g *Grammar) (string, error)
}
