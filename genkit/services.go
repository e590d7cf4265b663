package genkit

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"text/template"

	"go.uber.org/zap"
)

// grammarParser is the default line-oriented parser: an optional
// "grammar <Name>" header, "Name: definition" productions, and "//"
// comments.
type grammarParser struct {
	log *zap.Logger
}

// NewGrammarParser creates the default parser.
func NewGrammarParser(log *zap.Logger) GrammarParser {
	return &grammarParser{log: log}
}

func (p *grammarParser) Parse(ctx context.Context, source string) (*Grammar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	g := &Grammar{Name: "grammar"}

	for i, line := range strings.Split(source, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}

		if name, ok := strings.CutPrefix(line, "grammar "); ok {
			g.Name = strings.TrimSpace(name)
			continue
		}

		name, def, ok := strings.Cut(line, ":")
		if !ok {
			return nil, fmt.Errorf("parse: line %d: expected \"Name: definition\", got %q", i+1, line)
		}

		g.Rules = append(g.Rules, Rule{
			Name:       strings.TrimSpace(name),
			Definition: strings.TrimSpace(def),
		})
	}

	if len(g.Rules) == 0 {
		return nil, fmt.Errorf("parse: grammar %q has no rules", g.Name)
	}

	p.log.Debug("parsed grammar",
		zap.String("grammar", g.Name),
		zap.Int("rules", len(g.Rules)))

	return g, nil
}

// linter is the default structural linter.
type linter struct {
	log *zap.Logger
}

// NewLinter creates the default linter. It reports duplicate rule names and
// empty definitions as errors, and rules unreachable from the entry rule
// (the first rule) as warnings.
func NewLinter(log *zap.Logger) Linter {
	return &linter{log: log}
}

func (l *linter) Lint(ctx context.Context, g *Grammar) []Diagnostic {
	var diags []Diagnostic

	seen := make(map[string]bool, len(g.Rules))
	for _, r := range g.Rules {
		if seen[r.Name] {
			diags = append(diags, Diagnostic{
				Rule:     r.Name,
				Message:  "duplicate rule name",
				Severity: "error",
			})
		}
		seen[r.Name] = true

		if r.Definition == "" {
			diags = append(diags, Diagnostic{
				Rule:     r.Name,
				Message:  "empty definition",
				Severity: "error",
			})
		}
	}

	referenced := make(map[string]bool, len(g.Rules))
	for _, r := range g.Rules {
		for name := range seen {
			if name != r.Name && strings.Contains(r.Definition, name) {
				referenced[name] = true
			}
		}
	}
	for i, r := range g.Rules {
		if i == 0 {
			continue // entry rule
		}
		if !referenced[r.Name] {
			diags = append(diags, Diagnostic{
				Rule:     r.Name,
				Message:  "rule is never referenced",
				Severity: "warning",
			})
		}
	}

	l.log.Debug("linted grammar",
		zap.String("grammar", g.Name),
		zap.Int("diagnostics", len(diags)))

	return diags
}

// Built-in template names.
const (
	TemplateDocs  = "docs"
	TemplateTypes = "types"
	TemplateTests = "tests"
	TemplateCICD  = "cicd"
)

var builtinTemplates = map[string]string{
	TemplateDocs: `# {{.Name}}

Generated reference for the {{.Name}} grammar.

{{range .Rules}}## {{.Name}}

` + "```" + `
{{.Name}}: {{.Definition}}
` + "```" + `

{{end}}`,

	TemplateTypes: `// Code generated for grammar {{.Name}}. DO NOT EDIT.

package {{.Name | lower}}

{{range .Rules}}type {{.Name}} struct {
	Text string
}

{{end}}`,

	TemplateTests: `// Code generated for grammar {{.Name}}. DO NOT EDIT.

package {{.Name | lower}}

import "testing"

{{range .Rules}}func TestParse{{.Name}}(t *testing.T) {
	t.Skip("generated skeleton")
}

{{end}}`,

	TemplateCICD: `name: {{.Name | lower}}-ci
on: [push]
jobs:
  verify:
    steps:
{{range .Rules}}      - run: check-rule {{.Name}}
{{end}}`,
}

// templateService renders named in-memory templates. Callers may register
// additional templates; built-ins cover the bundled generators.
type templateService struct {
	mu        sync.RWMutex
	templates map[string]*template.Template
}

// NewTemplateService creates the template service preloaded with the
// built-in generator templates.
func NewTemplateService() (TemplateService, error) {
	svc := &templateService{templates: make(map[string]*template.Template)}

	for name, text := range builtinTemplates {
		if err := svc.register(name, text); err != nil {
			return nil, err
		}
	}

	return svc, nil
}

func (s *templateService) register(name, text string) error {
	tmpl, err := template.New(name).Funcs(template.FuncMap{
		"lower": strings.ToLower,
	}).Parse(text)
	if err != nil {
		return fmt.Errorf("template %q: %w", name, err)
	}

	s.mu.Lock()
	s.templates[name] = tmpl
	s.mu.Unlock()

	return nil
}

func (s *templateService) Render(name string, data any) (string, error) {
	s.mu.RLock()
	tmpl, ok := s.templates[name]
	s.mu.RUnlock()

	if !ok {
		return "", fmt.Errorf("template %q is not registered", name)
	}

	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("template %q: %w", name, err)
	}

	return sb.String(), nil
}

// templateGenerator is the shared shape of the bundled generators: each one
// renders a single template with the parsed grammar.
type templateGenerator struct {
	kind     string
	template string
	tmpl     TemplateService
	log      *zap.Logger
}

func (g *templateGenerator) Generate(ctx context.Context, grammar *Grammar) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	out, err := g.tmpl.Render(g.template, grammar)
	if err != nil {
		return "", fmt.Errorf("%s generator: %w", g.kind, err)
	}

	g.log.Debug("generated artifact",
		zap.String("generator", g.kind),
		zap.String("grammar", grammar.Name),
		zap.Int("bytes", len(out)))

	return out, nil
}

// NewDocGenerator creates the documentation generator.
func NewDocGenerator(tmpl TemplateService, log *zap.Logger) Generator {
	return &templateGenerator{kind: "docs", template: TemplateDocs, tmpl: tmpl, log: log}
}

// NewTypeSafetyGenerator creates the typed-AST stub generator.
func NewTypeSafetyGenerator(tmpl TemplateService, log *zap.Logger) Generator {
	return &templateGenerator{kind: "types", template: TemplateTypes, tmpl: tmpl, log: log}
}

// NewTestGenerator creates the test-skeleton generator.
func NewTestGenerator(tmpl TemplateService, log *zap.Logger) Generator {
	return &templateGenerator{kind: "tests", template: TemplateTests, tmpl: tmpl, log: log}
}

// NewCICDGenerator creates the CI pipeline generator.
func NewCICDGenerator(tmpl TemplateService, log *zap.Logger) Generator {
	return &templateGenerator{kind: "cicd", template: TemplateCICD, tmpl: tmpl, log: log}
}

// packageManager emits the manifest describing generated output.
type packageManager struct {
	outputDir string
}

// NewPackageManager creates the default package-manager service.
func NewPackageManager(outputDir string) PackageManagerService {
	return &packageManager{outputDir: outputDir}
}

func (p *packageManager) Manifest(g *Grammar) (string, error) {
	manifest := struct {
		Name      string   `json:"name"`
		Version   string   `json:"version"`
		OutputDir string   `json:"outputDir"`
		Rules     []string `json:"rules"`
	}{
		Name:      strings.ToLower(g.Name),
		Version:   "0.1.0",
		OutputDir: p.outputDir,
	}
	for _, r := range g.Rules {
		manifest.Rules = append(manifest.Rules, r.Name)
	}

	out, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return "", fmt.Errorf("manifest: %w", err)
	}

	return string(out), nil
}
