package genkit

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const sampleSource = `grammar Calc
// arithmetic expressions
Expr: Term (("+" | "-") Term)*
Term: Factor (("*" | "/") Factor)*
Factor: NUMBER | "(" Expr ")"
`

func parseSample(t *testing.T) *Grammar {
	t.Helper()

	g, err := NewGrammarParser(zap.NewNop()).Parse(context.Background(), sampleSource)
	require.NoError(t, err)

	return g
}

func TestGrammarParser_Parse(t *testing.T) {
	g := parseSample(t)

	assert.Equal(t, "Calc", g.Name)
	require.Len(t, g.Rules, 3)
	assert.Equal(t, "Expr", g.Rules[0].Name)
	assert.Equal(t, `NUMBER | "(" Expr ")"`, g.Rules[2].Definition)
}

func TestGrammarParser_NoHeader(t *testing.T) {
	g, err := NewGrammarParser(zap.NewNop()).Parse(context.Background(), "A: B\nB: token")

	require.NoError(t, err)
	assert.Equal(t, "grammar", g.Name)
	assert.Len(t, g.Rules, 2)
}

func TestGrammarParser_MalformedLine(t *testing.T) {
	_, err := NewGrammarParser(zap.NewNop()).Parse(context.Background(), "not a production")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 1")
}

func TestGrammarParser_EmptyGrammar(t *testing.T) {
	_, err := NewGrammarParser(zap.NewNop()).Parse(context.Background(), "// only comments\n")

	assert.Error(t, err)
}

func TestGrammarParser_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewGrammarParser(zap.NewNop()).Parse(ctx, sampleSource)

	assert.ErrorIs(t, err, context.Canceled)
}

func TestLinter_CleanGrammar(t *testing.T) {
	diags := NewLinter(zap.NewNop()).Lint(context.Background(), parseSample(t))

	assert.Empty(t, diags)
}

func TestLinter_DuplicateAndEmpty(t *testing.T) {
	g := &Grammar{Name: "bad", Rules: []Rule{
		{Name: "A", Definition: "B"},
		{Name: "B", Definition: ""},
		{Name: "B", Definition: "token"},
	}}

	diags := NewLinter(zap.NewNop()).Lint(context.Background(), g)

	var messages []string
	for _, d := range diags {
		if d.Severity == "error" {
			messages = append(messages, d.Message)
		}
	}
	assert.Contains(t, messages, "duplicate rule name")
	assert.Contains(t, messages, "empty definition")
}

func TestLinter_UnreferencedRuleIsWarning(t *testing.T) {
	g := &Grammar{Name: "g", Rules: []Rule{
		{Name: "Entry", Definition: "token"},
		{Name: "Orphan", Definition: "token"},
	}}

	diags := NewLinter(zap.NewNop()).Lint(context.Background(), g)

	require.Len(t, diags, 1)
	assert.Equal(t, "Orphan", diags[0].Rule)
	assert.Equal(t, "warning", diags[0].Severity)
}

func TestTemplateService_BuiltinsRegistered(t *testing.T) {
	svc, err := NewTemplateService()
	require.NoError(t, err)

	for _, name := range []string{TemplateDocs, TemplateTypes, TemplateTests, TemplateCICD} {
		out, err := svc.Render(name, parseSample(t))
		require.NoError(t, err, name)
		assert.NotEmpty(t, out, name)
	}
}

func TestTemplateService_UnknownTemplate(t *testing.T) {
	svc, err := NewTemplateService()
	require.NoError(t, err)

	_, err = svc.Render("missing", nil)

	assert.Error(t, err)
}

func TestGenerators_ProduceArtifacts(t *testing.T) {
	svc, err := NewTemplateService()
	require.NoError(t, err)

	g := parseSample(t)
	log := zap.NewNop()
	ctx := context.Background()

	docs, err := NewDocGenerator(svc, log).Generate(ctx, g)
	require.NoError(t, err)
	assert.Contains(t, docs, "# Calc")
	assert.Contains(t, docs, "## Expr")

	types, err := NewTypeSafetyGenerator(svc, log).Generate(ctx, g)
	require.NoError(t, err)
	assert.Contains(t, types, "package calc")
	assert.Contains(t, types, "type Expr struct")

	tests, err := NewTestGenerator(svc, log).Generate(ctx, g)
	require.NoError(t, err)
	assert.Contains(t, tests, "func TestParseExpr(t *testing.T)")

	cicd, err := NewCICDGenerator(svc, log).Generate(ctx, g)
	require.NoError(t, err)
	assert.Contains(t, cicd, "name: calc-ci")
	assert.Contains(t, cicd, "check-rule Expr")
}

func TestGenerator_CancelledContext(t *testing.T) {
	svc, err := NewTemplateService()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = NewDocGenerator(svc, zap.NewNop()).Generate(ctx, parseSample(t))

	assert.ErrorIs(t, err, context.Canceled)
}

func TestPackageManager_Manifest(t *testing.T) {
	out, err := NewPackageManager("dist").Manifest(parseSample(t))
	require.NoError(t, err)

	var manifest struct {
		Name      string   `json:"name"`
		Version   string   `json:"version"`
		OutputDir string   `json:"outputDir"`
		Rules     []string `json:"rules"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &manifest))

	assert.Equal(t, "calc", manifest.Name)
	assert.Equal(t, "0.1.0", manifest.Version)
	assert.Equal(t, "dist", manifest.OutputDir)
	assert.Equal(t, []string{"Expr", "Term", "Factor"}, manifest.Rules)
}
