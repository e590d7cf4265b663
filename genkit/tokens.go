package genkit

import (
	"go.uber.org/zap"

	"github.com/dslforge/kiln"
)

// Stable service identifiers. These name contracts, never implementations,
// and are resolved from entry points and from other services via tokens or
// factory wrappers.
const (
	ServiceLogger = "core.logger"
	ServiceConfig = "core.config"

	ServiceGrammarParser       = "business.grammarParser"
	ServiceLinter              = "business.linter"
	ServiceTemplates           = "business.templateService"
	ServiceDocGenerator        = "business.docGenerator"
	ServiceTypeSafetyGenerator = "business.typeSafetyGenerator"
	ServiceTestGenerator       = "business.testGenerator"
	ServiceCICDGenerator       = "business.cicdGenerator"
	ServicePackageManager      = "business.packageManager"

	FactoryDocGenerator        = "factory.docGenerator"
	FactoryTypeSafetyGenerator = "factory.typeSafetyGenerator"
	FactoryTestGenerator       = "factory.testGenerator"
	FactoryCICDGenerator       = "factory.cicdGenerator"

	ServiceReadiness = "health.readiness"
)

// Typed tokens for the identifiers above.
var (
	LoggerToken = kiln.NewToken[*zap.Logger](ServiceLogger)
	ConfigToken = kiln.NewToken[Config](ServiceConfig)

	GrammarParserToken       = kiln.NewToken[GrammarParser](ServiceGrammarParser)
	LinterToken              = kiln.NewToken[Linter](ServiceLinter)
	TemplatesToken           = kiln.NewToken[TemplateService](ServiceTemplates)
	DocGeneratorToken        = kiln.NewToken[Generator](ServiceDocGenerator)
	TypeSafetyGeneratorToken = kiln.NewToken[Generator](ServiceTypeSafetyGenerator)
	TestGeneratorToken       = kiln.NewToken[Generator](ServiceTestGenerator)
	CICDGeneratorToken       = kiln.NewToken[Generator](ServiceCICDGenerator)
	PackageManagerToken      = kiln.NewToken[PackageManagerService](ServicePackageManager)

	DocGeneratorFactoryToken        = kiln.NewToken[*kiln.Lazy[Generator]](FactoryDocGenerator)
	TypeSafetyGeneratorFactoryToken = kiln.NewToken[*kiln.Lazy[Generator]](FactoryTypeSafetyGenerator)
	TestGeneratorFactoryToken       = kiln.NewToken[*kiln.Lazy[Generator]](FactoryTestGenerator)
	CICDGeneratorFactoryToken       = kiln.NewToken[*kiln.Lazy[Generator]](FactoryCICDGenerator)

	ReadinessToken = kiln.NewToken[*kiln.HealthCheckRegistry](ServiceReadiness)
)
