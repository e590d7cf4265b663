package genkit

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/dslforge/kiln"
)

// DefaultValidationPolicy names the identifiers a correctly assembled
// container must resolve. Core and business services are required; factory
// wrappers and the readiness registry degrade to warnings.
func DefaultValidationPolicy() kiln.ValidationPolicy {
	return kiln.ValidationPolicy{
		Required: []string{
			ServiceLogger,
			ServiceConfig,
			ServiceGrammarParser,
			ServiceLinter,
			ServiceTemplates,
			ServiceDocGenerator,
			ServiceTypeSafetyGenerator,
			ServiceTestGenerator,
			ServiceCICDGenerator,
			ServicePackageManager,
		},
		Optional: []string{
			FactoryDocGenerator,
			FactoryTypeSafetyGenerator,
			FactoryTestGenerator,
			FactoryCICDGenerator,
			ServiceReadiness,
		},
	}
}

// NewDefaultContainer builds the standard container: configuration from
// defaults and environment, production logging at the configured level, and
// validation per the loaded config.
func NewDefaultContainer() (kiln.Container, error) {
	cfg, err := LoadConfig("")
	if err != nil {
		return nil, err
	}

	logger, err := buildLogger(cfg, false)
	if err != nil {
		return nil, err
	}

	return buildContainer(cfg, logger, cfg.ValidateOnBuild)
}

// NewDevelopmentContainer builds a container with verbose development
// logging and validation always on.
func NewDevelopmentContainer() (kiln.Container, error) {
	cfg, err := LoadConfig("")
	if err != nil {
		return nil, err
	}
	cfg.LogLevel = "debug"

	logger, err := buildLogger(cfg, true)
	if err != nil {
		return nil, err
	}

	return buildContainer(cfg, logger, true)
}

// NewProductionContainer builds a container with warn-level logging, strict
// registration, and validation always on.
func NewProductionContainer() (kiln.Container, error) {
	cfg, err := LoadConfig("")
	if err != nil {
		return nil, err
	}
	cfg.LogLevel = "warn"
	cfg.StrictRegistration = true

	logger, err := buildLogger(cfg, false)
	if err != nil {
		return nil, err
	}

	return buildContainer(cfg, logger, true)
}

// NewTestContainer builds a silent container with validation off, for tests
// that override bindings.
func NewTestContainer() (kiln.Container, error) {
	cfg := DefaultConfig()
	cfg.ValidateOnBuild = false

	return buildContainer(cfg, zap.NewNop(), false)
}

func buildContainer(cfg Config, logger *zap.Logger, validate bool) (kiln.Container, error) {
	builder := kiln.NewBuilder(
		kiln.WithMaxDepth(cfg.MaxResolutionDepth),
		kiln.WithStrictRegistration(cfg.StrictRegistration),
		kiln.WithLogger(logger),
		kiln.WithHook(kiln.NewLoggingHook(logger)),
	).WithModule(DefaultModules(cfg, logger)...)

	if validate {
		builder = builder.WithValidation(DefaultValidationPolicy())
	}

	return builder.Build()
}

func buildLogger(cfg Config, development bool) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("config: invalid log_level %q: %w", cfg.LogLevel, err)
	}

	var zcfg zap.Config
	if development {
		zcfg = zap.NewDevelopmentConfig()
	} else {
		zcfg = zap.NewProductionConfig()
	}
	zcfg.Level = level

	return zcfg.Build()
}
