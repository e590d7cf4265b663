package genkit

import (
	"context"

	"go.uber.org/zap"

	"github.com/dslforge/kiln"
)

// DefaultModules returns the fixed module order applied by the container
// factories: Core → Business → Factory → HealthCheck. Later modules may
// reference earlier modules' identifiers, but nothing resolves until the
// container is active.
func DefaultModules(cfg Config, logger *zap.Logger) []kiln.Module {
	return []kiln.Module{
		CoreModule(cfg, logger),
		BusinessModule(),
		FactoryModule(),
		HealthModule(),
	}
}

// CoreModule binds the ambient services every other module depends on: the
// logger and the loaded configuration.
func CoreModule(cfg Config, logger *zap.Logger) kiln.Module {
	return kiln.NewModule("core", func(c kiln.Container) error {
		if err := kiln.RegisterInstanceToken(c, LoggerToken, logger); err != nil {
			return err
		}

		return kiln.RegisterInstanceToken(c, ConfigToken, cfg)
	})
}

// BusinessModule binds the generator toolchain's services as singletons
// under their stable identifiers.
func BusinessModule() kiln.Module {
	return kiln.NewModule("business", func(c kiln.Container) error {
		if err := kiln.RegisterToken(c, TemplatesToken, func(r kiln.Resolver) (TemplateService, error) {
			return NewTemplateService()
		}, kiln.Singleton()); err != nil {
			return err
		}

		if err := kiln.RegisterToken(c, GrammarParserToken, func(r kiln.Resolver) (GrammarParser, error) {
			log, err := resolveLogger(r)
			if err != nil {
				return nil, err
			}
			return NewGrammarParser(log), nil
		}, kiln.Singleton(), kiln.WithDependencies(ServiceLogger)); err != nil {
			return err
		}

		if err := kiln.RegisterToken(c, LinterToken, func(r kiln.Resolver) (Linter, error) {
			log, err := resolveLogger(r)
			if err != nil {
				return nil, err
			}
			return NewLinter(log), nil
		}, kiln.Singleton(), kiln.WithDependencies(ServiceLogger)); err != nil {
			return err
		}

		generators := []struct {
			token kiln.Token[Generator]
			build func(TemplateService, *zap.Logger) Generator
		}{
			{DocGeneratorToken, NewDocGenerator},
			{TypeSafetyGeneratorToken, NewTypeSafetyGenerator},
			{TestGeneratorToken, NewTestGenerator},
			{CICDGeneratorToken, NewCICDGenerator},
		}
		for _, gen := range generators {
			build := gen.build
			if err := kiln.RegisterToken(c, gen.token, func(r kiln.Resolver) (Generator, error) {
				instance, err := r.Resolve(ServiceTemplates)
				if err != nil {
					return nil, err
				}
				tmpl := instance.(TemplateService)
				log, err := resolveLogger(r)
				if err != nil {
					return nil, err
				}
				return build(tmpl, log), nil
			}, kiln.Singleton(), kiln.WithDependencies(ServiceTemplates, ServiceLogger)); err != nil {
				return err
			}
		}

		return kiln.RegisterToken(c, PackageManagerToken, func(r kiln.Resolver) (PackageManagerService, error) {
			cfg, err := resolveConfig(r)
			if err != nil {
				return nil, err
			}
			return NewPackageManager(cfg.OutputDir), nil
		}, kiln.Singleton(), kiln.WithDependencies(ServiceConfig))
	})
}

// FactoryModule binds lazy factory wrappers for the generators, so services
// can depend on a generator without forcing its construction.
func FactoryModule() kiln.Module {
	return kiln.NewModule("factory", func(c kiln.Container) error {
		wrappers := []struct {
			name   string
			target kiln.Token[Generator]
		}{
			{FactoryDocGenerator, DocGeneratorToken},
			{FactoryTypeSafetyGenerator, TypeSafetyGeneratorToken},
			{FactoryTestGenerator, TestGeneratorToken},
			{FactoryCICDGenerator, CICDGeneratorToken},
		}

		for _, w := range wrappers {
			target := w.target
			if err := c.Register(w.name, func(r kiln.Resolver) (any, error) {
				return kiln.NewLazyToken(r.Container(), target), nil
			}, kiln.Singleton()); err != nil {
				return err
			}
		}

		return nil
	})
}

// HealthModule binds the readiness registry: one check per business service,
// each probing that the service still resolves.
func HealthModule() kiln.Module {
	return kiln.NewModule("health", func(c kiln.Container) error {
		return kiln.RegisterToken(c, ReadinessToken, func(r kiln.Resolver) (*kiln.HealthCheckRegistry, error) {
			registry := kiln.NewHealthCheckRegistry()
			owner := r.Container()

			for _, name := range []string{
				ServiceGrammarParser,
				ServiceLinter,
				ServiceTemplates,
				ServiceDocGenerator,
				ServiceTypeSafetyGenerator,
				ServiceTestGenerator,
				ServiceCICDGenerator,
				ServicePackageManager,
			} {
				service := name
				err := registry.RegisterCheck(service, func(ctx context.Context) error {
					_, err := owner.ResolveCtx(ctx, service)
					return err
				})
				if err != nil {
					return nil, err
				}
			}

			return registry, nil
		}, kiln.Singleton())
	})
}

func resolveLogger(r kiln.Resolver) (*zap.Logger, error) {
	instance, err := r.Resolve(ServiceLogger)
	if err != nil {
		return nil, err
	}

	return instance.(*zap.Logger), nil
}

func resolveConfig(r kiln.Resolver) (Config, error) {
	instance, err := r.Resolve(ServiceConfig)
	if err != nil {
		return Config{}, err
	}

	return instance.(Config), nil
}
