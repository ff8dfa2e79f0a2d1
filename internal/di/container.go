// Package di provides dependency injection configuration for the TownSquare server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/townsquareapp/townsquare-server/internal/config"
	"github.com/townsquareapp/townsquare-server/internal/di/providers"
	"github.com/townsquareapp/townsquare-server/internal/logger"
	"github.com/townsquareapp/townsquare-server/internal/service"
	"github.com/townsquareapp/townsquare-server/internal/validation"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideValidator)

	// Storage layer
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideArchiveLog)

	// Business services
	do.Provide(injector, providers.ProvideTagService)
	do.Provide(injector, providers.ProvideLifecycleService)
	do.Provide(injector, providers.ProvideContentService)

	return injector
}

// Bootstrap initializes all services and returns handles for lifecycle management.
// This triggers lazy initialization of all core services.
func Bootstrap(injector *do.RootScope) error {
	_ = do.MustInvoke[*config.Config](injector)
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[*validation.Validator](injector)
	_ = do.MustInvoke[*providers.StoreHandle](injector)
	_ = do.MustInvoke[*providers.ArchiveHandle](injector)

	// Business services
	_ = do.MustInvoke[*service.TagService](injector)
	_ = do.MustInvoke[*service.LifecycleService](injector)
	_ = do.MustInvoke[*service.ContentService](injector)

	return nil
}
