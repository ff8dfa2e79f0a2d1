package providers

import (
	"github.com/samber/do/v2"

	"github.com/townsquareapp/townsquare-server/internal/config"
	"github.com/townsquareapp/townsquare-server/internal/logger"
	"github.com/townsquareapp/townsquare-server/internal/service"
	"github.com/townsquareapp/townsquare-server/internal/validation"
)

// ProvideValidator provides the input payload validator.
func ProvideValidator(i do.Injector) (*validation.Validator, error) {
	return validation.New(), nil
}

// ProvideTagService provides the tag taxonomy service.
func ProvideTagService(i do.Injector) (*service.TagService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewTagService(storeHandle.Store, log.Logger, cfg.Tags.TopCacheTTL), nil
}

// ProvideLifecycleService provides the content lifecycle service.
func ProvideLifecycleService(i do.Injector) (*service.LifecycleService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	archiveHandle := do.MustInvoke[*ArchiveHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewLifecycleService(storeHandle.Store, archiveHandle.Log, log.Logger), nil
}

// ProvideContentService provides the content service.
func ProvideContentService(i do.Injector) (*service.ContentService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	archiveHandle := do.MustInvoke[*ArchiveHandle](i)
	tagService := do.MustInvoke[*service.TagService](i)
	lifecycleService := do.MustInvoke[*service.LifecycleService](i)
	validator := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewContentService(
		storeHandle.Store,
		archiveHandle.Log,
		tagService,
		lifecycleService,
		validator,
		log.Logger,
	), nil
}
