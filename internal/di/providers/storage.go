package providers

import (
	"os"

	"github.com/samber/do/v2"

	"github.com/townsquareapp/townsquare-server/internal/config"
	"github.com/townsquareapp/townsquare-server/internal/logger"
	"github.com/townsquareapp/townsquare-server/internal/store/archive"
	"github.com/townsquareapp/townsquare-server/internal/store/sqlite"
)

// StoreHandle wraps the content store with shutdown capability.
type StoreHandle struct {
	*sqlite.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore provides the SQLite content store.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if err := os.MkdirAll(cfg.Storage.DataPath, 0o750); err != nil {
		return nil, err
	}

	db, err := sqlite.Open(cfg.Storage.DatabasePath, log.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Database initialized", "path", cfg.Storage.DatabasePath)

	return &StoreHandle{Store: db}, nil
}

// ArchiveHandle wraps the archive log with shutdown capability.
type ArchiveHandle struct {
	*archive.Log
}

// Shutdown implements do.Shutdownable.
func (h *ArchiveHandle) Shutdown() error {
	return h.Close()
}

// ProvideArchiveLog provides the append-only content archive log.
func ProvideArchiveLog(i do.Injector) (*ArchiveHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	arch, err := archive.Open(cfg.Storage.ArchivePath, log.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Archive log initialized", "path", cfg.Storage.ArchivePath)

	return &ArchiveHandle{Log: arch}, nil
}
