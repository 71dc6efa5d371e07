package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/osse101/invengine/internal/config"
	"github.com/osse101/invengine/internal/itemdefs"
	"github.com/osse101/invengine/internal/logger"
	"github.com/osse101/invengine/internal/validation"
)

// LoadCatalog reads and validates the item catalog named by ITEM_DEFS_PATH.
// A missing file yields an empty catalog where every type uses DEFAULT_STACK_MAX.
func LoadCatalog(ctx context.Context, cfg *config.Config) (*itemdefs.Catalog, error) {
	if cfg.ItemDefsPath == "" {
		return itemdefs.NewCatalog(nil, cfg.DefaultStackMax), nil
	}
	if _, err := os.Stat(cfg.ItemDefsPath); errors.Is(err, fs.ErrNotExist) {
		logger.FromContext(ctx).Warn(LogMsgCatalogMissing, "path", cfg.ItemDefsPath)
		return itemdefs.NewCatalog(nil, cfg.DefaultStackMax), nil
	}

	loader, err := itemdefs.NewLoader(validation.NewSchemaValidator())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedCreateLoader, err)
	}
	file, err := loader.Load(ctx, cfg.ItemDefsPath)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedLoadCatalog, err)
	}
	return itemdefs.NewCatalog(file.Items, cfg.DefaultStackMax), nil
}
