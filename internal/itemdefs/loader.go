package itemdefs

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/osse101/invengine/internal/logger"
	"github.com/osse101/invengine/internal/validation"
)

// SchemaName is the name the catalog schema is registered under.
const SchemaName = "itemdefs.schema.json"

//go:embed schema.json
var catalogSchema []byte

// Sentinel errors for the catalog loader
var (
	ErrInvalidCatalog = errors.New("invalid item catalog")
	ErrDuplicateDef   = errors.New("duplicate item definition")
)

// Loader reads catalog files. JSON and YAML are both accepted.
type Loader struct {
	schemaValidator validation.SchemaValidator
}

// NewLoader creates a Loader with the catalog schema registered.
func NewLoader(v validation.SchemaValidator) (*Loader, error) {
	if err := v.Register(SchemaName, catalogSchema); err != nil {
		return nil, fmt.Errorf("register catalog schema: %w", err)
	}
	return &Loader{schemaValidator: v}, nil
}

// Load reads, schema-validates and parses a catalog file.
func (l *Loader) Load(ctx context.Context, path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf(ErrMsgReadFileFailed, path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yamlToJSON(data)
		if err != nil {
			return nil, fmt.Errorf(ErrMsgParseFailed, path, err)
		}
	}

	file, err := l.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	logger.FromContext(ctx).Info(LogMsgCatalogLoaded, "path", path, "items", len(file.Items))
	return file, nil
}

// Parse validates a JSON catalog document and decodes it.
func (l *Loader) Parse(data []byte) (*File, error) {
	if err := l.schemaValidator.ValidateBytes(SchemaName, data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}

	var file File
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}

	if err := validateDefs(file.Items); err != nil {
		return nil, err
	}
	return &file, nil
}

func validateDefs(defs []ItemDef) error {
	seenIDs := make(map[uint32]bool, len(defs))
	seenKeys := make(map[string]bool, len(defs))

	for i := range defs {
		def := &defs[i]
		if seenIDs[def.TypeID] {
			return fmt.Errorf("%w: defId=%d", ErrDuplicateDef, def.TypeID)
		}
		seenIDs[def.TypeID] = true
		if seenKeys[def.Key] {
			return fmt.Errorf("%w: key=%s", ErrDuplicateDef, def.Key)
		}
		seenKeys[def.Key] = true

		if def.Stack != nil && def.Stack.Mode == StackModeStack && def.Stack.Max == 0 {
			return fmt.Errorf("%w: defId=%d: stack mode requires max", ErrInvalidCatalog, def.TypeID)
		}

		if err := def.parseSlots(); err != nil {
			return fmt.Errorf("%w: defId=%d: %v", ErrInvalidCatalog, def.TypeID, err)
		}
	}
	return nil
}

func yamlToJSON(data []byte) ([]byte, error) {
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return json.Marshal(doc)
}
