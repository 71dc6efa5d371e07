package itemdefs

// DefaultStackMax is used when neither the catalog nor the caller supplies a cap.
const DefaultStackMax uint32 = 999

// Error message formats
const (
	ErrMsgReadFileFailed = "failed to read catalog %s: %w"
	ErrMsgParseFailed    = "failed to parse catalog %s: %w"
)

// Log messages
const (
	LogMsgCatalogLoaded = "Item catalog loaded"
)
