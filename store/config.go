package store

// Config holds configuration for the Store.
type Config struct {
	// Table is the name of the single DynamoDB table holding all records.
	// Default: "canopy_site"
	Table string

	// MaxTransactItems caps the number of items folded into one
	// TransactWriteItems call. DynamoDB rejects transactions above 100
	// items; edge rebuilds that exceed the cap fall back to per-item
	// writes.
	// Default: 100
	MaxTransactItems int
}

// DefaultConfig returns defaults suitable for a single-table deployment.
func DefaultConfig() Config {
	return Config{
		Table:            "canopy_site",
		MaxTransactItems: 100,
	}
}

// validate ensures config values are within acceptable bounds.
func (c *Config) validate() {
	if c.Table == "" {
		c.Table = "canopy_site"
	}
	if c.MaxTransactItems < 1 || c.MaxTransactItems > 100 {
		c.MaxTransactItems = 100
	}
}
