package content

import (
	"fmt"

	"github.com/canopysites/canopy/store"
)

var (
	// ErrSlugTaken is returned when a slug is already occupied by any route
	// record, live or redirect, within the tenant.
	ErrSlugTaken = fmt.Errorf("content: slug already in use: %w", store.ErrConflict)

	// ErrStaleVersion is returned when an update carried an expected version
	// and the stored node has advanced since it was read.
	ErrStaleVersion = fmt.Errorf("content: node modified concurrently: %w", store.ErrConflict)

	// ErrUnknownBlock is returned when a block's type tag is not registered.
	ErrUnknownBlock = fmt.Errorf("content: unknown block kind: %w", store.ErrInvalidInput)
)
