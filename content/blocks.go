package content

import (
	"fmt"

	"github.com/canopysites/canopy/store"
)

// BlockSpec describes one block kind: its type tag and the attributes a
// block of that kind must carry.
type BlockSpec struct {
	Kind     string
	Required []string
}

// BlockRegistry holds the known block kinds. The router validates incoming
// blocks against it at the storage boundary and never interprets block
// attributes beyond that.
type BlockRegistry struct {
	specs map[string]BlockSpec
}

// NewBlockRegistry creates an empty registry.
func NewBlockRegistry() *BlockRegistry {
	return &BlockRegistry{specs: make(map[string]BlockSpec)}
}

// Register adds a block kind. Registering an existing kind replaces it;
// call during startup, before the registry is shared.
func (r *BlockRegistry) Register(spec BlockSpec) {
	r.specs[spec.Kind] = spec
}

// Known reports whether a block kind is registered.
func (r *BlockRegistry) Known(kind string) bool {
	_, ok := r.specs[kind]
	return ok
}

// Validate checks a block sequence: every block must carry a registered
// type tag and the attributes its kind requires.
func (r *BlockRegistry) Validate(blocks []Block) error {
	for i, b := range blocks {
		spec, ok := r.specs[b.Type]
		if !ok {
			return fmt.Errorf("block %d: %q: %w", i, b.Type, ErrUnknownBlock)
		}
		for _, attr := range spec.Required {
			if _, present := b.Attrs[attr]; !present {
				return fmt.Errorf("%w: block %d (%s) missing attribute %q", store.ErrInvalidInput, i, b.Type, attr)
			}
		}
	}
	return nil
}

// DefaultBlockRegistry returns the block kinds the editor ships with.
func DefaultBlockRegistry() *BlockRegistry {
	r := NewBlockRegistry()
	r.Register(BlockSpec{Kind: "heading", Required: []string{"text"}})
	r.Register(BlockSpec{Kind: "richText", Required: []string{"html"}})
	r.Register(BlockSpec{Kind: "image", Required: []string{"url"}})
	r.Register(BlockSpec{Kind: "hero", Required: []string{"heading"}})
	r.Register(BlockSpec{Kind: "productGrid", Required: []string{"categoryId"}})
	r.Register(BlockSpec{Kind: "contactForm", Required: nil})
	r.Register(BlockSpec{Kind: "spacer", Required: nil})
	return r
}
