package content_test

import (
	"errors"
	"testing"

	"github.com/canopysites/canopy/content"
	"github.com/canopysites/canopy/store"
)

// --- Block Registry Tests ---

func TestValidate_KnownBlocks(t *testing.T) {
	r := content.DefaultBlockRegistry()

	blocks := []content.Block{
		{Type: "heading", Attrs: map[string]any{"text": "Welcome"}},
		{Type: "richText", Attrs: map[string]any{"html": "<p>hi</p>"}},
		{Type: "image", Attrs: map[string]any{"url": "https://cdn.example.com/a.png", "alt": "a"}},
		{Type: "spacer", Attrs: nil},
	}
	if err := r.Validate(blocks); err != nil {
		t.Fatalf("expected valid, got %v", err)
	}
}

func TestValidate_UnknownKind(t *testing.T) {
	r := content.DefaultBlockRegistry()

	err := r.Validate([]content.Block{{Type: "carousel", Attrs: map[string]any{}}})
	if !errors.Is(err, content.ErrUnknownBlock) {
		t.Fatalf("expected ErrUnknownBlock, got %v", err)
	}
	if !errors.Is(err, store.ErrInvalidInput) {
		t.Error("ErrUnknownBlock must match ErrInvalidInput")
	}
}

func TestValidate_MissingRequiredAttr(t *testing.T) {
	r := content.DefaultBlockRegistry()

	err := r.Validate([]content.Block{{Type: "productGrid", Attrs: map[string]any{"columns": 3}}})
	if !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestValidate_ExtraAttrsAllowed(t *testing.T) {
	r := content.DefaultBlockRegistry()

	blocks := []content.Block{
		{Type: "heading", Attrs: map[string]any{"text": "Hi", "level": 2, "align": "center"}},
	}
	if err := r.Validate(blocks); err != nil {
		t.Fatalf("extra attributes must be permitted, got %v", err)
	}
}

func TestRegister_CustomKind(t *testing.T) {
	r := content.NewBlockRegistry()
	r.Register(content.BlockSpec{Kind: "video", Required: []string{"src"}})

	if !r.Known("video") {
		t.Fatal("expected registered kind to be known")
	}
	if err := r.Validate([]content.Block{{Type: "video", Attrs: map[string]any{"src": "x.mp4"}}}); err != nil {
		t.Fatalf("expected valid, got %v", err)
	}
}
