package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilderDefaults(t *testing.T) {
	t.Parallel()

	err := Newf("something broke").Build()
	assert.Equal(t, ComponentUnknown, err.Component)
	assert.Equal(t, CategoryGeneric, err.Category)
	assert.False(t, err.Timestamp.IsZero())
}

func TestBuilderMetadata(t *testing.T) {
	t.Parallel()

	err := New(ErrImageDecode).
		Component("imageproc").
		Category(CategoryImageDecode).
		Context("image_size", 42).
		Build()

	assert.Equal(t, "imageproc", err.Component)
	assert.Equal(t, CategoryImageDecode, err.Category)
	assert.Equal(t, 42, err.GetContext()["image_size"])
	assert.True(t, Is(err, ErrImageDecode))
}

func TestWrapCarriesMetadata(t *testing.T) {
	t.Parallel()

	inner := New(ErrModelNotLoaded).
		Component("dermnet").
		Category(CategoryState).
		Build()

	outer := Wrap(fmt.Errorf("analyze: %w", inner)).Context("stage", "classify").Build()
	assert.Equal(t, "dermnet", outer.Component)
	assert.Equal(t, CategoryState, outer.Category)
	assert.True(t, Is(outer, ErrModelNotLoaded))
}

func TestIsCategory(t *testing.T) {
	t.Parallel()

	err := Newf("constraint violated").Category(CategoryDatabase).Build()
	wrapped := fmt.Errorf("saving record: %w", err)

	assert.True(t, IsCategory(wrapped, CategoryDatabase))
	assert.False(t, IsCategory(wrapped, CategoryValidation))
	assert.False(t, IsCategory(NewStd("plain"), CategoryDatabase))
}

func TestContextCopyIsIsolated(t *testing.T) {
	t.Parallel()

	err := Newf("x").Context("k", "v").Build()
	ctx := err.GetContext()
	require.NotNil(t, ctx)
	ctx["k"] = "mutated"
	assert.Equal(t, "v", err.GetContext()["k"])
}
