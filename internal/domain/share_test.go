package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFirstURL(t *testing.T) {
	assert.Equal(t, "https://example.com/a?b=1", FirstURL("look at https://example.com/a?b=1 now"))
	assert.Equal(t, "http://x.io", FirstURL("http://x.io"))
	assert.Empty(t, FirstURL("just a note, no links"))
	assert.False(t, IsURL("ftp://example.com"))
}

func TestMetadata_FillFrom(t *testing.T) {
	t.Run("keeps populated fields", func(t *testing.T) {
		m := Metadata{Title: "Alice on Instagram", Source: "instagram_mirror"}
		m.FillFrom(Metadata{Title: "Instagram", Description: "caption", Source: "opengraph"})

		assert.Equal(t, "Alice on Instagram", m.Title)
		assert.Equal(t, "caption", m.Description)
		assert.Equal(t, "instagram_mirror", m.Source)
	})

	t.Run("placeholder title is replaced", func(t *testing.T) {
		m := Metadata{Title: UntitledLink}
		m.FillFrom(Metadata{Title: "Real Title"})
		assert.Equal(t, "Real Title", m.Title)
	})

	t.Run("placeholder does not replace placeholder source", func(t *testing.T) {
		m := Metadata{}
		m.FillFrom(Metadata{Title: UntitledLink})
		assert.Equal(t, UntitledLink, m.Title)
		assert.False(t, m.HasTitle())
	})
}
