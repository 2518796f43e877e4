package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStaticStyleValue(t *testing.T) {
	v := Static("bg-blue-600")
	assert.False(t, v.IsComputed())
	assert.Equal(t, "bg-blue-600", v.Resolve(Presentation{}))
	assert.Equal(t, "bg-blue-600", v.Resolve(Presentation{IsUploading: true}))
}

func TestComputedStyleValue(t *testing.T) {
	v := Computed(func(p Presentation) string {
		if p.IsUploading {
			return "cursor-wait"
		}
		if !p.Ready {
			return "opacity-50"
		}
		return "cursor-pointer"
	})
	assert.True(t, v.IsComputed())
	assert.Equal(t, "opacity-50", v.Resolve(Presentation{}))
	assert.Equal(t, "cursor-pointer", v.Resolve(Presentation{Ready: true}))
	assert.Equal(t, "cursor-wait", v.Resolve(Presentation{IsUploading: true}))
}

func TestComputedContent(t *testing.T) {
	label := Computed(func(p Presentation) string {
		switch {
		case p.IsUploading:
			return "Uploading..."
		case p.Ready:
			return "Choose a file"
		default:
			return "Loading..."
		}
	})
	assert.Equal(t, "Loading...", label.Resolve(Presentation{}))
	assert.Equal(t, "Choose a file", label.Resolve(Presentation{Ready: true}))
	assert.Equal(t, "Uploading...", label.Resolve(Presentation{IsUploading: true}))
}
