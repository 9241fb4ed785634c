package firestream

import (
	"testing"
	"time"

	"github.com/go-playground/assert/v2"
)

func TestMetaToDataAndBack(t *testing.T) {
	meta := NewMeta("friends", "http://example.com/pic.png", map[string]any{
		"topic": "go",
	})

	wrapped := meta.ToData(nil, true)
	inner := wrapped[KeyMeta].(map[string]any)
	assert.Equal(t, "friends", inner[KeyName])
	assert.Equal(t, "http://example.com/pic.png", inner[KeyImageURL])

	decoded := MetaFromDocument(wrapped)
	assert.Equal(t, "friends", decoded.Name)
	assert.Equal(t, "http://example.com/pic.png", decoded.ImageURL)
	assert.Equal(t, "go", decoded.Data["topic"])

	// unwrapped documents decode the same way
	decoded = MetaFromDocument(meta.ToData(nil, false))
	assert.Equal(t, "friends", decoded.Name)
}

func TestMetaToDataTimestamp(t *testing.T) {
	meta := NewMeta("friends", "", nil)
	data := meta.ToData("sentinel", false)
	assert.Equal(t, "sentinel", data[KeyCreated])

	// without a timestamp the created field is omitted
	data = meta.ToData(nil, false)
	_, ok := data[KeyCreated]
	assert.Equal(t, false, ok)
}

func TestMetaCopy(t *testing.T) {
	meta := NewMeta("friends", "", map[string]any{"k": "v"})
	meta.Created = time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC)

	copied := meta.Copy()
	copied.Name = "other"
	copied.Data["k"] = "w"

	assert.Equal(t, "friends", meta.Name)
	assert.Equal(t, "v", meta.Data["k"])
	assert.Equal(t, meta.Created, copied.Created)
}
