package firestream

import (
	"time"

	"golang.org/x/exp/maps"
)

// Meta is a chat's descriptive metadata. The in-memory copy is a cache of the
// backend document, reconciled by the meta listener.
type Meta struct {
	Name     string         `json:"name"`
	ImageURL string         `json:"image-url"`
	Created  time.Time      `json:"created"`
	Data     map[string]any `json:"data"`
}

func NewMeta(name string, imageURL string, data map[string]any) *Meta {
	return &Meta{
		Name:     name,
		ImageURL: imageURL,
		Data:     data,
	}
}

func (self *Meta) Copy() *Meta {
	copy := *self
	if self.Data != nil {
		copy.Data = maps.Clone(self.Data)
	}
	return &copy
}

// ToData serializes the meta for a write. A non-nil timestamp stamps the
// created field with the server-timestamp sentinel. With wrap set, the map is
// nested under the meta key the way the chat document stores it.
func (self *Meta) ToData(timestamp any, wrap bool) map[string]any {
	data := map[string]any{
		KeyName:     self.Name,
		KeyImageURL: self.ImageURL,
	}
	if self.Data != nil {
		data[KeyData] = self.Data
	}
	if timestamp != nil {
		data[KeyCreated] = timestamp
	}
	if wrap {
		return map[string]any{
			KeyMeta: data,
		}
	}
	return data
}

// MetaFromDocument decodes a chat document's raw map, unwrapping the meta key
// when present.
func MetaFromDocument(data map[string]any) *Meta {
	raw := data
	if wrapped, ok := data[KeyMeta].(map[string]any); ok {
		raw = wrapped
	}
	meta := &Meta{}
	if err := decodeRawMap(raw, meta); err != nil {
		// decode fallback: keep the zero meta rather than failing the stream
		return &Meta{}
	}
	return meta
}
