package firestream

import (
	"reflect"
	"time"

	"github.com/mitchellh/mapstructure"
)

// decodeRawMap decodes a raw backend attribute map into a typed struct. Dates
// arrive as time.Time from native backends, as RFC 3339 strings or epoch
// milliseconds from JSON transports; the hooks normalize all three. Decoding
// is weakly typed on purpose - one malformed document must not halt a stream.
func decodeRawMap(data map[string]any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           out,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			stringToTimeHook(),
			millisToTimeHook(),
		),
	})
	if err != nil {
		return err
	}
	return decoder.Decode(data)
}

func stringToTimeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, value any) (any, error) {
		if from.Kind() != reflect.String || to != reflect.TypeOf(time.Time{}) {
			return value, nil
		}
		parsed, err := time.Parse(time.RFC3339Nano, value.(string))
		if err != nil {
			// leave malformed dates at zero rather than failing the document
			return time.Time{}, nil
		}
		return parsed, nil
	}
}

func millisToTimeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, value any) (any, error) {
		if to != reflect.TypeOf(time.Time{}) {
			return value, nil
		}
		switch v := value.(type) {
		case float64:
			return time.UnixMilli(int64(v)), nil
		case int64:
			return time.UnixMilli(v), nil
		default:
			return value, nil
		}
	}
}
