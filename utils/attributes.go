package utils

import (
	"reflect"

	"github.com/go-viper/mapstructure/v2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// DecodeAttributes decodes a generic attribute map, as read from a JSON or TOML config file,
// into the struct pointed to by out. Field names come from `json` tags, durations may be given as
// strings like "1ms", and vectors may be given either as {"x":..,"y":..,"z":..} or as [x, y, z].
func DecodeAttributes(attributes map[string]interface{}, out interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           out,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			vectorDecodeHook,
		),
	})
	if err != nil {
		return errors.Wrap(err, "building attribute decoder")
	}
	return decoder.Decode(attributes)
}

var vectorType = reflect.TypeOf(r3.Vector{})

func vectorDecodeHook(from, to reflect.Type, data interface{}) (interface{}, error) {
	if to != vectorType || (from.Kind() != reflect.Slice && from.Kind() != reflect.Array) {
		return data, nil
	}
	values := reflect.ValueOf(data)
	if values.Len() != 3 {
		return nil, errors.Errorf("a vector needs 3 components, got %d", values.Len())
	}
	var components [3]float64
	for i := range components {
		if err := mapstructure.WeakDecode(values.Index(i).Interface(), &components[i]); err != nil {
			return nil, errors.Wrapf(err, "vector component %d", i)
		}
	}
	return r3.Vector{X: components[0], Y: components[1], Z: components[2]}, nil
}
