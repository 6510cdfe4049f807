package pipeline

import (
	"fmt"
	"sort"

	"github.com/vk/stagegraph/internal/pipeerr"
)

// Parameter is one runtime parameter of a pipeline.
type Parameter struct {
	Key   string
	Value any
}

// Parameters returns the pipeline parameters in declaration order.
func (d *Document) Parameters() ([]Parameter, error) {
	list, err := d.constants()
	if err != nil {
		return nil, err
	}

	params := make([]Parameter, 0, len(list))
	for i, item := range list {
		entry, ok := item.(map[string]any)
		if !ok {
			return nil, &pipeerr.MalformedError{
				Subject: ConfigConstants,
				Reason:  fmt.Sprintf("entry %d is %T, not an object", i, item),
			}
		}
		key, _ := entry["key"].(string)
		params = append(params, Parameter{Key: key, Value: entry["value"]})
	}
	return params, nil
}

// AppendParameters appends params to the pipeline parameters in the given order.
func (d *Document) AppendParameters(params ...Parameter) error {
	list, err := d.constants()
	if err != nil {
		return err
	}
	for _, p := range params {
		list = append(list, map[string]any{"key": p.Key, "value": p.Value})
	}
	return d.Configuration.Set(ConfigConstants, list)
}

// AddParameters appends every key of values, sorted by key.
func (d *Document) AddParameters(values map[string]any) error {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	params := make([]Parameter, len(keys))
	for i, k := range keys {
		params[i] = Parameter{Key: k, Value: values[k]}
	}
	return d.AppendParameters(params...)
}

func (d *Document) constants() ([]any, error) {
	raw, err := d.Configuration.Get(ConfigConstants)
	if err != nil {
		return nil, err
	}
	switch v := raw.(type) {
	case nil:
		return []any{}, nil
	case []any:
		return v, nil
	case []map[string]any:
		out := make([]any, len(v))
		for i := range v {
			out[i] = v[i]
		}
		return out, nil
	default:
		return nil, &pipeerr.MalformedError{Subject: ConfigConstants, Reason: fmt.Sprintf("value is %T, not a list", raw)}
	}
}
