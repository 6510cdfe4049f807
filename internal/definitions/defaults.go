package definitions

import (
	"github.com/vk/stagegraph/internal/confmap"
)

// DefaultValue materializes the initial value of a configuration. Null
// booleans become false, empty lists and maps become empty lists and a
// LIST_BEAN model yields one bean built from its own definitions.
func (cd *ConfigDefinition) DefaultValue() any {
	value := cd.Default

	switch cd.Type {
	case ConfigModel:
		if cd.Model == nil {
			break
		}
		switch cd.Model.ModelType {
		case ModelFieldSelectorMultiValue:
			if isFalsy(value) {
				value = []any{}
			}
		case ModelListBean:
			bean := make(map[string]any, len(cd.Model.ConfigDefinitions))
			for _, child := range cd.Model.ConfigDefinitions {
				if v := child.DefaultValue(); v != nil {
					bean[child.Name] = v
				}
			}
			value = []any{bean}
		}
	case ConfigBoolean:
		if value == nil {
			value = false
		}
	case ConfigList, ConfigMap:
		if isFalsy(value) {
			value = []any{}
		}
	}
	return value
}

// Defaults returns the default configuration for cds, in definition order.
func Defaults(cds []*ConfigDefinition) confmap.Map {
	m := make(confmap.Map, 0, len(cds))
	for _, cd := range cds {
		m = append(m, confmap.Entry{Name: cd.Name, Value: cd.DefaultValue()})
	}
	return m
}

// isFalsy follows the JSON notion of an empty value: null, false, zero, ""
// and empty collections.
func isFalsy(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case bool:
		return !t
	case float64:
		return t == 0
	case int:
		return t == 0
	case string:
		return t == ""
	case []any:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	}
	return false
}
