package workflowfile

import (
	"fmt"
	"math/big"

	"github.com/zclconf/go-cty/cty"
)

// toGo converts an HCL literal to plain Go values: strings, int or float64,
// bools, []any and map[string]any. Null and unknown values become nil.
func toGo(value cty.Value) (any, error) {
	if value.IsNull() || !value.IsKnown() {
		return nil, nil
	}

	valueType := value.Type()
	switch {
	case valueType == cty.String:
		return value.AsString(), nil
	case valueType == cty.Bool:
		return value.True(), nil
	case valueType == cty.Number:
		number := value.AsBigFloat()
		if number.IsInt() {
			if integer, accuracy := number.Int64(); accuracy == big.Exact {
				return int(integer), nil
			}
		}
		float, _ := number.Float64()
		return float, nil
	case valueType.IsObjectType() || valueType.IsMapType():
		mapping := make(map[string]any, value.LengthInt())
		for iterator := value.ElementIterator(); iterator.Next(); {
			key, element := iterator.Element()
			converted, err := toGo(element)
			if err != nil {
				return nil, err
			}
			mapping[key.AsString()] = converted
		}
		return mapping, nil
	case valueType.IsTupleType() || valueType.IsListType() || valueType.IsSetType():
		sequence := make([]any, 0, value.LengthInt())
		for iterator := value.ElementIterator(); iterator.Next(); {
			_, element := iterator.Element()
			converted, err := toGo(element)
			if err != nil {
				return nil, err
			}
			sequence = append(sequence, converted)
		}
		return sequence, nil
	default:
		return nil, fmt.Errorf("unsupported value type %s", valueType.FriendlyName())
	}
}

// toMapping converts an optional object literal. A missing value yields nil.
func toMapping(value *cty.Value, attribute string) (map[string]any, error) {
	if value == nil {
		return nil, nil
	}

	converted, err := toGo(*value)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", attribute, err)
	}
	if converted == nil {
		return nil, nil
	}

	mapping, isMapping := converted.(map[string]any)
	if !isMapping {
		return nil, fmt.Errorf("%s must be an object, got %s", attribute, value.Type().FriendlyName())
	}
	return mapping, nil
}
