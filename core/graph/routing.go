package graph

import (
	"reflect"
	"slices"
	"strconv"
	"strings"
)

// route picks the part of an upstream result that feeds a target port:
//
//   - a mapping holding the source port name yields that entry;
//   - a sequence yields the element at the source port's position among
//     several declared outputs, or at the ordinal encoded in its name
//     ("output_N" is N, "output" is 0), else element 0, else nothing;
//   - anything else is passed whole.
//
// With several declared outputs the declared position takes precedence over
// the ordinal name, so a port literally named "output_0" declared second
// reads element 1. Otherwise the ordinal rule applies. A mapping without the
// key falls through to the scalar rule. The boolean is false when the port
// stays unset.
func route(result any, sourcePort string, declared []string) (any, bool) {
	if mapping, isMapping := asMapping(result); isMapping {
		if value, found := mapping[sourcePort]; found {
			return value, true
		}
		return result, true
	}

	if sequence, isSequence := asSequence(result); isSequence {
		ordinal, parsed := -1, false
		if len(declared) > 1 {
			ordinal, parsed = slices.Index(declared, sourcePort), true
		}
		if ordinal < 0 {
			ordinal, parsed = portOrdinal(sourcePort)
		}
		if parsed && ordinal >= 0 && ordinal < len(sequence) {
			return sequence[ordinal], true
		}
		if len(sequence) > 0 {
			return sequence[0], true
		}
		return nil, false
	}

	return result, true
}

// portOrdinal parses "output_N" as N and "output" as 0.
func portOrdinal(port string) (int, bool) {
	if port == DefaultOutputPort {
		return 0, true
	}

	digits, hasPrefix := strings.CutPrefix(port, DefaultOutputPort+"_")
	if !hasPrefix {
		return 0, false
	}

	ordinal, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return ordinal, true
}

// asMapping views string-keyed maps as map[string]any.
func asMapping(value any) (map[string]any, bool) {
	switch typed := value.(type) {
	case map[string]any:
		return typed, true
	case nil:
		return nil, false
	}

	reflected := reflect.ValueOf(value)
	if reflected.Kind() != reflect.Map || reflected.Type().Key().Kind() != reflect.String {
		return nil, false
	}

	mapping := make(map[string]any, reflected.Len())
	iterator := reflected.MapRange()
	for iterator.Next() {
		mapping[iterator.Key().String()] = iterator.Value().Interface()
	}
	return mapping, true
}

// asSequence views slices and arrays as []any. Byte slices and strings are
// scalars.
func asSequence(value any) ([]any, bool) {
	switch typed := value.(type) {
	case []any:
		return typed, true
	case nil, []byte, string:
		return nil, false
	}

	reflected := reflect.ValueOf(value)
	if reflected.Kind() != reflect.Slice && reflected.Kind() != reflect.Array {
		return nil, false
	}

	sequence := make([]any, reflected.Len())
	for index := range sequence {
		sequence[index] = reflected.Index(index).Interface()
	}
	return sequence, true
}
