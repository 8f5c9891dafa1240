package parse

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// ErrNilValue is returned when a nil value is decoded into a type that has no
// meaningful zero representation for the caller.
var ErrNilValue = errors.New("parse: nil value")

// DecodeAs converts value into T.
//
// Values already of type T are returned unchanged. Strings are parsed with
// [FromString]. Everything else is re-encoded as JSON and decoded into T, so
// a map[string]any produced by an endpoint can be read into a struct.
func DecodeAs[T any](value any) (T, error) {
	var result T

	if value == nil {
		return result, ErrNilValue
	}
	if typed, ok := value.(T); ok {
		return typed, nil
	}
	if text, ok := value.(string); ok {
		return FromString[T](text)
	}
	if raw, ok := value.(json.RawMessage); ok {
		return FromString[T](string(raw))
	}

	encoded, err := json.Marshal(value)
	if err != nil {
		return result, fmt.Errorf("parse: encode %T: %w", value, err)
	}
	if err := json.Unmarshal(encoded, &result); err != nil {
		return result, fmt.Errorf("parse: decode %T as %T: %w", value, result, err)
	}
	return result, nil
}

// FromString parses content into T.
//
// Primitive kinds are converted directly with strconv. Composite kinds are
// decoded as JSON; when that fails, the JSON is extracted from surrounding
// prose or markdown fences, repaired, and decoded again.
func FromString[T any](content string) (T, error) {
	var result T
	target := reflect.ValueOf(&result).Elem()
	trimmed := strings.TrimSpace(content)

	switch target.Kind() {
	case reflect.String:
		target.SetString(content)
		return result, nil

	case reflect.Bool:
		val, err := strconv.ParseBool(unquote(trimmed))
		if err != nil {
			return result, fmt.Errorf("parse: %q as bool: %w", trimmed, err)
		}
		target.SetBool(val)
		return result, nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		val, err := strconv.ParseInt(unquote(trimmed), 10, target.Type().Bits())
		if err != nil {
			return result, fmt.Errorf("parse: %q as int: %w", trimmed, err)
		}
		target.SetInt(val)
		return result, nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		val, err := strconv.ParseUint(unquote(trimmed), 10, target.Type().Bits())
		if err != nil {
			return result, fmt.Errorf("parse: %q as uint: %w", trimmed, err)
		}
		target.SetUint(val)
		return result, nil

	case reflect.Float32, reflect.Float64:
		val, err := strconv.ParseFloat(unquote(trimmed), target.Type().Bits())
		if err != nil {
			return result, fmt.Errorf("parse: %q as float: %w", trimmed, err)
		}
		target.SetFloat(val)
		return result, nil
	}

	err := json.Unmarshal([]byte(trimmed), &result)
	if err == nil {
		return result, nil
	}

	candidate := extractJSON(trimmed)
	repaired, repairErr := jsonrepair.JSONRepair(candidate)
	if repairErr != nil {
		return result, fmt.Errorf("parse: decode as %T: %w (repair failed: %v)", result, err, repairErr)
	}
	if retryErr := json.Unmarshal([]byte(repaired), &result); retryErr != nil {
		return result, fmt.Errorf("parse: decode repaired JSON as %T: %w", result, retryErr)
	}
	return result, nil
}

// extractJSON returns the JSON-looking part of text: the body of the first
// markdown code fence, or the span from the first bracket to the matching
// last bracket. The input is returned unchanged when neither is found.
func extractJSON(text string) string {
	if start := strings.Index(text, "```"); start >= 0 {
		body := text[start+3:]
		if newline := strings.IndexByte(body, '\n'); newline >= 0 {
			body = body[newline+1:]
		}
		if end := strings.Index(body, "```"); end >= 0 {
			body = body[:end]
		}
		return strings.TrimSpace(body)
	}

	start := strings.IndexAny(text, "{[")
	if start < 0 {
		return text
	}
	closing := "}"
	if text[start] == '[' {
		closing = "]"
	}
	if end := strings.LastIndex(text, closing); end > start {
		return text[start : end+1]
	}
	return text[start:]
}

func unquote(text string) string {
	if len(text) >= 2 && text[0] == '"' && text[len(text)-1] == '"' {
		return text[1 : len(text)-1]
	}
	return text
}
