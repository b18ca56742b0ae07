package rest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
)

// The backend's response envelope is not guaranteed. A collection may arrive
// as a bare array, wrapped in a "data" property, wrapped in a "content"
// property (Spring-style pages), or under some other property entirely. The
// search order below is a hard contract; callers must not assume any single
// shape.

// collectionShapeKeys are the envelope properties tried, in priority order,
// before falling back to the first property whose value is an array.
var collectionShapeKeys = []string{"data", "content"}

// decodeCollection extracts the array payload from a response body of
// unknown envelope shape. An empty body, a JSON empty string, or an
// unrecognizable envelope all resolve to an empty collection -- the last
// with a logged warning, never an error.
func decodeCollection(body []byte) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(body)

	// 200 with no content means "no rows" on this backend.
	if len(trimmed) == 0 || string(trimmed) == `""` {
		return []json.RawMessage{}, nil
	}

	if trimmed[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("decode array body: %w", err)
		}
		return items, nil
	}

	if trimmed[0] != '{' {
		slog.Warn("response body matched no known collection shape", "prefix", bodyPrefix(trimmed))
		return []json.RawMessage{}, nil
	}

	props, err := topLevelProperties(trimmed)
	if err != nil {
		return nil, fmt.Errorf("decode object body: %w", err)
	}

	for _, key := range collectionShapeKeys {
		for _, p := range props {
			if p.key == key && isArray(p.value) {
				var items []json.RawMessage
				if err := json.Unmarshal(p.value, &items); err != nil {
					return nil, fmt.Errorf("decode %q property: %w", key, err)
				}
				return items, nil
			}
		}
	}

	// Fall back to the first property, in document order, holding an array.
	for _, p := range props {
		if isArray(p.value) {
			var items []json.RawMessage
			if err := json.Unmarshal(p.value, &items); err != nil {
				return nil, fmt.Errorf("decode %q property: %w", p.key, err)
			}
			return items, nil
		}
	}

	slog.Warn("response body matched no known collection shape", "prefix", bodyPrefix(trimmed))
	return []json.RawMessage{}, nil
}

// decodeItems decodes every element of the normalized collection into T.
func decodeItems[T any](body []byte) ([]T, error) {
	raw, err := decodeCollection(body)
	if err != nil {
		return nil, err
	}

	items := make([]T, 0, len(raw))
	for i, r := range raw {
		var item T
		if err := json.Unmarshal(r, &item); err != nil {
			return nil, fmt.Errorf("decode collection item %d: %w", i, err)
		}
		items = append(items, item)
	}
	return items, nil
}

// emptyEntityBody reports whether a 2xx write acknowledgment carried no
// usable entity: empty, a JSON empty string, or null.
func emptyEntityBody(body []byte) bool {
	trimmed := bytes.TrimSpace(body)
	return len(trimmed) == 0 || string(trimmed) == `""` || string(trimmed) == "null"
}

// unmarshalEntity decodes a single entity that may arrive bare or wrapped in
// a "data" property.
func unmarshalEntity(body []byte, v any) error {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return fmt.Errorf("empty entity body")
	}

	if trimmed[0] == '{' {
		props, err := topLevelProperties(trimmed)
		if err == nil {
			for _, p := range props {
				inner := bytes.TrimSpace(p.value)
				if p.key == "data" && len(inner) > 0 && inner[0] == '{' {
					return json.Unmarshal(inner, v)
				}
			}
		}
	}

	return json.Unmarshal(trimmed, v)
}

// property is one top-level key/value pair of a JSON object, in document order.
type property struct {
	key   string
	value json.RawMessage
}

// topLevelProperties walks the object token by token so property order is the
// deterministic document order rather than Go's randomized map iteration.
func topLevelProperties(body []byte) ([]property, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("expected object, got %v", tok)
	}

	var props []property
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("expected object key, got %v", keyTok)
		}

		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, fmt.Errorf("decode value of %q: %w", key, err)
		}
		props = append(props, property{key: key, value: value})
	}

	return props, nil
}

func isArray(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '['
}

// bodyPrefix truncates a body for log output.
func bodyPrefix(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 80 {
		return s[:80] + "..."
	}
	return s
}
