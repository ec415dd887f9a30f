package order

import (
	"encoding/json"
	"fmt"
)

// Document là payload JSON lỏng (map/list/scalar) từ nền tảng nguồn.
// Chỉ đọc qua các helper bên dưới, không cast tay ở ngoài package.
type Document map[string]any

// DecodeDocument parses a raw JSON object into a Document.
func DecodeDocument(data []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	return doc, nil
}

// Doc returns the nested object under key, or nil.
func (d Document) Doc(key string) Document {
	switch v := d[key].(type) {
	case map[string]any:
		return Document(v)
	case Document:
		return v
	default:
		return nil
	}
}

// List returns the array under key, or nil.
func (d Document) List(key string) []any {
	v, _ := d[key].([]any)
	return v
}

// String returns the string under key, or "".
func (d Document) String(key string) string {
	v, _ := d[key].(string)
	return v
}

// Int returns the numeric value under key truncated to int.
// JSON numbers decode as float64; string digits are not accepted here.
func (d Document) Int(key string) int {
	switch v := d[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}

// AsDoc converts a list element back into a Document.
func AsDoc(v any) Document {
	switch m := v.(type) {
	case map[string]any:
		return Document(m)
	case Document:
		return m
	default:
		return nil
	}
}
