package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

const tagSeparator = "|"

// TagList is a set of normalized values stored as "|a|b|" so that membership
// is the portable predicate `column LIKE '%|a|%'`.
type TagList []string

// Value implements driver.Valuer.
func (t TagList) Value() (driver.Value, error) {
	if len(t) == 0 {
		return "", nil
	}
	parts := make([]string, 0, len(t))
	for _, v := range t {
		v = strings.ReplaceAll(v, tagSeparator, "")
		if v == "" {
			continue
		}
		parts = append(parts, v)
	}
	if len(parts) == 0 {
		return "", nil
	}
	return tagSeparator + strings.Join(parts, tagSeparator) + tagSeparator, nil
}

// Scan implements sql.Scanner.
func (t *TagList) Scan(src any) error {
	var raw string
	switch v := src.(type) {
	case nil:
		*t = TagList{}
		return nil
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return fmt.Errorf("tag list: unsupported type %T", src)
	}

	out := TagList{}
	for _, part := range strings.Split(raw, tagSeparator) {
		if part != "" {
			out = append(out, part)
		}
	}
	*t = out
	return nil
}

// Contains reports whether v is in the list.
func (t TagList) Contains(v string) bool {
	for _, item := range t {
		if item == v {
			return true
		}
	}
	return false
}

// TagPattern returns the LIKE pattern matching a single tag.
func TagPattern(v string) string {
	return "%" + tagSeparator + EscapeLike(strings.ReplaceAll(v, tagSeparator, "")) + tagSeparator + "%"
}

// EscapeLike escapes LIKE wildcards using backslash; queries must declare ESCAPE '\'.
func EscapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// StringList is a display list stored as a JSON array.
type StringList []string

// Value implements driver.Valuer.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (l *StringList) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*l = StringList{}
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("string list: unsupported type %T", src)
	}
	if len(raw) == 0 {
		*l = StringList{}
		return nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return err
	}
	if out == nil {
		out = []string{}
	}
	*l = out
	return nil
}

// JSONMap is a free-form JSON object column.
type JSONMap map[string]any

// Value implements driver.Valuer.
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(map[string]any(m))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (m *JSONMap) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*m = JSONMap{}
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("json map: unsupported type %T", src)
	}
	out := JSONMap{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil {
			return err
		}
	}
	*m = out
	return nil
}
