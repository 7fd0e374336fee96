package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// fieldSet is a parsed fields selector. Every key maps to the selector of
// its nested value, nil meaning the whole value.
type fieldSet map[string]fieldSet

// parseFields parses selectors such as "url,parts(tag,questions(index))".
// An empty selector returns nil, which selects everything.
func parseFields(s string) (fieldSet, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	fs, rest, err := parseFieldList(s)
	if err != nil {
		return nil, err
	}
	if rest != "" {
		return nil, fmt.Errorf("unexpected %q", rest)
	}
	return fs, nil
}

func parseFieldList(s string) (fieldSet, string, error) {
	fs := fieldSet{}
	for {
		end := strings.IndexAny(s, ",()")
		if end < 0 {
			end = len(s)
		}
		name := strings.TrimSpace(s[:end])
		if name == "" {
			return nil, "", fmt.Errorf("empty field name")
		}
		s = s[end:]
		var sub fieldSet
		if strings.HasPrefix(s, "(") {
			var err error
			if sub, s, err = parseFieldList(s[1:]); err != nil {
				return nil, "", err
			}
			if !strings.HasPrefix(s, ")") {
				return nil, "", fmt.Errorf("unbalanced parenthesis after %q", name)
			}
			s = s[1:]
		}
		fs[name] = sub
		if !strings.HasPrefix(s, ",") {
			return fs, s, nil
		}
		s = s[1:]
	}
}

// apply keeps only the selected keys of v. Lists are filtered element by
// element.
func (fs fieldSet) apply(v any) any {
	if fs == nil {
		return v
	}
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(fs))
		for k, sub := range fs {
			if val, ok := t[k]; ok {
				out[k] = sub.apply(val)
			}
		}
		return out
	case []any:
		for i := range t {
			t[i] = fs.apply(t[i])
		}
		return t
	default:
		return v
	}
}

// filterJSON re-encodes data keeping only the selected fields.
func (fs fieldSet) filterJSON(data []byte) ([]byte, error) {
	if fs == nil {
		return data, nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return json.Marshal(fs.apply(v))
}
