package logger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

type encoder interface {
	encode(e entry, order []string) ([]byte, error)
}

// orderedKeys returns the keys listed in order first, then the rest sorted.
func orderedKeys(e entry, order []string) []string {
	keys := make([]string, 0, len(e))
	listed := make(map[string]bool, len(order))
	for _, k := range order {
		listed[k] = true
		if _, ok := e[k]; ok {
			keys = append(keys, k)
		}
	}
	n := len(keys)
	for k := range e {
		if !listed[k] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys[n:])
	return keys
}

type jsonEncoder struct{}

func (jsonEncoder) encode(e entry, order []string) ([]byte, error) {
	var b bytes.Buffer
	b.WriteByte('{')
	for i, k := range orderedKeys(e, order) {
		v, err := json.Marshal(e[k])
		if err != nil {
			return nil, fmt.Errorf("logger: encode %s: %w", k, err)
		}
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Quote(k))
		b.WriteByte(':')
		b.Write(v)
	}
	b.WriteByte('}')
	return b.Bytes(), nil
}

// kvEncoder writes logfmt-style key=value pairs for terminals.
type kvEncoder struct{}

func (kvEncoder) encode(e entry, order []string) ([]byte, error) {
	var b bytes.Buffer
	for i, k := range orderedKeys(e, order) {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(kvValue(e[k]))
	}
	return b.Bytes(), nil
}

func kvValue(v any) string {
	s, ok := v.(string)
	if !ok {
		s = fmt.Sprint(v)
	}
	if strings.ContainsFunc(s, func(r rune) bool { return r <= ' ' || r == '=' || r == '"' }) {
		return strconv.Quote(s)
	}
	return s
}
