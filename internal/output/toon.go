package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// EncodeTOON renders v as Token-Oriented Object Notation: two space
// indentation, comma delimiters, and field order as in the JSON encoding.
// Arrays of flat objects sharing their keys become tables.
func EncodeTOON(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	root, err := readTOONValue(dec)
	if err != nil {
		return nil, err
	}

	var w toonWriter
	switch root := root.(type) {
	case toonObject:
		w.fields(0, root)
	case []any:
		w.array(0, 1, "", root)
	default:
		w.line(0, toonPrimitive(root))
	}
	return w.buf.Bytes(), nil
}

type toonField struct {
	key   string
	value any
}

// toonObject keeps keys in document order
type toonObject []toonField

func readTOONValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	switch tok {
	case json.Delim('{'):
		obj := toonObject{}
		for dec.More() {
			key, err := dec.Token()
			if err != nil {
				return nil, err
			}
			value, err := readTOONValue(dec)
			if err != nil {
				return nil, err
			}
			obj = append(obj, toonField{key: key.(string), value: value})
		}
		_, err = dec.Token()
		return obj, err
	case json.Delim('['):
		arr := []any{}
		for dec.More() {
			value, err := readTOONValue(dec)
			if err != nil {
				return nil, err
			}
			arr = append(arr, value)
		}
		_, err = dec.Token()
		return arr, err
	}
	return tok, nil
}

type toonWriter struct {
	buf bytes.Buffer
}

func (w *toonWriter) line(depth int, s string) {
	if w.buf.Len() > 0 {
		w.buf.WriteByte('\n')
	}
	w.buf.WriteString(strings.Repeat("  ", depth))
	w.buf.WriteString(s)
}

func (w *toonWriter) fields(depth int, obj toonObject) {
	for _, f := range obj {
		w.field(depth, depth+1, toonKey(f.key), f.value)
	}
}

// field writes one labelled value at depth, nested content goes at inner
func (w *toonWriter) field(depth, inner int, label string, v any) {
	switch v := v.(type) {
	case toonObject:
		w.line(depth, label+":")
		w.fields(inner, v)
	case []any:
		w.array(depth, inner, label, v)
	default:
		w.line(depth, label+": "+toonPrimitive(v))
	}
}

func (w *toonWriter) array(depth, inner int, label string, arr []any) {
	header := fmt.Sprintf("%s[%d]", label, len(arr))
	if len(arr) == 0 {
		w.line(depth, header+":")
		return
	}

	if cells, ok := primitiveCells(arr); ok {
		w.line(depth, header+": "+strings.Join(cells, ","))
		return
	}

	if keys, ok := tableKeys(arr); ok {
		names := make([]string, len(keys))
		for i, k := range keys {
			names[i] = toonKey(k)
		}
		w.line(depth, header+"{"+strings.Join(names, ",")+"}:")
		for _, item := range arr {
			row := item.(toonObject)
			cells := make([]string, len(row))
			for i, f := range row {
				cells[i] = toonPrimitive(f.value)
			}
			w.line(inner, strings.Join(cells, ","))
		}
		return
	}

	w.line(depth, header+":")
	for _, item := range arr {
		w.item(inner, item)
	}
}

func (w *toonWriter) item(depth int, v any) {
	switch v := v.(type) {
	case toonObject:
		if len(v) == 0 {
			w.line(depth, "-")
			return
		}
		// the first field shares the hyphen line
		w.field(depth, depth+2, "- "+toonKey(v[0].key), v[0].value)
		for _, f := range v[1:] {
			w.field(depth+1, depth+2, toonKey(f.key), f.value)
		}
	case []any:
		w.array(depth, depth+1, "- ", v)
	default:
		w.line(depth, "- "+toonPrimitive(v))
	}
}

func isTOONPrimitive(v any) bool {
	switch v.(type) {
	case toonObject, []any:
		return false
	}
	return true
}

func primitiveCells(arr []any) ([]string, bool) {
	cells := make([]string, len(arr))
	for i, v := range arr {
		if !isTOONPrimitive(v) {
			return nil, false
		}
		cells[i] = toonPrimitive(v)
	}
	return cells, true
}

// tableKeys returns the shared keys when every item is a non-empty object
// of primitives with the same keys in the same order
func tableKeys(arr []any) ([]string, bool) {
	var keys []string
	for i, item := range arr {
		obj, ok := item.(toonObject)
		if !ok || len(obj) == 0 {
			return nil, false
		}
		if i == 0 {
			for _, f := range obj {
				keys = append(keys, f.key)
			}
		}
		if len(obj) != len(keys) {
			return nil, false
		}
		for j, f := range obj {
			if f.key != keys[j] || !isTOONPrimitive(f.value) {
				return nil, false
			}
		}
	}
	return keys, true
}

var (
	bareKey       = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.]*$`)
	numericString = regexp.MustCompile(`^-?\d+(?:\.\d+)?(?:[eE][+-]?\d+)?$`)
	toonEscaper   = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\r", `\r`, "\t", `\t`)
)

func toonKey(k string) string {
	if bareKey.MatchString(k) {
		return k
	}
	return `"` + toonEscaper.Replace(k) + `"`
}

func toonPrimitive(v any) string {
	switch v := v.(type) {
	case nil:
		return "null"
	case bool:
		if v {
			return "true"
		}
		return "false"
	case json.Number:
		return v.String()
	case string:
		if needsTOONQuotes(v) {
			return `"` + toonEscaper.Replace(v) + `"`
		}
		return v
	}
	return fmt.Sprint(v)
}

// needsTOONQuotes reports strings that would read back as another type or
// break the line structure
func needsTOONQuotes(s string) bool {
	switch {
	case s == "", strings.TrimSpace(s) != s:
		return true
	case s == "true", s == "false", s == "null":
		return true
	case numericString.MatchString(s), strings.HasPrefix(s, "-"):
		return true
	case strings.ContainsAny(s, ":\"\\[]{},\n\r\t"):
		return true
	}
	for _, r := range s {
		if r < 0x20 {
			return true
		}
	}
	return false
}
