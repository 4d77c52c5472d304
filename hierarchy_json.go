package labeltree

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
)

// JSON hierarchy support. The on-disk form is an array (or a single object)
// of {"name": ..., "children": [...], <other scalar members>} objects,
// recursively nested. Scalar members other than "name" and "id" become
// side-table entries, stored as strings: booleans map to "True"/"False" and
// numbers are formatted with 16 significant digits, which preserves large
// integers losslessly even though JSON numbers are implicitly floating
// point. Because the original value types are not stored, a written file has
// every member as a JSON string; the round trip is idempotent from the
// second cycle onward but lossy in typing on the first. XML has no implicit
// typing and round-trips exactly.

// jsonObject is a JSON object with member order preserved.
type jsonObject struct {
	keys   []string
	values map[string]any
}

func (o *jsonObject) get(key string) (any, bool) {
	v, ok := o.values[key]
	return v, ok
}

// ReadJSON replaces the hierarchy with the contents of the JSON document
// read from r. Structural errors (invalid JSON, missing or duplicate names)
// abort the read and leave the hierarchy cleared. Values of unsupported
// type are dropped with a warning rather than failing the read.
func (h *Hierarchy) ReadJSON(r io.Reader) error {
	h.Clear()
	dec := json.NewDecoder(r)
	dec.UseNumber()
	top, err := parseJSONValue(dec)
	if err != nil {
		h.Clear()
		return fmt.Errorf("labeltree: invalid hierarchy JSON: %w", err)
	}
	if err := h.readJSONArrayish(top, ""); err != nil {
		h.Clear()
		return err
	}
	return nil
}

// ReadJSONFromString replaces the hierarchy with the contents of the JSON text.
func (h *Hierarchy) ReadJSONFromString(text string) error {
	return h.ReadJSON(bytes.NewReader([]byte(text)))
}

// readJSONArrayish accepts either an array of item objects or a bare single
// object: when there is only one child, some producers omit the array, and
// the top level itself may be a single object.
func (h *Hierarchy) readJSONArrayish(value any, parent string) error {
	if arr, ok := value.([]any); ok {
		for _, element := range arr {
			if err := h.readJSONChild(element, parent); err != nil {
				return err
			}
		}
		return nil
	}
	return h.readJSONChild(value, parent)
}

func (h *Hierarchy) readJSONChild(value any, parent string) error {
	obj, _ := value.(*jsonObject)
	item := Item{ExtraInfo: NewKVStore()}
	if obj != nil {
		if name, ok := obj.get("name"); ok {
			item.Name, _ = name.(string)
		}
	}
	if item.Name == "" {
		if parent == "" {
			return fmt.Errorf("labeltree: empty, non-string, or missing 'name' element in hierarchy json, in a top-level item")
		}
		return fmt.Errorf("labeltree: empty, non-string, or missing 'name' element in hierarchy json, in children of '%s'", parent)
	}
	if id, ok := obj.get("id"); ok {
		item.ID, _ = id.(string)
	}
	for _, key := range obj.keys {
		if key == "name" || key == "id" {
			continue // already handled, never duplicated into the side table
		}
		value, stringish := stringishJSONValue(obj.values[key])
		if key == "children" {
			if stringish {
				slog.Warn("found non-array value for 'children' member in hierarchy item",
					"item", item.Name)
			}
			continue // reserved for structure, never a side-table entry
		}
		if !stringish {
			slog.Warn("found non-stringlike value for member in hierarchy item",
				"member", key, "item", item.Name)
			continue
		}
		item.ExtraInfo.Set(key, value)
	}
	if _, err := h.AddItem(item, parent); err != nil {
		return fmt.Errorf("labeltree: failed to add hierarchy item '%s', check whether all 'name's are unique", item.Name)
	}
	if children, ok := obj.get("children"); ok {
		switch children.(type) {
		case []any, *jsonObject:
			return h.readJSONArrayish(children, item.Name)
		default:
			// Already warned above; not usable as structure.
		}
	}
	return nil
}

// stringishJSONValue converts a scalar JSON value to its stored string form.
// The second result is false for values with no string form (objects,
// arrays, null).
func stringishJSONValue(v any) (string, bool) {
	switch val := v.(type) {
	case bool:
		if val {
			return "True", true
		}
		return "False", true
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return "", false
		}
		// 16 significant digits: JSON numbers are implicitly double, and
		// this keeps large integers intact in text form.
		return strconv.FormatFloat(f, 'g', 16, 64), true
	case string:
		return val, true
	default:
		return "", false
	}
}

// parseJSONValue reads one JSON value from dec, preserving object member
// order. encoding/json's map decoding would lose the order, which is
// semantically meaningful for the side table.
func parseJSONValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	return parseJSONValueFromToken(dec, tok)
}

func parseJSONValueFromToken(dec *json.Decoder, tok json.Token) (any, error) {
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			obj := &jsonObject{values: make(map[string]any)}
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key := keyTok.(string)
				value, err := parseJSONValue(dec)
				if err != nil {
					return nil, err
				}
				if _, dup := obj.values[key]; !dup {
					obj.keys = append(obj.keys, key)
				}
				obj.values[key] = value
			}
			if _, err := dec.Token(); err != nil { // consume '}'
				return nil, err
			}
			return obj, nil
		case '[':
			var arr []any
			for dec.More() {
				value, err := parseJSONValue(dec)
				if err != nil {
					return nil, err
				}
				arr = append(arr, value)
			}
			if _, err := dec.Token(); err != nil { // consume ']'
				return nil, err
			}
			return arr, nil
		}
		return nil, fmt.Errorf("unexpected delimiter %q", t)
	default:
		// bool, json.Number, string, or nil.
		return t, nil
	}
}

// WriteJSON writes the hierarchy to w as an indented JSON array of item
// objects. Every side-table entry is written as a JSON string member.
func (h *Hierarchy) WriteJSON(w io.Writer) error {
	compact, err := appendItemsJSON(nil, h.root.Children)
	if err != nil {
		return err
	}
	var indented bytes.Buffer
	if err := json.Indent(&indented, compact, "", "    "); err != nil {
		return fmt.Errorf("labeltree: %w", err)
	}
	indented.WriteByte('\n')
	if _, err := w.Write(indented.Bytes()); err != nil {
		return fmt.Errorf("labeltree: %w", err)
	}
	return nil
}

// WriteJSONToString returns the hierarchy serialized as a JSON string.
func (h *Hierarchy) WriteJSONToString() (string, error) {
	var sb bytes.Buffer
	if err := h.WriteJSON(&sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// appendItemsJSON appends a compact JSON array of the items to buf,
// emitting members in side-table order. Built by hand because encoding/json
// offers no order-preserving object encoding.
func appendItemsJSON(buf []byte, items []Item) ([]byte, error) {
	buf = append(buf, '[')
	for i := range items {
		if i > 0 {
			buf = append(buf, ',')
		}
		var err error
		buf, err = appendItemJSON(buf, &items[i])
		if err != nil {
			return nil, err
		}
	}
	return append(buf, ']'), nil
}

func appendItemJSON(buf []byte, item *Item) ([]byte, error) {
	buf = append(buf, '{')
	buf, err := appendJSONMember(buf, "name", item.Name)
	if err != nil {
		return nil, err
	}
	if item.ID != "" {
		buf = append(buf, ',')
		if buf, err = appendJSONMember(buf, "id", item.ID); err != nil {
			return nil, err
		}
	}
	if item.ExtraInfo != nil {
		for _, pair := range item.ExtraInfo.All() {
			buf = append(buf, ',')
			// Everything is a string now; the read never stored the types.
			if buf, err = appendJSONMember(buf, pair.Key, pair.Value); err != nil {
				return nil, err
			}
		}
	}
	if len(item.Children) > 0 {
		buf = append(buf, ',')
		if buf, err = appendJSONString(buf, "children"); err != nil {
			return nil, err
		}
		buf = append(buf, ':')
		if buf, err = appendItemsJSON(buf, item.Children); err != nil {
			return nil, err
		}
	}
	return append(buf, '}'), nil
}

func appendJSONMember(buf []byte, key, value string) ([]byte, error) {
	buf, err := appendJSONString(buf, key)
	if err != nil {
		return nil, err
	}
	buf = append(buf, ':')
	return appendJSONString(buf, value)
}

func appendJSONString(buf []byte, s string) ([]byte, error) {
	quoted, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("labeltree: %w", err)
	}
	return append(buf, quoted...), nil
}

// ReadJSONFile replaces the hierarchy with the contents of the named JSON file.
func (h *Hierarchy) ReadJSONFile(filename string) error {
	f, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("labeltree: %w", err)
	}
	defer f.Close()
	return h.ReadJSON(f)
}

// WriteJSONFile writes the hierarchy to the named file as JSON.
func (h *Hierarchy) WriteJSONFile(filename string) (err error) {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("labeltree: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("labeltree: %w", cerr)
		}
	}()
	return h.WriteJSON(f)
}
