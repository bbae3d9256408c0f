package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind tags the runtime shape of a record field.
type Kind uint8

const (
	Absent Kind = iota // missing key or JSON null
	Scalar             // string, number or bool
	List               // ordered sequence of fields
	Map                // keyed fields in insertion order (localized maps, links, ...)
)

func (k Kind) String() string {
	switch k {
	case Absent:
		return "absent"
	case Scalar:
		return "scalar"
	case List:
		return "list"
	case Map:
		return "map"
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Field is a single value of a notice record. The same key can carry a
// different shape from one record to the next, so the shape is decided once
// at decode time and every consumer switches on Kind.
//
// The zero value is Absent.
type Field struct {
	kind    Kind
	text    string
	numeric bool
	items   []Field
	entries []Entry
}

// Entry is one key/value pair of a Map field.
type Entry struct {
	Key   string
	Value Field
}

func Str(s string) Field { return Field{kind: Scalar, text: s} }

// Num builds a numeric scalar. Non-finite values are Absent.
func Num(f float64) Field {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Field{}
	}
	return Field{kind: Scalar, text: formatNumber(f), numeric: true}
}

func Null() Field { return Field{} }

func ListOf(items ...Field) Field {
	if items == nil {
		items = []Field{}
	}
	return Field{kind: List, items: items}
}

// Strs is shorthand for a list of string scalars.
func Strs(ss ...string) Field {
	items := make([]Field, 0, len(ss))
	for _, s := range ss {
		items = append(items, Str(s))
	}
	return Field{kind: List, items: items}
}

func MapOf(entries ...Entry) Field {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		out = setEntry(out, e.Key, e.Value)
	}
	return Field{kind: Map, entries: out}
}

func KV(key string, v Field) Entry { return Entry{Key: key, Value: v} }

func (f Field) Kind() Kind       { return f.kind }
func (f Field) IsAbsent() bool   { return f.kind == Absent }
func (f Field) IsScalar() bool   { return f.kind == Scalar }
func (f Field) IsNumber() bool   { return f.kind == Scalar && f.numeric }
func (f Field) Items() []Field   { return f.items }
func (f Field) Entries() []Entry { return f.entries }

// Text returns the string form of a scalar and "" for every other kind.
func (f Field) Text() string {
	if f.kind != Scalar {
		return ""
	}
	return f.text
}

// Len is the element count of a List or Map, 0 otherwise.
func (f Field) Len() int {
	switch f.kind {
	case List:
		return len(f.items)
	case Map:
		return len(f.entries)
	}
	return 0
}

// Empty reports whether the field carries nothing worth displaying.
func (f Field) Empty() bool {
	switch f.kind {
	case Scalar:
		return f.text == ""
	case List, Map:
		return f.Len() == 0
	}
	return true
}

// Float reads a numeric scalar, accepting numeric strings as well.
func (f Field) Float() (float64, bool) {
	if f.kind != Scalar {
		return 0, false
	}
	s := strings.TrimSpace(f.text)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Index returns the i-th list element or Absent.
func (f Field) Index(i int) Field {
	if f.kind != List || i < 0 || i >= len(f.items) {
		return Field{}
	}
	return f.items[i]
}

// Get returns the value under key (exact match) or Absent.
func (f Field) Get(key string) Field {
	if f.kind != Map {
		return Field{}
	}
	for _, e := range f.entries {
		if e.Key == key {
			return e.Value
		}
	}
	return Field{}
}

// Lookup prefers an exact key and falls back to a case-insensitive match.
func (f Field) Lookup(key string) (Field, bool) {
	if f.kind != Map {
		return Field{}, false
	}
	for _, e := range f.entries {
		if e.Key == key {
			return e.Value, true
		}
	}
	for _, e := range f.entries {
		if strings.EqualFold(e.Key, key) {
			return e.Value, true
		}
	}
	return Field{}, false
}

// IsLocalized reports whether f is a non-empty map keyed by 3-letter
// language codes ("eng", "DEU", ...).
func (f Field) IsLocalized() bool {
	if f.kind != Map || len(f.entries) == 0 {
		return false
	}
	for _, e := range f.entries {
		if !isLangCode(e.Key) {
			return false
		}
	}
	return true
}

func isLangCode(k string) bool {
	if len(k) != 3 {
		return false
	}
	for i := 0; i < 3; i++ {
		c := k[i] | 0x20
		if c < 'a' || c > 'z' {
			return false
		}
	}
	return true
}

func setEntry(entries []Entry, key string, v Field) []Entry {
	for i := range entries {
		if entries[i].Key == key {
			entries[i].Value = v
			return entries
		}
	}
	return append(entries, Entry{Key: key, Value: v})
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

/********** JSON boundary **********/

// UnmarshalJSON accepts any JSON value. It only fails on malformed JSON,
// never on an unexpected shape.
func (f *Field) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	v, err := decodeField(dec)
	if err != nil {
		return fmt.Errorf("decode field: %w", err)
	}
	*f = v
	return nil
}

func decodeField(dec *json.Decoder) (Field, error) {
	tok, err := dec.Token()
	if err != nil {
		return Field{}, err
	}
	switch t := tok.(type) {
	case nil:
		return Field{}, nil
	case string:
		return Str(t), nil
	case bool:
		return Str(strconv.FormatBool(t)), nil
	case json.Number:
		if v, err := t.Float64(); err == nil {
			return Num(v), nil
		}
		return Field{kind: Scalar, text: t.String(), numeric: true}, nil
	case json.Delim:
		switch t {
		case '[':
			items := []Field{}
			for dec.More() {
				it, err := decodeField(dec)
				if err != nil {
					return Field{}, err
				}
				items = append(items, it)
			}
			if _, err := dec.Token(); err != nil {
				return Field{}, err
			}
			return Field{kind: List, items: items}, nil
		case '{':
			entries := []Entry{}
			for dec.More() {
				kt, err := dec.Token()
				if err != nil {
					return Field{}, err
				}
				key, ok := kt.(string)
				if !ok {
					return Field{}, fmt.Errorf("unexpected object key %v", kt)
				}
				v, err := decodeField(dec)
				if err != nil {
					return Field{}, err
				}
				entries = setEntry(entries, key, v)
			}
			if _, err := dec.Token(); err != nil {
				return Field{}, err
			}
			return Field{kind: Map, entries: entries}, nil
		}
	}
	return Field{}, fmt.Errorf("unexpected token %v", tok)
}

// MarshalJSON writes the field back out, keeping map insertion order.
func (f Field) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := f.writeJSON(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (f Field) writeJSON(buf *bytes.Buffer) error {
	switch f.kind {
	case Scalar:
		if f.numeric {
			buf.WriteString(f.text)
			return nil
		}
		b, err := json.Marshal(f.text)
		if err != nil {
			return err
		}
		buf.Write(b)
	case List:
		buf.WriteByte('[')
		for i, it := range f.items {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := it.writeJSON(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case Map:
		buf.WriteByte('{')
		for i, e := range f.entries {
			if i > 0 {
				buf.WriteByte(',')
			}
			k, err := json.Marshal(e.Key)
			if err != nil {
				return err
			}
			buf.Write(k)
			buf.WriteByte(':')
			if err := e.Value.writeJSON(buf); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		buf.WriteString("null")
	}
	return nil
}
