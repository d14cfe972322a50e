// File: value.go
// Title: Typed Parameter Values
// Description: Optional typed interpretation of raw parameter tokens:
//              integers (decimal, hex, binary), floats, quoted strings with
//              escapes and bare literals, plus the single, list and
//              dictionary shapes found inside composite parameters.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-16
// Modified: 2026-10-16
//
// Change History:
// - 2026-10-16 v0.1.0: Initial implementation

package command

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// ValueKind identifies the type of a Value
type ValueKind uint8

const (
	ValueInt ValueKind = iota + 1
	ValueFloat
	ValueString
	ValueLiteral
)

func (k ValueKind) String() string {
	switch k {
	case ValueInt:
		return "int"
	case ValueFloat:
		return "float"
	case ValueString:
		return "string"
	case ValueLiteral:
		return "literal"
	default:
		return "invalid"
	}
}

// Value is a typed view of a raw token
type Value struct {
	kind ValueKind
	i    int64
	f    float64
	s    string
}

// IntValue creates an int value
func IntValue(v int64) Value { return Value{kind: ValueInt, i: v} }

// FloatValue creates a float value
func FloatValue(v float64) Value { return Value{kind: ValueFloat, f: v} }

// StringValue creates a string value; String quotes it
func StringValue(v string) Value { return Value{kind: ValueString, s: v} }

// LiteralValue creates a bare identifier value
func LiteralValue(v string) Value { return Value{kind: ValueLiteral, s: v} }

// Kind returns the value type
func (v Value) Kind() ValueKind { return v.kind }

// Int returns the integer and true for an int value
func (v Value) Int() (int64, bool) { return v.i, v.kind == ValueInt }

// Float returns the float and true for a float value
func (v Value) Float() (float64, bool) { return v.f, v.kind == ValueFloat }

// Text returns the unescaped string of a string value or the identifier of
// a literal
func (v Value) Text() (string, bool) {
	return v.s, v.kind == ValueString || v.kind == ValueLiteral
}

// Interface returns the value as int64, float64 or string
func (v Value) Interface() interface{} {
	switch v.kind {
	case ValueInt:
		return v.i
	case ValueFloat:
		return v.f
	default:
		return v.s
	}
}

// String renders the value as a KoiLang token that ParseValue reads back
// to the same value
func (v Value) String() string {
	switch v.kind {
	case ValueInt:
		return strconv.FormatInt(v.i, 10)
	case ValueFloat:
		s := strconv.FormatFloat(v.f, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eEIN") {
			s += ".0"
		}
		return s
	case ValueString:
		return strconv.Quote(v.s)
	default:
		return v.s
	}
}

// MarshalJSON encodes the value as a JSON number or string
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

var (
	floatPattern = regexp.MustCompile(`^-?(\d+\.\d*([eE][+-]?\d+)?|\.\d+([eE][+-]?\d+)?|\d+[eE][+-]?\d+)$`)
	intPattern   = regexp.MustCompile(`^-?(0x[0-9A-Fa-f]+|0b[01]+|\d+)$`)
)

// ParseValue interprets a raw token. Quoted strings are tried first, then
// floats, integers and identifiers.
func ParseValue(raw string) (Value, error) {
	switch {
	case strings.HasPrefix(raw, `"`):
		s, rest, err := unquote(raw)
		if err != nil {
			return Value{}, err
		}
		if rest != "" {
			return Value{}, invalidValue(raw, "unexpected text after closing quote")
		}
		return StringValue(s), nil

	case floatPattern.MatchString(raw):
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return Value{}, invalidValue(raw, "float out of range")
		}
		return FloatValue(f), nil

	case intPattern.MatchString(raw):
		return parseInt(raw)

	case isIdentifier(raw):
		return LiteralValue(raw), nil
	}
	return Value{}, invalidValue(raw, "not a number, string or identifier")
}

func parseInt(raw string) (Value, error) {
	neg := strings.HasPrefix(raw, "-")
	digits := strings.TrimPrefix(raw, "-")
	base := 10
	switch {
	case strings.HasPrefix(digits, "0x"):
		base, digits = 16, digits[2:]
	case strings.HasPrefix(digits, "0b"):
		base, digits = 2, digits[2:]
	}
	if neg {
		digits = "-" + digits
	}
	n, err := strconv.ParseInt(digits, base, 64)
	if err != nil {
		return Value{}, invalidValue(raw, "integer out of range")
	}
	return IntValue(n), nil
}

// unquote reads a double-quoted string at the start of s and returns the
// decoded text and the remainder after the closing quote
func unquote(s string) (string, string, error) {
	var sb strings.Builder
	i := 1
	for i < len(s) {
		c := s[i]
		switch c {
		case '"':
			return sb.String(), s[i+1:], nil
		case '\\':
			n, err := unescape(s, i, &sb)
			if err != nil {
				return "", "", err
			}
			i += n
		default:
			sb.WriteByte(c)
			i++
		}
	}
	return "", "", invalidValue(s, "unterminated string")
}

// unescape decodes the escape sequence starting at s[i] == '\\' and returns
// the number of bytes consumed
func unescape(s string, i int, sb *strings.Builder) (int, error) {
	if i+1 >= len(s) {
		return 0, invalidValue(s, "dangling backslash")
	}
	switch c := s[i+1]; c {
	case 'n':
		sb.WriteByte('\n')
	case 'r':
		sb.WriteByte('\r')
	case 't':
		sb.WriteByte('\t')
	case 'v':
		sb.WriteByte('\v')
	case 'a':
		sb.WriteByte('\a')
	case 'b':
		sb.WriteByte('\b')
	case 'f':
		sb.WriteByte('\f')
	case '\\', '"', '\'':
		sb.WriteByte(c)
	case '\n':
		// line continuation
	case 'x':
		return hexEscape(s, i, 2, sb)
	case 'u':
		return hexEscape(s, i, 4, sb)
	case 'U':
		return hexEscape(s, i, 8, sb)
	default:
		if c >= '0' && c <= '7' {
			j := i + 1
			for j < len(s) && j < i+4 && s[j] >= '0' && s[j] <= '7' {
				j++
			}
			n, _ := strconv.ParseUint(s[i+1:j], 8, 32)
			sb.WriteRune(rune(n))
			return j - i, nil
		}
		return 0, invalidValue(s, "unknown escape sequence \\"+string(c))
	}
	return 2, nil
}

func hexEscape(s string, i, width int, sb *strings.Builder) (int, error) {
	start := i + 2
	if start+width > len(s) {
		return 0, invalidValue(s, "short hex escape")
	}
	n, err := strconv.ParseUint(s[start:start+width], 16, 32)
	if err != nil {
		return 0, invalidValue(s, "malformed hex escape")
	}
	if !utf8.ValidRune(rune(n)) {
		return 0, invalidValue(s, "escape is not a valid code point")
	}
	sb.WriteRune(rune(n))
	return 2 + width, nil
}

// CompositeKind identifies the shape inside a composite parameter
type CompositeKind uint8

const (
	CompositeSingle CompositeKind = iota + 1
	CompositeList
	CompositeDict
)

func (k CompositeKind) String() string {
	switch k {
	case CompositeSingle:
		return "single"
	case CompositeList:
		return "list"
	case CompositeDict:
		return "dict"
	default:
		return "invalid"
	}
}

// DictEntry is one key: value pair of a dictionary composite
type DictEntry struct {
	Key   string
	Value Value
}

// CompositeValue is the typed view of a composite's inner text
type CompositeValue struct {
	kind  CompositeKind
	items []Value
	dict  []DictEntry
}

func (c CompositeValue) Kind() CompositeKind { return c.kind }

// Single returns the only value of a single composite
func (c CompositeValue) Single() (Value, bool) {
	if c.kind != CompositeSingle {
		return Value{}, false
	}
	return c.items[0], true
}

// List returns a copy of the list items
func (c CompositeValue) List() ([]Value, bool) {
	if c.kind != CompositeList {
		return nil, false
	}
	out := make([]Value, len(c.items))
	copy(out, c.items)
	return out, true
}

// Dict returns a copy of the entries in source order
func (c CompositeValue) Dict() ([]DictEntry, bool) {
	if c.kind != CompositeDict {
		return nil, false
	}
	out := make([]DictEntry, len(c.dict))
	copy(out, c.dict)
	return out, true
}

// Lookup finds a key in a dict composite
func (c CompositeValue) Lookup(key string) (Value, bool) {
	for _, e := range c.dict {
		if e.Key == key {
			return e.Value, true
		}
	}
	return Value{}, false
}

// ParseComposite interprets the inner text of a composite parameter.
// Empty text is an empty list; one item is single; items of the form
// `key: value` make a dictionary.
func ParseComposite(inner string) (CompositeValue, error) {
	parts, err := splitTopLevel(inner, ',')
	if err != nil {
		return CompositeValue{}, err
	}
	if len(parts) == 1 && strings.TrimSpace(parts[0]) == "" {
		return CompositeValue{kind: CompositeList}, nil
	}

	isDict := false
	for _, part := range parts {
		if _, _, ok := cutKey(part); ok {
			isDict = true
			break
		}
	}

	if isDict {
		entries := make([]DictEntry, 0, len(parts))
		for _, part := range parts {
			key, rest, ok := cutKey(part)
			if !ok {
				return CompositeValue{}, invalidValue(inner, "mixed dictionary and list items")
			}
			v, err := ParseValue(strings.TrimSpace(rest))
			if err != nil {
				return CompositeValue{}, err
			}
			entries = append(entries, DictEntry{Key: key, Value: v})
		}
		return CompositeValue{kind: CompositeDict, dict: entries}, nil
	}

	items := make([]Value, 0, len(parts))
	for _, part := range parts {
		v, err := ParseValue(strings.TrimSpace(part))
		if err != nil {
			return CompositeValue{}, err
		}
		items = append(items, v)
	}
	if len(items) == 1 {
		return CompositeValue{kind: CompositeSingle, items: items}, nil
	}
	return CompositeValue{kind: CompositeList, items: items}, nil
}

// cutKey splits `key: value` when key is an identifier
func cutKey(part string) (string, string, bool) {
	key, rest, found := strings.Cut(strings.TrimSpace(part), ":")
	if !found {
		return "", "", false
	}
	key = strings.TrimSpace(key)
	if !isIdentifier(key) {
		return "", "", false
	}
	return key, rest, true
}

// splitTopLevel splits s on sep outside of double quotes
func splitTopLevel(s string, sep byte) ([]string, error) {
	var parts []string
	start := 0
	inQuote := false
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == '\\':
			i++
		case c == '"':
			inQuote = !inQuote
		case c == sep && !inQuote:
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	if inQuote {
		return nil, invalidValue(s, "unterminated string")
	}
	return append(parts, s[start:]), nil
}
