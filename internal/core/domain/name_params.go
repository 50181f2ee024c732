// Package domain provides the value objects shared by wabbit plugins and the host.
package domain

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"unicode/utf16"

	"github.com/go-viper/mapstructure/v2"

	"github.com/sufield/wabbit/internal/core/errors"
)

const (
	nameParamsSeparator = "/"
	paramSeparator      = "#"
)

// NameParams is an immutable composite key made of a base name and an
// ordered list of parameters. It addresses one configured instance of a
// pluggable component, for example a managed bean under a path.
//
// The zero value is not a valid identifier; build one with NewNameParams.
type NameParams struct {
	name   string
	params []string
}

// NewNameParams creates a NameParams. The params slice is copied, so later
// changes to the caller's slice are not observable through the result.
func NewNameParams(name string, params ...string) (NameParams, error) {
	if name == "" {
		return NameParams{}, &errors.ValidationError{
			Field:   "name",
			Value:   name,
			Message: "name is required",
		}
	}

	var pms []string
	if len(params) > 0 {
		pms = make([]string, len(params))
		copy(pms, params)
	}

	return NameParams{name: name, params: pms}, nil
}

// MustNameParams is like NewNameParams but panics on an invalid name.
func MustNameParams(name string, params ...string) NameParams {
	np, err := NewNameParams(name, params...)
	if err != nil {
		panic(err)
	}
	return np
}

// ParseNameParams parses the String form back into a NameParams.
// Everything before the first "/" is the name; the rest is split on "#".
func ParseNameParams(s string) (NameParams, error) {
	name, rest, found := strings.Cut(s, nameParamsSeparator)
	if !found {
		return NewNameParams(name)
	}
	return NewNameParams(name, strings.Split(rest, paramSeparator)...)
}

// Manageable reports whether n can be exposed as management properties.
// Property values may not contain ',' or '=', so neither may the name or
// any parameter.
func (n NameParams) Manageable() error {
	if strings.ContainsAny(n.name, reservedPropertyChars) {
		return &errors.ValidationError{Field: "name", Value: n.name, Message: "name must not contain ',' or '='"}
	}
	for i, p := range n.params {
		if strings.ContainsAny(p, reservedPropertyChars) {
			return &errors.ValidationError{
				Field:   "params[" + strconv.Itoa(i) + "]",
				Value:   p,
				Message: "parameter must not contain ',' or '='",
			}
		}
	}
	return nil
}

// Name returns the base name.
func (n NameParams) Name() string {
	return n.name
}

// Params returns a copy of the parameters.
func (n NameParams) Params() []string {
	if len(n.params) == 0 {
		return []string{}
	}
	out := make([]string, len(n.params))
	copy(out, n.params)
	return out
}

// Len returns the number of parameters.
func (n NameParams) Len() int {
	return len(n.params)
}

// IsZero reports whether n is the zero value.
func (n NameParams) IsZero() bool {
	return n.name == "" && len(n.params) == 0
}

// String renders the name alone when there are no parameters,
// otherwise name/p0#p1#...
func (n NameParams) String() string {
	if len(n.params) == 0 {
		return n.name
	}
	return n.name + nameParamsSeparator + strings.Join(n.params, paramSeparator)
}

// Key returns an unambiguous, comparable encoding of n suitable as a map key.
// Unlike String, distinct values never share a key.
func (n NameParams) Key() string {
	var b strings.Builder
	writeLenPrefixed(&b, n.name)
	for _, p := range n.params {
		b.WriteByte('|')
		writeLenPrefixed(&b, p)
	}
	return b.String()
}

func writeLenPrefixed(b *strings.Builder, s string) {
	b.WriteString(strconv.Itoa(len(s)))
	b.WriteByte(':')
	b.WriteString(s)
}

// HashCode returns a hash compatible with the JVM hashing of the same
// name and parameter array. The parameter term is added only when
// parameters are present.
func (n NameParams) HashCode() int32 {
	hash := 31 * (31 + stringHash(n.name))
	if len(n.params) > 0 {
		hash += arrayHash(n.params)
	}
	return hash
}

// Equal reports structural equality: same name and same params in order.
func (n NameParams) Equal(other NameParams) bool {
	if n.name != other.name || len(n.params) != len(other.params) {
		return false
	}
	for i := range n.params {
		if n.params[i] != other.params[i] {
			return false
		}
	}
	return true
}

// Equals compares n with an arbitrary value. It returns false for nil and
// for values of any other type.
func (n NameParams) Equals(other any) bool {
	switch v := other.(type) {
	case NameParams:
		return n.Equal(v)
	case *NameParams:
		return v != nil && n.Equal(*v)
	default:
		return false
	}
}

// MarshalText implements encoding.TextMarshaler.
func (n NameParams) MarshalText() ([]byte, error) {
	return []byte(n.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (n *NameParams) UnmarshalText(text []byte) error {
	parsed, err := ParseNameParams(string(text))
	if err != nil {
		return err
	}
	*n = parsed
	return nil
}

// stringHash accumulates s*31 over UTF-16 code units with int32 overflow.
func stringHash(s string) int32 {
	var h int32
	for _, c := range utf16.Encode([]rune(s)) {
		h = 31*h + int32(c)
	}
	return h
}

func arrayHash(a []string) int32 {
	h := int32(1)
	for _, s := range a {
		h = 31*h + stringHash(s)
	}
	return h
}

// NameParamsDecodeHook provides a mapstructure decode hook converting
// configuration strings into NameParams.
func NameParamsDecodeHook() mapstructure.DecodeHookFunc {
	return func(f reflect.Type, t reflect.Type, data interface{}) (interface{}, error) {
		if f.Kind() != reflect.String || t != reflect.TypeOf(NameParams{}) {
			return data, nil
		}

		str, ok := data.(string)
		if !ok {
			return data, nil
		}

		np, err := ParseNameParams(str)
		if err != nil {
			return nil, fmt.Errorf("invalid plugin id %q: %w", str, err)
		}
		return np, nil
	}
}
