package domain

import (
	"sort"
	"strings"

	"github.com/sufield/wabbit/internal/core/errors"
)

// NameProperty is the property key holding the bean name inside an ObjectName.
const NameProperty = "name"

// reservedPropertyChars may not appear in property values.
const reservedPropertyChars = ",="

// Property is a single key=value pair of an ObjectName.
type Property struct {
	Key   string
	Value string
}

// ObjectName is the handle returned by a management registration.
// It is a domain plus key properties, rendered canonically as
// domain:k1=v1,k2=v2 with keys in lexical order.
type ObjectName struct {
	domain    string
	props     []Property
	canonical string
}

// NewObjectName builds an ObjectName from a domain and its properties.
// At least one property is required.
func NewObjectName(domain string, props map[string]string) (ObjectName, error) {
	if domain == "" || strings.ContainsAny(domain, ":,=") {
		return ObjectName{}, &errors.ValidationError{
			Field:   "domain",
			Value:   domain,
			Message: "domain must be non-empty and must not contain ':', ',' or '='",
		}
	}
	if len(props) == 0 {
		return ObjectName{}, &errors.ValidationError{
			Field:   "properties",
			Value:   props,
			Message: "at least one key property is required",
		}
	}

	list := make([]Property, 0, len(props))
	for k, v := range props {
		if k == "" || strings.ContainsAny(k, ":,=") {
			return ObjectName{}, &errors.ValidationError{
				Field:   "properties",
				Value:   k,
				Message: "property key must be non-empty and must not contain ':', ',' or '='",
			}
		}
		if strings.ContainsAny(v, reservedPropertyChars) {
			return ObjectName{}, &errors.ValidationError{
				Field:   "properties." + k,
				Value:   v,
				Message: "property value must not contain ',' or '='",
			}
		}
		list = append(list, Property{Key: k, Value: v})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Key < list[j].Key })

	var b strings.Builder
	b.WriteString(domain)
	b.WriteByte(':')
	for i, p := range list {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(p.Key)
		b.WriteByte('=')
		b.WriteString(p.Value)
	}

	return ObjectName{domain: domain, props: list, canonical: b.String()}, nil
}

// ParseObjectName parses the canonical form produced by String.
func ParseObjectName(s string) (ObjectName, error) {
	domain, rest, found := strings.Cut(s, ":")
	if !found {
		return ObjectName{}, &errors.ValidationError{
			Field:   "object_name",
			Value:   s,
			Message: "missing ':' between domain and properties",
		}
	}

	props := make(map[string]string)
	for _, kv := range strings.Split(rest, ",") {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			return ObjectName{}, &errors.ValidationError{
				Field:   "object_name",
				Value:   s,
				Message: "property " + kv + " is not key=value",
			}
		}
		if _, dup := props[k]; dup {
			return ObjectName{}, &errors.ValidationError{
				Field:   "object_name",
				Value:   s,
				Message: "duplicate property " + k,
			}
		}
		props[k] = v
	}
	return NewObjectName(domain, props)
}

// Domain returns the domain part.
func (o ObjectName) Domain() string {
	return o.domain
}

// Property returns the value of key, if present.
func (o ObjectName) Property(key string) (string, bool) {
	for _, p := range o.props {
		if p.Key == key {
			return p.Value, true
		}
	}
	return "", false
}

// Properties returns the key properties in canonical order.
func (o ObjectName) Properties() []Property {
	out := make([]Property, len(o.props))
	copy(out, o.props)
	return out
}

// IsZero reports whether o is the zero value.
func (o ObjectName) IsZero() bool {
	return o.canonical == ""
}

// Equal compares canonical forms.
func (o ObjectName) Equal(other ObjectName) bool {
	return o.canonical == other.canonical
}

func (o ObjectName) String() string {
	return o.canonical
}
