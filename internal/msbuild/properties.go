// SPDX-License-Identifier: MPL-2.0

package msbuild

import (
	"fmt"
	"strings"
)

type (
	// Property is a single /property:Name=Value override.
	Property struct {
		Name  string
		Value string
	}

	// Properties is an insertion-ordered set of build properties with unique
	// names. Setting an existing name replaces its value in place.
	Properties []Property
)

// Set adds name=value, or overwrites the value if name is already present.
func (p Properties) Set(name, value string) Properties {
	for i := range p {
		if p[i].Name == name {
			p[i].Value = value
			return p
		}
	}
	return append(p, Property{Name: name, Value: value})
}

// Get returns the value for name.
func (p Properties) Get(name string) (string, bool) {
	for _, prop := range p {
		if prop.Name == name {
			return prop.Value, true
		}
	}
	return "", false
}

// Merge returns a copy of p with every entry of other set on top of it.
func (p Properties) Merge(other Properties) Properties {
	out := make(Properties, len(p), len(p)+len(other))
	copy(out, p)
	for _, prop := range other {
		out = out.Set(prop.Name, prop.Value)
	}
	return out
}

// ParseProperty parses a "Name=Value" pair as given on the command line.
// The value may itself contain '='.
func ParseProperty(s string) (Property, error) {
	name, value, ok := strings.Cut(s, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return Property{}, fmt.Errorf("property %q must have the form Name=Value", s)
	}
	return Property{Name: name, Value: value}, nil
}
