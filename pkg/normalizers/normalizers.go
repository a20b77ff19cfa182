package normalizers

import (
	"fmt"
	"strings"
)

// Normalizer transforms a raw string value into a canonical form
type Normalizer func(string) string

var registry = map[string]Normalizer{
	"lowercase":           Lowercase,
	"uppercase":           Uppercase,
	"trim":                Trim,
	"collapse_whitespace": CollapseWhitespace,
	"item_name":           ItemName,
	"unit":                Unit,
}

// Get returns a registered normalizer by name
func Get(name string) (Normalizer, error) {
	n, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown normalizer: %s", name)
	}
	return n, nil
}

// Apply runs the named normalizers in order
func Apply(value string, names ...string) (string, error) {
	for _, name := range names {
		n, err := Get(name)
		if err != nil {
			return value, err
		}
		value = n(value)
	}
	return value, nil
}

func Lowercase(s string) string {
	return strings.ToLower(s)
}

func Uppercase(s string) string {
	return strings.ToUpper(s)
}

func Trim(s string) string {
	return strings.TrimSpace(s)
}

// CollapseWhitespace replaces any run of whitespace with a single space
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// ItemName cleans up extracted display names without changing their case
func ItemName(s string) string {
	return CollapseWhitespace(Trim(s))
}

// Unit canonicalizes measurement units ("mg/dL " -> "mg/dl")
func Unit(s string) string {
	return Lowercase(strings.ReplaceAll(Trim(s), " ", ""))
}
