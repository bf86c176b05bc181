package kcdb

import (
	"fmt"
	"regexp"
	"strings"
)

// Flag modifies how Filter compiles its pattern.
type Flag string

const (
	// IgnoreCase matches letters case-insensitively.
	IgnoreCase Flag = "i"
	// Multiline lets ^ and $ match at line boundaries.
	Multiline Flag = "m"
	// DotAll lets . match a newline.
	DotAll Flag = "s"
)

func compilePattern(pattern string, flags []Flag) (*regexp.Regexp, error) {
	if len(flags) > 0 {
		var b strings.Builder
		for _, f := range flags {
			b.WriteString(string(f))
		}
		pattern = "(?" + b.String() + ")" + pattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, NewValidationError("pattern", err.Error(), pattern)
	}
	return re, nil
}

// Filter returns the items whose value or label contains a match of pattern.
// Order is preserved.
func Filter[T Reference](items []T, pattern string, flags ...Flag) ([]T, error) {
	re, err := compilePattern(pattern, flags)
	if err != nil {
		return nil, err
	}
	matched := make([]T, 0, len(items))
	for _, item := range items {
		if re.MatchString(item.GetValue()) || re.MatchString(item.GetLabel()) {
			matched = append(matched, item)
		}
	}
	return matched, nil
}

// Find returns the first item with the given id.
func Find[T Reference](items []T, id int) (T, error) {
	for _, item := range items {
		if item.GetID() == id {
			return item, nil
		}
	}
	var zero T
	return zero, fmt.Errorf("%w: id %d cannot be found", ErrNotFound, id)
}

// FindLabel returns the first item whose label equals label.
func FindLabel[T Reference](items []T, label string) (T, error) {
	for _, item := range items {
		if item.GetLabel() == label {
			return item, nil
		}
	}
	var zero T
	return zero, fmt.Errorf("%w: label %q cannot be found", ErrNotFound, label)
}
