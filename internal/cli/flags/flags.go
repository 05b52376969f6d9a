// Package flags provides flag types, shared flag sets and validators for the CLI.
package flags

import (
	"fmt"
	"strings"
)

// BoolFlag is a boolean flag that tracks whether it was explicitly set, so a flag
// left alone does not override the configuration file.
type BoolFlag struct {
	Value  bool
	WasSet bool
}

// Set parses and sets the boolean value.
func (b *BoolFlag) Set(s string) error {
	if s == "" {
		b.Value = true
		b.WasSet = true
		return nil
	}
	switch strings.ToLower(s) {
	case "true", "1":
		b.Value = true
	case "false", "0":
		b.Value = false
	default:
		return fmt.Errorf("invalid boolean %q", s)
	}
	b.WasSet = true
	return nil
}

// String returns the string representation of the boolean value.
func (b *BoolFlag) String() string {
	if b.Value {
		return "true"
	}
	return "false"
}

// IsBoolFlag returns true, indicating this is a boolean flag that doesn't require a value.
func (b *BoolFlag) IsBoolFlag() bool { return true }

// StringList collects every occurrence of a repeatable flag. Comma separated values
// are split.
type StringList []string

// Set appends the comma separated parts of s.
func (l *StringList) Set(s string) error {
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			*l = append(*l, part)
		}
	}
	return nil
}

// String joins the collected values.
func (l *StringList) String() string {
	if l == nil {
		return ""
	}
	return strings.Join(*l, ",")
}
