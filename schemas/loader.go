// Package schemas embeds the JSON schemas for the configuration file and the JSON
// snapshot document.
package schemas

import (
	"bytes"
	"embed"
	"fmt"
	"sort"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v6"
)

//go:embed *.schema.json
var schemaFS embed.FS

const (
	Config   = "config"
	Snapshot = "snapshot"
)

var names = []string{Config, Snapshot}

var (
	compileOnce sync.Once
	compiler    *jsonschema.Compiler
	compileErr  error
)

func getCompiler() (*jsonschema.Compiler, error) {
	compileOnce.Do(func() {
		c := jsonschema.NewCompiler()
		for _, name := range names {
			data, err := schemaFS.ReadFile(schemaPath(name))
			if err != nil {
				compileErr = fmt.Errorf("read schema %s: %w", name, err)
				return
			}
			doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
			if err != nil {
				compileErr = fmt.Errorf("decode schema %s: %w", name, err)
				return
			}
			if err := c.AddResource(schemaURL(name), doc); err != nil {
				compileErr = fmt.Errorf("register schema %s: %w", name, err)
				return
			}
		}
		compiler = c
	})
	return compiler, compileErr
}

func schemaPath(name string) string {
	return fmt.Sprintf("%s.schema.json", name)
}

func schemaURL(name string) string {
	return fmt.Sprintf("mem://schemas/%s.schema.json", name)
}

// Compile returns the compiled schema registered under name.
func Compile(name string) (*jsonschema.Schema, error) {
	c, err := getCompiler()
	if err != nil {
		return nil, err
	}
	s, err := c.Compile(schemaURL(name))
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", name, err)
	}
	return s, nil
}

// Validate decodes clean JSON and checks it against the named schema.
func Validate(name string, data []byte) error {
	s, err := Compile(name)
	if err != nil {
		return err
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("decode %s document: %w", name, err)
	}
	if err := s.Validate(doc); err != nil {
		return fmt.Errorf("validate %s: %w", name, err)
	}
	return nil
}

// List returns the raw schema documents keyed by name.
func List() (map[string][]byte, error) {
	out := make(map[string][]byte, len(names))
	for _, n := range names {
		b, err := schemaFS.ReadFile(schemaPath(n))
		if err != nil {
			return nil, fmt.Errorf("read schema %s: %w", n, err)
		}
		out[n] = b
	}
	return out, nil
}

// Names returns the registered schema names in order.
func Names() []string {
	out := append([]string(nil), names...)
	sort.Strings(out)
	return out
}
