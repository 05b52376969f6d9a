// Package jsonc reads JSON documents that may carry comments and trailing commas.
package jsonc

import (
	"encoding/json"
	"fmt"
	"os"

	jsonc "github.com/muhammadmuzzammil1998/jsonc"
)

// ReadFile loads path and returns it as plain JSON.
func ReadFile(path string) ([]byte, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return Clean(b), nil
}

// DecodeFile loads a JSONC file into dest.
func DecodeFile(path string, dest any) error {
	clean, err := ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(clean, dest); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// Clean strips comments and trailing commas from JSONC input.
func Clean(data []byte) []byte {
	return jsonc.ToJSON(data)
}
