// pkg/util/json.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package util

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// DuplicateJSONKey records a key that appears more than once in the same
// JSON object.
type DuplicateJSONKey struct {
	Path string // dotted path of the enclosing object, e.g. "regions.ship"
	Key  string
}

func (d DuplicateJSONKey) String() string {
	if d.Path == "" {
		return d.Key
	}
	return d.Path + "." + d.Key
}

// FindDuplicateJSONKeys walks the token stream of the given JSON and
// returns every key that is repeated within a single object. encoding/json
// silently keeps the last one, which hides mistakes in hand-edited files.
// Malformed input is not reported here; the regular unmarshal will catch
// it.
func FindDuplicateJSONKeys(data []byte) []DuplicateJSONKey {
	dec := json.NewDecoder(bytes.NewReader(data))
	var dups []DuplicateJSONKey

	// walk consumes one value whose first token has already been read.
	var walk func(tok json.Token, path []string) bool
	walk = func(tok json.Token, path []string) bool {
		delim, ok := tok.(json.Delim)
		if !ok {
			return true
		}

		switch delim {
		case '{':
			seen := make(map[string]bool)
			for {
				kt, err := dec.Token()
				if err != nil {
					return false
				}
				if kt == json.Delim('}') {
					return true
				}
				key, _ := kt.(string)
				if seen[key] {
					dups = append(dups, DuplicateJSONKey{Path: strings.Join(path, "."), Key: key})
				}
				seen[key] = true

				vt, err := dec.Token()
				if err != nil || !walk(vt, append(path, key)) {
					return false
				}
			}

		case '[':
			for {
				et, err := dec.Token()
				if err != nil {
					return false
				}
				if et == json.Delim(']') {
					return true
				}
				// Array elements share the path of the array itself.
				if !walk(et, path) {
					return false
				}
			}
		}
		return true
	}

	if tok, err := dec.Token(); err == nil {
		walk(tok, nil)
	}
	return dups
}

// UnmarshalJSONBytes unmarshals the bytes into the given type but goes
// through some efforts to return useful error messages when the JSON is
// invalid.
func UnmarshalJSONBytes[T any](b []byte, out *T) error {
	err := json.Unmarshal(b, out)
	if err == nil {
		return nil
	}

	decodeOffset := func(offset int64) (line, char int) {
		line, char = 1, 1
		for i := 0; i < int(offset) && i < len(b); i++ {
			if b[i] == '\n' {
				line++
				char = 1
			} else {
				char++
			}
		}
		return
	}

	switch jerr := err.(type) {
	case *json.SyntaxError:
		line, char := decodeOffset(jerr.Offset)
		return fmt.Errorf("line %d, character %d: %w", line, char, jerr)

	case *json.UnmarshalTypeError:
		line, char := decodeOffset(jerr.Offset)
		return fmt.Errorf("line %d, character %d: %s value for %s.%s invalid for type %s",
			line, char, jerr.Value, jerr.Struct, jerr.Field, jerr.Type.String())

	default:
		return err
	}
}
