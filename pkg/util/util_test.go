// pkg/util/util_test.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package util

import (
	"errors"
	"io/fs"
	"reflect"
	"strings"
	"testing"
	"testing/fstest"
)

func TestFindDuplicateJSONKeys(t *testing.T) {
	tests := []struct {
		name     string
		json     string
		expected []DuplicateJSONKey
	}{
		{
			name:     "no duplicates",
			json:     `{"a": 1, "b": 2, "c": 3}`,
			expected: nil,
		},
		{
			name:     "root duplicate",
			json:     `{"ship": {"x": 0}, "rock": 2, "ship": {"x": 4}}`,
			expected: []DuplicateJSONKey{{Path: "", Key: "ship"}},
		},
		{
			name:     "nested duplicate",
			json:     `{"regions": {"ship": 1, "ship": 2}}`,
			expected: []DuplicateJSONKey{{Path: "regions", Key: "ship"}},
		},
		{
			name: "several levels",
			json: `{"a": 1, "a": 2, "nested": {"b": {"c": 1, "c": 2}}}`,
			expected: []DuplicateJSONKey{
				{Path: "", Key: "a"},
				{Path: "nested.b", Key: "c"},
			},
		},
		{
			name:     "same key in sibling objects",
			json:     `{"items": [{"x": 1}, {"x": 2}]}`,
			expected: nil,
		},
		{
			name:     "duplicate inside array element",
			json:     `{"items": [{"x": 1, "x": 2}]}`,
			expected: []DuplicateJSONKey{{Path: "items", Key: "x"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := FindDuplicateJSONKeys([]byte(tt.json))
			if !reflect.DeepEqual(result, tt.expected) {
				t.Errorf("got %+v, expected %+v", result, tt.expected)
			}
		})
	}
}

func TestUnmarshalJSONBytesError(t *testing.T) {
	var out map[string]int
	err := UnmarshalJSONBytes([]byte("{\n  \"a\": 1,\n  \"b\": }"), &out)
	if err == nil {
		t.Fatalf("expected an error for malformed JSON")
	}
	if !strings.Contains(err.Error(), "line 3") {
		t.Errorf("expected error to mention line 3: %v", err)
	}
}

func TestLoadResourceBytes(t *testing.T) {
	manifest := []byte(`{"ship": {"x": 0, "y": 0, "w": 32, "h": 32}}`)
	fsys := fstest.MapFS{
		"atlas.json":     &fstest.MapFile{Data: manifest},
		"atlas.json.zst": &fstest.MapFile{Data: CompressZstd(manifest)},
	}

	for _, name := range []string{"atlas.json", "atlas.json.zst"} {
		b, err := LoadResourceBytes(fsys, name)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if string(b) != string(manifest) {
			t.Errorf("%s: got %q, expected %q", name, b, manifest)
		}
	}

	if _, err := LoadResourceBytes(fsys, "missing.json"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected fs.ErrNotExist, got %v", err)
	}
}

func TestSortedMapKeys(t *testing.T) {
	m := map[string]int{"text": 3, "geometry": 1, "sprite": 2}
	if keys := SortedMapKeys(m); !reflect.DeepEqual(keys, []string{"geometry", "sprite", "text"}) {
		t.Errorf("unexpected key order %v", keys)
	}
	if Select(true, 1, 2) != 1 || Select(false, 1, 2) != 2 {
		t.Errorf("Select returned the wrong value")
	}
}
