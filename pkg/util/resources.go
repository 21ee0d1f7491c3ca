// pkg/util/resources.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package util

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"

	"github.com/klauspost/compress/zstd"
)

// Unfortunately, unlike io.ReadCloser, the zstd Decoder's Close() method
// doesn't return an error, so we need to make our own custom ReadCloser
// interface.
type ResourceReadCloser interface {
	io.Reader
	Close()
}

type bytesReadCloser struct {
	*bytes.Reader
}

func (bytesReadCloser) Close() {}

// OpenResource provides a ResourceReadCloser to access the specified file
// in fsys; if it's zstd compressed, the Reader will handle decompression
// transparently.
func OpenResource(fsys fs.FS, path string) (ResourceReadCloser, error) {
	f, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, err
	}
	br := bytesReadCloser{bytes.NewReader(f)}

	if filepath.Ext(path) == ".zst" {
		zr, err := zstd.NewReader(br, zstd.WithDecoderConcurrency(0))
		if err != nil {
			return nil, err
		}
		return zr, nil
	}

	return br, nil
}

// LoadResourceBytes returns the full (decompressed, if needed) contents of
// the given resource.
func LoadResourceBytes(fsys fs.FS, path string) ([]byte, error) {
	r, err := OpenResource(fsys, path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	return io.ReadAll(r)
}

// CompressZstd returns the zstd-compressed version of b, as is expected
// for resources with a .zst suffix.
func CompressZstd(b []byte) []byte {
	zw, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		// Only possible with invalid options.
		panic(err)
	}
	defer zw.Close()
	return zw.EncodeAll(b, nil)
}

var ErrNoResources = errors.New("unable to find resources directory")

// ResourcesFS returns a filesystem rooted at the resources directory,
// which is expected to contain the named marker entry. The directory
// alongside the executable is tried first and then the current working
// directory and its two parents, which is handy during development.
func ResourcesFS(marker string) (fs.StatFS, error) {
	check := func(dir string) (fs.StatFS, bool) {
		fsys, ok := os.DirFS(dir).(fs.StatFS)
		if !ok {
			return nil, false
		}
		_, err := fsys.Stat(marker)
		return fsys, err == nil
	}

	if path, err := os.Executable(); err == nil {
		dir := filepath.Dir(path)
		if runtime.GOOS == "darwin" {
			dir = filepath.Clean(filepath.Join(dir, "..", "Resources"))
		} else {
			dir = filepath.Join(dir, "resources")
		}
		if fsys, ok := check(dir); ok {
			return fsys, nil
		}
	}

	dir, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	for range 3 {
		if fsys, ok := check(filepath.Join(dir, "resources")); ok {
			return fsys, nil
		}
		dir = filepath.Join(dir, "..")
	}

	return nil, ErrNoResources
}
