// cmd/immdraw/config.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package main

import (
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/mmp/immdraw/pkg/log"
	"github.com/mmp/immdraw/pkg/platform"
	"github.com/mmp/immdraw/pkg/renderer"
	"github.com/mmp/immdraw/pkg/util"

	"github.com/brunoga/deep"
)

const CurrentConfigVersion = 1

type Config struct {
	platform.Config

	Version int `json:"version"`

	Canvas     renderer.Options `json:"canvas"`
	Scene      string           `json:"scene"`
	FontSize   int              `json:"font_size"`
	Background renderer.RGB     `json:"background"`
}

var defaultConfig = Config{
	Config: platform.Config{
		EnableMSAA: true,
		VSync:      true,
	},
	Version: CurrentConfigVersion,
	Canvas: renderer.Options{
		PixelAlignment: &renderer.DefaultPixelAlignment,
		FlushWhenFull:  true,
	},
	Scene:      "all",
	FontSize:   14,
	Background: renderer.RGB{R: 0.08, G: 0.09, B: 0.11},
}

// getDefaultConfig returns a copy of defaultConfig that the caller is
// free to modify; the PixelAlignment pointer in particular must not be
// shared.
func getDefaultConfig() *Config {
	c := deep.MustCopy(defaultConfig)
	return &c
}

func configFilePath(lg *log.Logger) string {
	dir, err := os.UserConfigDir()
	if err != nil {
		lg.Errorf("Unable to find user config dir: %v", err)
		dir = "."
	}

	dir = filepath.Join(dir, "immdraw")
	err = os.MkdirAll(dir, 0o700)
	if err != nil {
		lg.Errorf("%s: unable to make directory for config file: %v", dir, err)
	}

	return filepath.Join(dir, "config.json")
}

// LoadOrMakeDefaultConfig reads the saved config, if there is one. Fields
// missing from the file keep their default values. If the file can't be
// parsed, the default config is returned along with the error.
func LoadOrMakeDefaultConfig(lg *log.Logger) (*Config, error) {
	fn := configFilePath(lg)
	lg.Infof("Loading config from: %s", fn)

	contents, err := os.ReadFile(fn)
	if errors.Is(err, fs.ErrNotExist) {
		lg.Info("No saved config; using defaults")
		return getDefaultConfig(), nil
	} else if err != nil {
		return getDefaultConfig(), err
	}

	for _, dup := range util.FindDuplicateJSONKeys(contents) {
		lg.Warnf("%s: %s", fn, dup)
	}

	config := getDefaultConfig()
	if err := util.UnmarshalJSONBytes(contents, config); err != nil {
		return getDefaultConfig(), err
	}

	if config.Version < CurrentConfigVersion {
		lg.Infof("Upgrading config from version %d", config.Version)
		config.Version = CurrentConfigVersion
	}
	if config.FontSize <= 0 {
		config.FontSize = defaultConfig.FontSize
	}

	return config, nil
}

func (c *Config) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	return enc.Encode(c)
}

func (c *Config) Save(lg *log.Logger) error {
	lg.Infof("Saving config to: %s", configFilePath(lg))
	f, err := os.Create(configFilePath(lg))
	if err != nil {
		return err
	}
	defer f.Close()

	return c.Encode(f)
}
