package engine

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"
)

// SiteConfigFile is read from the input root once per session. Its keys seed
// the values set with setvar before config.lua runs.
const SiteConfigFile = "asg.yaml"

// ConfigScript runs before every compiled file.
const ConfigScript = "config.lua"

// loadSiteDefaults reads the site configuration file. A missing file yields
// no defaults.
func loadSiteDefaults(inputDir string) (map[string]string, error) {
	data, err := os.ReadFile(filepath.Join(inputDir, SiteConfigFile))
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, err
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse %s: %w", SiteConfigFile, err)
	}
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		if v == nil {
			out[k] = ""
			continue
		}
		out[k] = fmt.Sprint(v)
	}
	return out, nil
}

// readYAML decodes a data file for the read_yaml binding.
func readYAML(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}
