package config

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v2"
)

// initConfig decodes r into target according to the suffix of name.
//
// Parameters:
// - r: the configuration stream.
// - name: file name, only its suffix is inspected.
// - target: pointer to the struct to fill.
//
// Returns:
// - error: an error if the format is unknown or decoding failed.
func initConfig(r io.Reader, name string, target any) error {
	if strings.HasSuffix(name, ".toml") {
		_, err := toml.NewDecoder(r).Decode(target)
		return err
	}
	if strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml") {
		return yaml.NewDecoder(r).Decode(target)
	}
	if strings.HasSuffix(name, ".json") {
		return json.NewDecoder(r).Decode(target)
	}
	return fmt.Errorf("unknown config format type: %s. Use .toml, .yaml or .json suffix in filename", name)
}
