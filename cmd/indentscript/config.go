package main

import (
	"os"
	"path/filepath"

	"github.com/juju/errors"
	"gopkg.in/yaml.v2"
)

// config holds the optional settings a user may place in an .indentscriptrc
// file in the current directory. None of the fields are required; a missing
// file is not an error.
type config struct {
	Verbose bool   `yaml:"verbose"`
	OutDir  string `yaml:"outDir"`
}

const configFileName = ".indentscriptrc"

// loadConfig looks for .indentscriptrc in the current directory and decodes
// it as YAML. A missing file yields the zero-value config and no error.
func loadConfig() (config, error) {
	var cfg config
	data, err := os.ReadFile(filepath.Join(".", configFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, errors.Annotate(err, "reading .indentscriptrc")
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Annotate(err, "parsing .indentscriptrc")
	}
	return cfg, nil
}
