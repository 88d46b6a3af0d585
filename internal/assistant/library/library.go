// Package library holds the curated task ideas and backup tips shipped with the binary.
package library

import (
	_ "embed"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed library.yaml
var defaultLibrary []byte

// Category is a named group of task ideas
type Category struct {
	Name  string   `yaml:"name" json:"name"`
	Tasks []string `yaml:"tasks" json:"tasks"`
}

// Library is the curated content served by the assistant
type Library struct {
	Categories []Category `yaml:"categories" json:"categories"`
	BackupTips []string   `yaml:"backup_tips" json:"-"`
}

// Load parses the embedded library
func Load() (*Library, error) {
	return Parse(defaultLibrary)
}

// Parse decodes a library document. At least one backup tip is required.
func Parse(data []byte) (*Library, error) {
	var lib Library
	if err := yaml.Unmarshal(data, &lib); err != nil {
		return nil, fmt.Errorf("failed to parse library: %w", err)
	}
	if len(lib.BackupTips) == 0 {
		return nil, errors.New("library has no backup tips")
	}
	return &lib, nil
}

// MustLoad is Load for program start; it panics on a broken embedded file.
func MustLoad() *Library {
	lib, err := Load()
	if err != nil {
		panic(err)
	}
	return lib
}
