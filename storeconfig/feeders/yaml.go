package feeders

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// YamlFeeder reads a YAML file at Path.
type YamlFeeder struct {
	Path string
}

// NewYamlFeeder constructs a YamlFeeder for path.
func NewYamlFeeder(path string) YamlFeeder {
	return YamlFeeder{Path: path}
}

// Feed decodes the YAML file into target, which must be a pointer.
func (f YamlFeeder) Feed(target any) error {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return fmt.Errorf("storeconfig: reading yaml %q: %w", f.Path, err)
	}
	if err := yaml.Unmarshal(data, target); err != nil {
		return fmt.Errorf("storeconfig: parsing yaml %q: %w", f.Path, err)
	}
	return nil
}
