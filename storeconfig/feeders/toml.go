// Package feeders implements storeconfig's file-reading backends: small
// adapters from a file format to a raw, loosely-typed Go value, grounded
// on the teacher's own feeders package (feeders/toml.go, feeders/yaml.go).
// Feed decodes into any pointer target; storeconfig.Load, the only
// consumer in this module, passes a *storeconfig.RawOptions.
package feeders

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// TomlFeeder reads a TOML file at Path.
type TomlFeeder struct {
	Path string
}

// NewTomlFeeder constructs a TomlFeeder for path.
func NewTomlFeeder(path string) TomlFeeder {
	return TomlFeeder{Path: path}
}

// Feed decodes the TOML file into target, which must be a pointer.
func (f TomlFeeder) Feed(target any) error {
	_, err := toml.DecodeFile(f.Path, target)
	if err != nil {
		return fmt.Errorf("storeconfig: reading toml %q: %w", f.Path, err)
	}
	return nil
}
