package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

// Load reads the TOML file over the defaults. Unknown keys are reported as an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	return cfg, checkMeta(md)
}

// Parse does the same as Load does, but reads the document from the string.
func Parse(document string) (*Config, error) {
	cfg := Default()

	md, err := toml.Decode(document, cfg)
	if err != nil {
		return nil, err
	}

	return cfg, checkMeta(md)
}

func checkMeta(md toml.MetaData) error {
	undecoded := md.Undecoded()
	if len(undecoded) == 0 {
		return nil
	}

	keys := make([]string, len(undecoded))
	for i, key := range undecoded {
		keys[i] = key.String()
	}

	return fmt.Errorf("%w: unknown keys: %s", ErrInvalid, strings.Join(keys, ", "))
}
