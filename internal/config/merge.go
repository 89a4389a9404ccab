package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// sectionDecoder replaces one top-level section of a Config from a YAML node.
type sectionDecoder func(cfg *Config, node *yaml.Node) error

// replace decodes node into a zero T, so maps and lists from the overlay
// never merge with the values already in dst.
func replace[T any](field func(*Config) *T) sectionDecoder {
	return func(cfg *Config, node *yaml.Node) error {
		var v T
		if err := node.Decode(&v); err != nil {
			return err
		}
		*field(cfg) = v
		return nil
	}
}

// sections lists the overlay keys a project config may set. Other keys are
// ignored.
//
//nolint:gochecknoglobals // lookup table
var sections = map[string]sectionDecoder{
	"output":  replace(func(c *Config) *OutputConfig { return &c.Output }),
	"logging": replace(func(c *Config) *LoggingConfig { return &c.Logging }),
	"storage": replace(func(c *Config) *StorageConfig { return &c.Storage }),
	"cache":   replace(func(c *Config) *CacheConfig { return &c.Cache }),
	"factors": replace(func(c *Config) *FactorsConfig { return &c.Factors }),
	"budget":  replace(func(c *Config) *BudgetConfig { return &c.Budget }),
	"server":  replace(func(c *Config) *ServerConfig { return &c.Server }),
	"user":    replace(func(c *Config) *string { return &c.User }),
}

// ShallowMergeYAML applies the YAML file at overlayPath onto target. Each
// top-level section present in the overlay replaces the whole section in
// target; absent sections are left as they are.
func ShallowMergeYAML(target *Config, overlayPath string) error {
	if target == nil {
		return errors.New("shallow merge: nil target config")
	}

	data, err := os.ReadFile(overlayPath)
	if err != nil {
		return fmt.Errorf("reading overlay file %s: %w", overlayPath, err)
	}

	var doc yaml.Node
	if err = yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parsing overlay YAML from %s: %w", overlayPath, err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return fmt.Errorf("parsing overlay YAML from %s: top level must be a mapping", overlayPath)
	}

	for i := 0; i+1 < len(root.Content); i += 2 {
		key, value := root.Content[i].Value, root.Content[i+1]
		decode, ok := sections[key]
		if !ok {
			continue
		}
		if err = decode(target, value); err != nil {
			return fmt.Errorf("applying overlay section %q: %w", key, err)
		}
	}

	return nil
}
