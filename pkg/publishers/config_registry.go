package publishers

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// configFile represents the structure of the publishers configuration file.
type configFile struct {
	Publishers []PublisherConfig `json:"publishers" yaml:"publishers"`
}

// ConfigRegistry holds the validated publisher entries of one file, in file order.
type ConfigRegistry struct {
	entries []PublisherConfig
	byID    map[string]int
}

// LoadRegistry loads the publisher registry from a YAML/JSON file.
func LoadRegistry(path string) (*ConfigRegistry, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("publishers file path is empty")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read publishers file: %w", err)
	}

	file, err := decodeConfigFile(raw, filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	if len(file.Publishers) == 0 {
		return nil, errors.New("publishers file contains no publishers entries")
	}

	reg := &ConfigRegistry{
		entries: make([]PublisherConfig, 0, len(file.Publishers)),
		byID:    make(map[string]int, len(file.Publishers)),
	}
	for i, entry := range file.Publishers {
		cfg := sanitizePublisherConfig(entry)
		if err := validatePublisherConfig(cfg); err != nil {
			return nil, fmt.Errorf("publishers[%d]: %w", i, err)
		}
		if _, dup := reg.byID[cfg.ID]; dup {
			return nil, fmt.Errorf("duplicate publisher id %q", cfg.ID)
		}
		reg.byID[cfg.ID] = len(reg.entries)
		reg.entries = append(reg.entries, cfg)
	}
	return reg, nil
}

// decodeConfigFile picks the decoder from ext; without an extension YAML then JSON are tried.
func decodeConfigFile(data []byte, ext string) (configFile, error) {
	var decoders []func([]byte, any) error
	switch strings.ToLower(strings.TrimSpace(ext)) {
	case ".yaml", ".yml":
		decoders = append(decoders, yaml.Unmarshal)
	case ".json":
		decoders = append(decoders, json.Unmarshal)
	case "":
		decoders = append(decoders, yaml.Unmarshal, json.Unmarshal)
	default:
		return configFile{}, fmt.Errorf("publishers file extension %q not recognized (expected YAML or JSON)", ext)
	}

	var errs []error
	for _, decode := range decoders {
		var file configFile
		if err := decode(data, &file); err != nil {
			errs = append(errs, err)
			continue
		}
		return file, nil
	}
	return configFile{}, fmt.Errorf("decode publishers file: %w", errors.Join(errs...))
}

// ByID returns the publisher config by id.
func (r *ConfigRegistry) ByID(id string) (PublisherConfig, bool) {
	id = strings.TrimSpace(id)
	if r == nil || id == "" {
		return PublisherConfig{}, false
	}
	i, ok := r.byID[id]
	if !ok {
		return PublisherConfig{}, false
	}
	return r.entries[i], true
}

// All returns a copy of every configured publisher.
func (r *ConfigRegistry) All() []PublisherConfig {
	if r == nil {
		return nil
	}
	return append([]PublisherConfig(nil), r.entries...)
}

// Enabled returns publishers that are enabled.
func (r *ConfigRegistry) Enabled() []PublisherConfig {
	if r == nil {
		return nil
	}
	out := make([]PublisherConfig, 0, len(r.entries))
	for _, cfg := range r.entries {
		if cfg.EnabledValue() {
			out = append(out, cfg)
		}
	}
	return out
}

// EnabledValue returns enabled flag defaulting to true.
func (cfg PublisherConfig) EnabledValue() bool {
	return cfg.Enabled == nil || *cfg.Enabled
}
