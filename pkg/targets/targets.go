package targets

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Package targets loads the set of HTTP endpoints to probe from YAML or JSON.

const defaultExpectStatus = http.StatusOK

// Target describes one endpoint relative to the client base URL.
type Target struct {
	ID            string            `json:"id" yaml:"id"`
	Name          string            `json:"name" yaml:"name"`
	Method        string            `json:"method" yaml:"method"`
	Endpoint      string            `json:"endpoint" yaml:"endpoint"`
	Params        map[string]string `json:"params" yaml:"params"`
	Headers       map[string]string `json:"headers" yaml:"headers"`
	Form          map[string]string `json:"form" yaml:"form"`
	JSON          any               `json:"json" yaml:"json"`
	RetryOnStatus []int             `json:"retry_on_status" yaml:"retry_on_status"`
	ExpectStatus  int               `json:"expect_status" yaml:"expect_status"`
	Enabled       *bool             `json:"enabled" yaml:"enabled"`
}

// IsEnabled reports whether the target should be probed. Targets are enabled unless set to false.
func (t Target) IsEnabled() bool {
	return t.Enabled == nil || *t.Enabled
}

// DisplayName returns the name, falling back to the id.
func (t Target) DisplayName() string {
	if t.Name != "" {
		return t.Name
	}
	return t.ID
}

type registryFile struct {
	Targets []Target `json:"targets" yaml:"targets"`
}

// Registry is an immutable, validated set of targets in file order.
type Registry struct {
	targets []Target
	idx     map[string]int
}

// All returns a copy of every loaded target.
func (r *Registry) All() []Target {
	if r == nil || len(r.targets) == 0 {
		return nil
	}
	out := make([]Target, len(r.targets))
	copy(out, r.targets)
	return out
}

// Enabled returns the targets that should be probed.
func (r *Registry) Enabled() []Target {
	if r == nil {
		return nil
	}
	out := make([]Target, 0, len(r.targets))
	for _, t := range r.targets {
		if t.IsEnabled() {
			out = append(out, t)
		}
	}
	return out
}

// ByID returns the target with the given id, if loaded.
func (r *Registry) ByID(id string) (Target, bool) {
	id = strings.TrimSpace(id)
	if r == nil || id == "" {
		return Target{}, false
	}
	i, ok := r.idx[id]
	if !ok {
		return Target{}, false
	}
	return r.targets[i], true
}

// LoadRegistry reads and validates the targets file at path.
func LoadRegistry(path string) (*Registry, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("targets file path is empty")
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open targets file: %w", err)
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read targets file: %w", err)
	}

	return ParseRegistry(raw, filepath.Ext(path))
}

// ParseRegistry decodes data as YAML or JSON according to ext; an empty ext tries both.
func ParseRegistry(data []byte, ext string) (*Registry, error) {
	file, err := parseFile(data, ext)
	if err != nil {
		return nil, err
	}
	if len(file.Targets) == 0 {
		return nil, errors.New("targets file contains no targets entries")
	}

	reg := &Registry{
		targets: make([]Target, 0, len(file.Targets)),
		idx:     make(map[string]int, len(file.Targets)),
	}
	for i := range file.Targets {
		t := sanitizeTarget(file.Targets[i])
		if err := validateTarget(t); err != nil {
			return nil, fmt.Errorf("target[%d]: %w", i, err)
		}
		if _, exists := reg.idx[t.ID]; exists {
			return nil, fmt.Errorf("duplicate target id %q", t.ID)
		}
		reg.idx[t.ID] = len(reg.targets)
		reg.targets = append(reg.targets, t)
	}
	return reg, nil
}

type unmarshalFn func([]byte, any) error

func parseFile(data []byte, ext string) (registryFile, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))

	decoders := []struct {
		name string
		ext  string
		fn   unmarshalFn
	}{
		{name: "yaml", ext: ".yaml", fn: yaml.Unmarshal},
		{name: "yaml", ext: ".yml", fn: yaml.Unmarshal},
		{name: "json", ext: ".json", fn: json.Unmarshal},
	}

	var errs []error
	for _, d := range decoders {
		if ext != "" && ext != d.ext {
			continue
		}
		var file registryFile
		if err := d.fn(data, &file); err != nil {
			errs = append(errs, fmt.Errorf("decode %s targets: %w", d.name, err))
			continue
		}
		return file, nil
	}

	if len(errs) == 0 {
		return registryFile{}, fmt.Errorf("targets file extension %q not recognized (expected YAML or JSON)", ext)
	}
	return registryFile{}, errors.Join(errs...)
}

func sanitizeTarget(t Target) Target {
	t.ID = strings.TrimSpace(t.ID)
	t.Name = strings.TrimSpace(t.Name)
	t.Method = strings.ToUpper(strings.TrimSpace(t.Method))
	t.Endpoint = strings.TrimSpace(t.Endpoint)

	if t.Method == "" {
		t.Method = http.MethodGet
	}
	if t.ExpectStatus == 0 {
		t.ExpectStatus = defaultExpectStatus
	}
	return t
}

func validateTarget(t Target) error {
	if t.ID == "" {
		return errors.New("id is required")
	}
	if t.Endpoint == "" {
		return fmt.Errorf("endpoint is required for target %q", t.ID)
	}
	if len(t.Form) > 0 && t.JSON != nil {
		return fmt.Errorf("target %q sets both form and json", t.ID)
	}
	if !validStatus(t.ExpectStatus) {
		return fmt.Errorf("expect_status %d out of range for target %q", t.ExpectStatus, t.ID)
	}
	for _, code := range t.RetryOnStatus {
		if !validStatus(code) {
			return fmt.Errorf("retry_on_status %d out of range for target %q", code, t.ID)
		}
	}
	return nil
}

func validStatus(code int) bool {
	return code >= 100 && code <= 599
}
