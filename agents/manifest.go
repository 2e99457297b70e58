package agents

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/lexcodex/swarmcouncil/framework"
)

const (
	PersonaAPIVersion = "swarmcouncil/v1"
	PersonaKind       = "AgentPersona"
)

// PersonaManifest is the on-disk description of one council persona.
type PersonaManifest struct {
	APIVersion string          `yaml:"apiVersion"`
	Kind       string          `yaml:"kind"`
	Metadata   PersonaMetadata `yaml:"metadata"`
	Spec       PersonaSpec     `yaml:"spec"`

	SourcePath string `yaml:"-"`
}

// PersonaMetadata identifies the persona. Order positions it in the
// registry; ties break on ID.
type PersonaMetadata struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Icon        string `yaml:"icon,omitempty"`
	Order       int    `yaml:"order"`
	Description string `yaml:"description,omitempty"`
}

// PersonaSpec binds the persona to a backing model and instructions.
type PersonaSpec struct {
	Model        string `yaml:"model"`
	SystemPrompt string `yaml:"systemPrompt"`
}

// LoadPersonaManifest parses and validates a manifest file.
func LoadPersonaManifest(path string) (*PersonaManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var manifest PersonaManifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := manifest.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	manifest.SourcePath = path
	return &manifest, nil
}

// SavePersonaManifest writes the manifest, creating parent directories.
func SavePersonaManifest(path string, manifest *PersonaManifest) error {
	if manifest == nil {
		return errors.New("manifest missing")
	}
	if err := manifest.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(manifest)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate enforces manifest semantics.
func (m *PersonaManifest) Validate() error {
	if m.APIVersion == "" {
		return errors.New("apiVersion required")
	}
	if m.Kind != PersonaKind {
		return fmt.Errorf("kind must be %s, got %q", PersonaKind, m.Kind)
	}
	return validateProfile(m.Profile())
}

// Profile converts the manifest into the runtime persona.
func (m *PersonaManifest) Profile() framework.AgentProfile {
	return framework.AgentProfile{
		ID:           strings.TrimSpace(m.Metadata.ID),
		Name:         strings.TrimSpace(m.Metadata.Name),
		Icon:         m.Metadata.Icon,
		Model:        strings.TrimSpace(m.Spec.Model),
		SystemPrompt: strings.TrimSpace(m.Spec.SystemPrompt),
	}
}

func validateProfile(p framework.AgentProfile) error {
	switch {
	case p.ID == "":
		return errors.New("metadata.id required")
	case strings.ContainsAny(p.ID, " \t/"):
		return fmt.Errorf("metadata.id %q must not contain spaces or slashes", p.ID)
	case p.Name == "":
		return fmt.Errorf("persona %s: metadata.name required", p.ID)
	case p.Model == "":
		return fmt.Errorf("persona %s: spec.model required", p.ID)
	case p.SystemPrompt == "":
		return fmt.Errorf("persona %s: spec.systemPrompt required", p.ID)
	}
	return nil
}
