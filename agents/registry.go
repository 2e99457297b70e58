package agents

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/lexcodex/swarmcouncil/framework"
)

// ErrAgentNotFound indicates lookup failure.
var ErrAgentNotFound = errors.New("agent not found")

// RegistryOptions configures persona discovery.
type RegistryOptions struct {
	Workspace string
	Paths     []string
	Logger    *zap.Logger
}

// Registry is the ordered, immutable set of council personas.
type Registry struct {
	profiles []framework.AgentProfile
	sources  map[string]string
	builtin  bool
}

// NewRegistry validates profiles and keeps them in the given order.
func NewRegistry(profiles []framework.AgentProfile) (*Registry, error) {
	if len(profiles) == 0 {
		return nil, errors.New("registry needs at least one persona")
	}
	for _, p := range profiles {
		if err := validateProfile(p); err != nil {
			return nil, err
		}
	}
	if dups := lo.FindDuplicates(lo.Map(profiles, func(p framework.AgentProfile, _ int) string { return p.ID })); len(dups) > 0 {
		return nil, fmt.Errorf("duplicate persona ids: %s", strings.Join(dups, ", "))
	}
	return &Registry{
		profiles: append([]framework.AgentProfile(nil), profiles...),
		sources:  map[string]string{},
	}, nil
}

// LoadRegistry scans the search paths for persona manifests. Invalid files
// are logged and skipped; when nothing valid is found the built-in council
// is used.
func LoadRegistry(opts RegistryOptions) (*Registry, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	var manifests []*PersonaManifest
	for _, dir := range searchPaths(opts) {
		manifests = append(manifests, loadDir(dir, logger)...)
	}
	if len(manifests) == 0 {
		reg, err := NewRegistry(DefaultProfiles())
		if err != nil {
			return nil, err
		}
		reg.builtin = true
		return reg, nil
	}

	sort.SliceStable(manifests, func(i, j int) bool {
		if manifests[i].Metadata.Order != manifests[j].Metadata.Order {
			return manifests[i].Metadata.Order < manifests[j].Metadata.Order
		}
		return manifests[i].Metadata.ID < manifests[j].Metadata.ID
	})
	profiles := lo.Map(manifests, func(m *PersonaManifest, _ int) framework.AgentProfile { return m.Profile() })
	reg, err := NewRegistry(profiles)
	if err != nil {
		return nil, err
	}
	for _, m := range manifests {
		reg.sources[m.Metadata.ID] = relativeSource(m.SourcePath, opts.Workspace)
	}
	return reg, nil
}

// List returns copies of the personas in registry order.
func (r *Registry) List() []framework.AgentProfile {
	return append([]framework.AgentProfile(nil), r.profiles...)
}

// Get retrieves a persona by id.
func (r *Registry) Get(id string) (framework.AgentProfile, bool) {
	return lo.Find(r.profiles, func(p framework.AgentProfile) bool { return p.ID == id })
}

// Len reports the persona count.
func (r *Registry) Len() int { return len(r.profiles) }

// Builtin reports whether the registry fell back to the built-in council.
func (r *Registry) Builtin() bool { return r.builtin }

// Source returns the manifest path a persona came from, or "builtin".
func (r *Registry) Source(id string) string {
	if src, ok := r.sources[id]; ok {
		return src
	}
	return "builtin"
}

func loadDir(dir string, logger *zap.Logger) []*PersonaManifest {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var out []*PersonaManifest
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !strings.HasSuffix(entry.Name(), ".yaml") && !strings.HasSuffix(entry.Name(), ".yml") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		manifest, err := LoadPersonaManifest(path)
		if err != nil {
			logger.Warn("skipping persona manifest", zap.String("path", path), zap.Error(err))
			continue
		}
		out = append(out, manifest)
	}
	return out
}

func searchPaths(opts RegistryOptions) []string {
	paths := opts.Paths
	if len(paths) == 0 {
		paths = DefaultAgentPaths(opts.Workspace)
	}
	set := make(map[string]struct{})
	var resolved []string
	for _, path := range paths {
		path = expandPath(path, opts.Workspace)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if _, exists := set[path]; exists {
			continue
		}
		set[path] = struct{}{}
		resolved = append(resolved, path)
	}
	return resolved
}

func relativeSource(source, workspace string) string {
	if workspace == "" {
		return source
	}
	if rel, err := filepath.Rel(workspace, source); err == nil {
		return rel
	}
	return source
}
