package router

import (
	"bytes"
	"crypto/sha256"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	routererrors "github.com/CoworkedShawn/openclaw-skills/internal/errors"
)

// FileConfig is the on-disk routing configuration.
type FileConfig struct {
	Intents  map[string]IntentSpec   `yaml:"intents,omitempty"`
	Mappings map[string]SkillMapping `yaml:"mappings,omitempty"`
}

// Snapshot is one immutable, versioned view of the routing configuration.
// Requests read a single snapshot for their whole lifetime.
type Snapshot struct {
	Version  uint64
	Catalog  *Catalog
	Mappings *MappingTable
	Analyzer *Analyzer
	Source   string // "defaults" or the file path
	LoadedAt time.Time

	digest [sha256.Size]byte
}

// ConfigStore publishes routing configuration snapshots.
// Reads are lock-free; writers are serialized and every change bumps Version.
type ConfigStore struct {
	path       string
	extractors map[string]ParamExtractor

	mu      sync.Mutex // serializes writers
	current atomic.Pointer[Snapshot]
}

// ConfigOption configures a ConfigStore.
type ConfigOption func(*ConfigStore)

// WithExtractors overlays custom parameter extractors on the defaults.
func WithExtractors(extractors map[string]ParamExtractor) ConfigOption {
	return func(s *ConfigStore) {
		s.extractors = mergeExtractors(extractors)
	}
}

// NewConfigStore loads configuration from path. A missing file, or an empty
// path, yields the built-in defaults; AddIntent and AddMapping create the file.
func NewConfigStore(path string, opts ...ConfigOption) (*ConfigStore, error) {
	s := &ConfigStore{
		path:       path,
		extractors: DefaultExtractors(),
	}
	for _, opt := range opts {
		opt(s)
	}

	snap, err := s.load()
	if err != nil {
		return nil, err
	}
	snap.Version = 1
	s.current.Store(snap)
	return s, nil
}

// NewDefaultConfigStore returns an in-memory store holding the built-in defaults.
func NewDefaultConfigStore() *ConfigStore {
	s, err := NewConfigStore("")
	if err != nil {
		panic(err)
	}
	return s
}

// Path returns the backing file path, empty for in-memory stores.
func (s *ConfigStore) Path() string {
	return s.path
}

// Snapshot returns the current configuration.
func (s *ConfigStore) Snapshot() *Snapshot {
	return s.current.Load()
}

// Reload re-reads the backing file and publishes it if its content changed.
// On error the current snapshot stays in place.
func (s *ConfigStore) Reload() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := s.load()
	if err != nil {
		return false, err
	}

	cur := s.current.Load()
	if next.digest == cur.digest {
		return false, nil
	}
	next.Version = cur.Version + 1
	s.current.Store(next)

	slog.Info("routing config reloaded",
		"version", next.Version,
		"source", next.Source,
		"intents", next.Catalog.Len())
	return true, nil
}

// AddIntent adds or replaces an intent, persists the catalog and publishes a new snapshot.
func (s *ConfigStore) AddIntent(id string, spec IntentSpec) (*Snapshot, error) {
	def, err := NewIntentDefinition(id, spec)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.current.Load()
	catalog := cur.Catalog.With(def)
	return s.publish(cur, catalog, cur.Mappings)
}

// AddMapping adds or replaces the mapping for intent, persists it and publishes a new snapshot.
func (s *ConfigStore) AddMapping(intent string, m SkillMapping) (*Snapshot, error) {
	if intent == "" {
		return nil, routererrors.InvalidArgument("intent id is required")
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.current.Load()
	if _, ok := cur.Catalog.Get(intent); !ok {
		return nil, routererrors.IntentNotFound(intent)
	}
	return s.publish(cur, cur.Catalog, cur.Mappings.With(intent, m))
}

// publish persists and swaps in a new snapshot. Callers hold s.mu.
func (s *ConfigStore) publish(cur *Snapshot, catalog *Catalog, mappings *MappingTable) (*Snapshot, error) {
	data, err := encode(catalog, mappings)
	if err != nil {
		return nil, err
	}
	if s.path != "" {
		if err := writeFileAtomic(s.path, data); err != nil {
			return nil, routererrors.PersistFailed(s.path, err)
		}
	}

	next := s.newSnapshot(catalog, mappings, data)
	next.Version = cur.Version + 1
	s.current.Store(next)
	return next, nil
}

func (s *ConfigStore) newSnapshot(catalog *Catalog, mappings *MappingTable, raw []byte) *Snapshot {
	source := "defaults"
	if s.path != "" {
		source = s.path
	}
	return &Snapshot{
		Catalog:  catalog,
		Mappings: mappings,
		Analyzer: NewAnalyzer(catalog, s.extractors),
		Source:   source,
		LoadedAt: time.Now(),
		digest:   sha256.Sum256(raw),
	}
}

// load builds an unpublished snapshot from the backing file or the defaults.
func (s *ConfigStore) load() (*Snapshot, error) {
	var raw []byte
	if s.path != "" {
		data, err := os.ReadFile(s.path)
		switch {
		case err == nil:
			raw = data
		case os.IsNotExist(err):
			slog.Debug("routing config not found, using defaults", "path", s.path)
		default:
			return nil, errors.Wrapf(err, "failed to read routing config %s", s.path)
		}
	}

	var fc FileConfig
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := yaml.Unmarshal(raw, &fc); err != nil {
			return nil, routererrors.InvalidConfig("failed to parse "+s.path, err)
		}
	}

	intents := fc.Intents
	if len(intents) == 0 {
		intents = DefaultIntentSpecs()
	}
	catalog, err := CatalogFromSpecs(intents)
	if err != nil {
		return nil, err
	}

	mappingSpecs := fc.Mappings
	if len(mappingSpecs) == 0 {
		mappingSpecs = DefaultMappings()
	}
	mappings, err := NewMappingTable(mappingSpecs)
	if err != nil {
		return nil, err
	}

	snap := s.newSnapshot(catalog, mappings, raw)
	if raw == nil {
		// Digest the defaults so a later file with identical content is not a change.
		if data, err := encode(catalog, mappings); err == nil {
			snap.digest = sha256.Sum256(data)
		}
	}
	return snap, nil
}

func encode(catalog *Catalog, mappings *MappingTable) ([]byte, error) {
	data, err := yaml.Marshal(FileConfig{
		Intents:  catalog.Specs(),
		Mappings: mappings.All(),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode routing config")
	}
	return data, nil
}

// writeFileAtomic writes through a temp file in the same directory and renames it into place.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "failed to create %s", dir)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return errors.Wrap(err, "failed to create temp file")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(err, "failed to write temp file")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "failed to close temp file")
	}
	return errors.Wrap(os.Rename(tmp.Name(), path), "failed to replace config file")
}
