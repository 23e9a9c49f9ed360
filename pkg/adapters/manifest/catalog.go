// Package manifest loads installed extensions from their manifest files.
//
// Every direct subdirectory of the extensions root holds one extension,
// described by arvis-workflow.{json,yaml,yml} or arvis-plugin.{json,yaml,yml}.
package manifest

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	goruntime "runtime"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/aretw0/arvis/internal/logging"
	"github.com/aretw0/arvis/pkg/domain"
)

// Manifest file base names.
const (
	WorkflowManifest = "arvis-workflow"
	PluginManifest   = "arvis-plugin"
)

var manifestExts = []string{".json", ".yaml", ".yml"}

// ErrDuplicateBundle is returned when two extensions claim the same bundle id.
var ErrDuplicateBundle = errors.New("duplicate bundle id")

// Catalog implements ports.ExtensionCatalog and ports.Watchable over a directory.
type Catalog struct {
	root      string
	dataDir   string
	cacheDir  string
	overrides map[string]map[string]string
	goos      string
	logger    *slog.Logger

	mu   sync.RWMutex
	byID map[string]domain.Extension
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithDataDir gives every extension a private data directory under dir.
func WithDataDir(dir string) Option {
	return func(c *Catalog) { c.dataDir = dir }
}

// WithCacheDir gives every extension a private cache directory under dir.
func WithCacheDir(dir string) Option {
	return func(c *Catalog) { c.cacheDir = dir }
}

// WithVariables overrides extension variables, keyed by bundle id then variable name.
func WithVariables(overrides map[string]map[string]string) Option {
	return func(c *Catalog) { c.overrides = overrides }
}

// WithPlatform sets the platform extensions must support (a GOOS value).
func WithPlatform(goos string) Option {
	return func(c *Catalog) { c.goos = goos }
}

// WithLogger sets the catalog logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Catalog) { c.logger = logger }
}

// New creates a catalog over root. Call Reload to read the manifests.
func New(root string, opts ...Option) *Catalog {
	c := &Catalog{
		root:   root,
		goos:   goruntime.GOOS,
		logger: logging.NewNop(),
		byID:   map[string]domain.Extension{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Root returns the extensions directory.
func (c *Catalog) Root() string { return c.root }

// Reload rereads every manifest. Broken manifests are skipped; their errors
// are joined into the returned error while valid extensions stay available.
func (c *Catalog) Reload() error {
	entries, err := os.ReadDir(c.root)
	if err != nil {
		if os.IsNotExist(err) {
			c.swap(map[string]domain.Extension{})
			return nil
		}
		return fmt.Errorf("failed to read extensions dir: %w", err)
	}

	loaded := map[string]domain.Extension{}
	var errs []error
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(c.root, entry.Name())
		path, typ, ok := findManifest(dir)
		if !ok {
			continue
		}

		ext, err := c.load(path, typ)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", path, err))
			continue
		}
		if !c.supported(ext) {
			c.logger.Info("skipping extension for another platform", "bundle", ext.BundleID, "platform", ext.Platform)
			continue
		}
		if prev, dup := loaded[ext.BundleID]; dup {
			errs = append(errs, fmt.Errorf("%s: %w %s (already installed at %s)", path, ErrDuplicateBundle, ext.BundleID, prev.Dir))
			continue
		}
		loaded[ext.BundleID] = ext
	}

	c.swap(loaded)
	c.logger.Debug("extensions loaded", "count", len(loaded), "root", c.root)
	return errors.Join(errs...)
}

func (c *Catalog) swap(m map[string]domain.Extension) {
	c.mu.Lock()
	c.byID = m
	c.mu.Unlock()
}

// Extension implements ports.ExtensionCatalog.
func (c *Catalog) Extension(bundleID string) (domain.Extension, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ext, ok := c.byID[bundleID]
	if !ok {
		return domain.Extension{}, fmt.Errorf("%w: %s", domain.ErrExtensionNotFound, bundleID)
	}
	return ext, nil
}

// Extensions implements ports.ExtensionCatalog.
func (c *Catalog) Extensions() []domain.Extension {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]domain.Extension, 0, len(c.byID))
	for _, ext := range c.byID {
		out = append(out, ext)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BundleID < out[j].BundleID })
	return out
}

func (c *Catalog) load(path string, typ domain.ExtensionType) (domain.Extension, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Extension{}, err
	}
	generic, err := readGeneric(path, data)
	if err != nil {
		return domain.Extension{}, err
	}
	m, err := decode(generic)
	if err != nil {
		return domain.Extension{}, err
	}
	if m.Name == "" {
		return domain.Extension{}, errors.New("manifest has no name")
	}

	bundleID := m.BundleID
	if bundleID == "" {
		if bundleID, err = domain.BundleIDFor(m.CreatedBy, m.Name); err != nil {
			return domain.Extension{}, err
		}
	}

	ext := domain.Extension{
		BundleID:    bundleID,
		Name:        m.Name,
		CreatedBy:   m.CreatedBy,
		Version:     m.Version,
		Description: m.Description,
		Type:        typ,
		Enabled:     m.Enabled == nil || *m.Enabled,
		Platform:    m.Platform,
		DefaultIcon: m.DefaultIcon,
		Variables:   map[string]string{},
		Commands:    m.Commands,
		Dir:         filepath.Dir(path),
	}
	for k, v := range m.Variables {
		ext.Variables[k] = v
	}
	for k, v := range c.overrides[bundleID] {
		ext.Variables[k] = v
	}
	if ext.DefaultIcon != "" && !filepath.IsAbs(ext.DefaultIcon) {
		ext.DefaultIcon = filepath.Join(ext.Dir, ext.DefaultIcon)
	}
	if c.dataDir != "" {
		ext.DataDir = filepath.Join(c.dataDir, bundleID)
	}
	if c.cacheDir != "" {
		ext.CacheDir = filepath.Join(c.cacheDir, bundleID)
	}
	for i := range ext.Commands {
		ext.Commands[i].BundleID = bundleID
	}
	return ext, nil
}

// supported reports whether ext may run on the catalog's platform.
// Manifests may use node-style names ("win32") for Windows.
func (c *Catalog) supported(ext domain.Extension) bool {
	if len(ext.Platform) == 0 {
		return true
	}
	for _, p := range ext.Platform {
		p = strings.ToLower(p)
		if p == c.goos || (p == "win32" && c.goos == "windows") {
			return true
		}
	}
	return false
}

// findManifest returns the first manifest file in dir.
func findManifest(dir string) (string, domain.ExtensionType, bool) {
	for _, kind := range []struct {
		base string
		typ  domain.ExtensionType
	}{
		{WorkflowManifest, domain.ExtensionWorkflow},
		{PluginManifest, domain.ExtensionPlugin},
	} {
		for _, ext := range manifestExts {
			path := filepath.Join(dir, kind.base+ext)
			if info, err := os.Stat(path); err == nil && !info.IsDir() {
				return path, kind.typ, true
			}
		}
	}
	return "", "", false
}

// isManifest reports whether path names a manifest file.
func isManifest(path string) bool {
	base := filepath.Base(path)
	ext := strings.ToLower(filepath.Ext(base))
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return slices.Contains(manifestExts, ext) && (name == WorkflowManifest || name == PluginManifest)
}
