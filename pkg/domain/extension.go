package domain

import (
	"fmt"
	"time"
)

// ExtensionType distinguishes workflows from plugins.
type ExtensionType string

const (
	ExtensionWorkflow ExtensionType = "workflow"
	ExtensionPlugin   ExtensionType = "plugin"
)

// Extension is an installed workflow or plugin.
type Extension struct {
	BundleID    string            `json:"bundleId"`
	Name        string            `json:"name"`
	CreatedBy   string            `json:"createdby,omitempty"`
	Version     string            `json:"version,omitempty"`
	Description string            `json:"description,omitempty"`
	Type        ExtensionType     `json:"type"`
	Enabled     bool              `json:"enabled"`
	Platform    []string          `json:"platform,omitempty"`
	DefaultIcon string            `json:"defaultIcon,omitempty"`
	Variables   map[string]string `json:"variables,omitempty"`
	Commands    []Command         `json:"commands,omitempty"`

	// Dir is where the extension is installed. DataDir and CacheDir are its private storage.
	Dir      string `json:"-"`
	DataDir  string `json:"-"`
	CacheDir string `json:"-"`
}

// BundleIDFor derives the canonical bundle id from creator and name.
func BundleIDFor(createdBy, name string) (string, error) {
	if createdBy == "" || name == "" {
		return "", fmt.Errorf("extension manifest needs both createdby and name to derive a bundle id")
	}
	return fmt.Sprintf("@%s.%s", createdBy, name), nil
}

// Environ returns the extension metadata exposed to its scripts.
func (e Extension) Environ() map[string]string {
	env := map[string]string{
		"arvis_extension_bundleid": e.BundleID,
		"arvis_extension_name":     e.Name,
		"arvis_extension_version":  e.Version,
		"arvis_extension_type":     string(e.Type),
	}
	if e.DataDir != "" {
		env["arvis_extension_data"] = e.DataDir
	}
	if e.CacheDir != "" {
		env["arvis_extension_cache"] = e.CacheDir
	}
	return env
}

// HistoryEntry records an interaction start for input history.
type HistoryEntry struct {
	ID       string    `json:"id"`
	BundleID string    `json:"bundleId"`
	Input    string    `json:"input"`
	Time     time.Time `json:"time"`
}
