package manifest

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/arvis/pkg/domain"
)

// rawManifest is the on-disk shape of arvis-workflow and arvis-plugin files.
type rawManifest struct {
	BundleID    string            `mapstructure:"bundleId"`
	Name        string            `mapstructure:"name"`
	CreatedBy   string            `mapstructure:"createdby"`
	Version     string            `mapstructure:"version"`
	Description string            `mapstructure:"description"`
	Enabled     *bool             `mapstructure:"enabled"`
	Platform    []string          `mapstructure:"platform"`
	DefaultIcon string            `mapstructure:"defaultIcon"`
	Variables   map[string]string `mapstructure:"variables"`
	Commands    []domain.Command  `mapstructure:"commands"`
}

// readGeneric unmarshals JSON or YAML (by file extension) into a generic map.
func readGeneric(path string, data []byte) (map[string]any, error) {
	var out map[string]any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(data, &out); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
	default:
		if err := yaml.Unmarshal(data, &out); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
	}
	if out == nil {
		return nil, fmt.Errorf("%s is empty", filepath.Base(path))
	}
	return out, nil
}

// decode turns a generic manifest map into a rawManifest.
func decode(generic map[string]any) (rawManifest, error) {
	var m rawManifest
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       scriptHook,
		WeaklyTypedInput: true,
		Result:           &m,
	})
	if err != nil {
		return m, err
	}
	if err := dec.Decode(generic); err != nil {
		return m, fmt.Errorf("invalid manifest: %w", err)
	}
	return m, nil
}

var scriptType = reflect.TypeOf(domain.Script{})

// scriptHook accepts a script as a plain string or as a map of platform
// names to script strings ("shell" and "default" are reserved keys).
func scriptHook(from, to reflect.Type, data any) (any, error) {
	if to != scriptType {
		return data, nil
	}
	switch v := data.(type) {
	case string:
		return domain.Script{Default: v}, nil
	case map[string]any:
		flat := make(map[string]string, len(v))
		for k, body := range v {
			s, ok := body.(string)
			if !ok {
				// Structured form ({default, platform, shell}); decode field by field.
				return data, nil
			}
			flat[k] = s
		}
		return domain.ScriptFromMap(flat), nil
	}
	return data, nil
}
