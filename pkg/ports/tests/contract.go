package tests

import (
	"errors"
	"testing"

	"github.com/aretw0/arvis/pkg/domain"
	"github.com/aretw0/arvis/pkg/ports"
)

// ExtensionCatalogContractTest is a reusable test suite that verifies if an adapter complies
// with ports.ExtensionCatalog. want maps every installed bundle id to its expected name.
func ExtensionCatalogContractTest(t *testing.T, catalog ports.ExtensionCatalog, want map[string]string) {
	t.Helper()

	t.Run("Extension_Success", func(t *testing.T) {
		for id, name := range want {
			ext, err := catalog.Extension(id)
			if err != nil {
				t.Fatalf("unexpected error getting extension %s: %v", id, err)
			}
			if ext.BundleID != id {
				t.Errorf("bundle id mismatch: got %q, want %q", ext.BundleID, id)
			}
			if ext.Name != name {
				t.Errorf("name mismatch for %s: got %q, want %q", id, ext.Name, name)
			}
		}
	})

	t.Run("Extension_NotFound", func(t *testing.T) {
		_, err := catalog.Extension("@nobody.non-existent")
		if !errors.Is(err, domain.ErrExtensionNotFound) {
			t.Errorf("expected ErrExtensionNotFound, got %v", err)
		}
	})

	t.Run("Extensions", func(t *testing.T) {
		list := catalog.Extensions()
		if len(list) != len(want) {
			t.Errorf("expected %d extensions, got %d", len(want), len(list))
		}
		for i := 1; i < len(list); i++ {
			if list[i-1].BundleID > list[i].BundleID {
				t.Errorf("extensions not ordered by bundle id: %s before %s", list[i-1].BundleID, list[i].BundleID)
			}
		}
		for _, ext := range list {
			if _, ok := want[ext.BundleID]; !ok {
				t.Errorf("unexpected extension %s", ext.BundleID)
			}
		}
	})
}
