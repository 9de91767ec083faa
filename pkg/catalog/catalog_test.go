package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseCatalog(t *testing.T) {
	tests := []struct {
		name        string
		yamlContent string
		wantErr     bool
		errContains string
		wantLen     int
	}{
		{
			name: "valid catalog",
			yamlContent: `
archetypes:
  - key: wild_berry
    name: Wild Berry
    kind: forage
    glyph: b
  - key: slime
    kind: enemy
`,
			wantLen: 2,
		},
		{
			name:        "empty catalog",
			yamlContent: `archetypes: []`,
			wantErr:     true,
			errContains: "no archetypes",
		},
		{
			name: "duplicate key",
			yamlContent: `
archetypes:
  - key: stone
  - key: stone
`,
			wantErr:     true,
			errContains: "duplicate archetype key",
		},
		{
			name: "unknown kind",
			yamlContent: `
archetypes:
  - key: stone
    kind: boss
`,
			wantErr:     true,
			errContains: "unknown archetype kind",
		},
		{
			name:        "invalid yaml",
			yamlContent: "archetypes: [",
			wantErr:     true,
			errContains: "failed to parse",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Parse([]byte(tt.yamlContent))
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !strings.Contains(err.Error(), tt.errContains) {
					t.Errorf("error %q does not contain %q", err.Error(), tt.errContains)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if c.Len() != tt.wantLen {
				t.Errorf("expected %d archetypes, got %d", tt.wantLen, c.Len())
			}
		})
	}
}

func TestCatalogResolveAndKeyOf(t *testing.T) {
	c, err := New([]Archetype{{Key: "mushroom", Kind: KindForage}})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	a, ok := c.Resolve("mushroom")
	if !ok {
		t.Fatal("mushroom should resolve")
	}
	if c.KeyOf(a) != "mushroom" {
		t.Errorf("KeyOf = %q, want mushroom", c.KeyOf(a))
	}
	// 默认值
	if a.Size <= 0 || a.Glyph == "" {
		t.Errorf("defaults not applied: %+v", a)
	}

	if _, ok := c.Resolve("missing"); ok {
		t.Error("unknown key should not resolve")
	}
	if c.KeyOf(nil) != "" {
		t.Error("KeyOf(nil) should be empty")
	}
}

func TestCatalogDefaultKind(t *testing.T) {
	c, err := New([]Archetype{{Key: "twig"}})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	a, _ := c.Resolve("twig")
	if a.Kind != KindForage {
		t.Errorf("expected default kind forage, got %s", a.Kind)
	}
}

func TestLoadCatalogFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "archetypes.yaml")
	content := "archetypes:\n  - key: b\n  - key: a\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	keys := c.Keys()
	if len(keys) != 2 || keys[0] != "a" || keys[1] != "b" {
		t.Errorf("expected sorted keys [a b], got %v", keys)
	}

	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
