package vault

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Downloads saves share cards under <vault>/Cards, standing in for a browser's
// download folder
type Downloads struct {
	v *Vault
}

// Downloads returns the card folder of the vault
func (v *Vault) Downloads() *Downloads {
	return &Downloads{v: v}
}

// Dir is the absolute card folder
func (d *Downloads) Dir() string {
	return filepath.Join(d.v.basePath, "Cards")
}

// Save writes data as name, overwriting any earlier file, and returns the full path
func (d *Downloads) Save(name string, data []byte) (string, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", fmt.Errorf("invalid file name %q", name)
	}

	path := filepath.Join(d.Dir(), name)
	if err := WriteFileAtomic(path, data); err != nil {
		return "", fmt.Errorf("saving card: %w", err)
	}
	return path, nil
}

// Rel converts a path inside the vault to a vault-relative one
func (v *Vault) Rel(path string) string {
	rel, err := filepath.Rel(v.basePath, path)
	if err != nil {
		return path
	}
	return rel
}
