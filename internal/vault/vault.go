package vault

import (
	"os"
	"path/filepath"
	"sync"
)

// Vault is a plain folder of markdown letters, share cards and logs
type Vault struct {
	basePath string
	logLock  sync.Mutex // Protects share log JSONL writes from race conditions
}

// NewVault creates a new Vault instance
func NewVault(basePath string) *Vault {
	return &Vault{basePath: basePath}
}

// BasePath returns the vault base path
func (v *Vault) BasePath() string {
	return v.basePath
}

// Writable reports whether files can be created under the vault root
func (v *Vault) Writable() bool {
	probe := filepath.Join(v.basePath, ".write-check")
	if err := writeFileAtomicOnce(probe, nil); err != nil {
		return false
	}
	return os.Remove(probe) == nil
}
