package process

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

var scripts sync.Map // content hash -> path on disk

// WriteScript writes content to a file named name inside a directory keyed by
// the content hash under dir (os.TempDir when empty) and returns its path.
// Repeated calls with the same content reuse the file.
func WriteScript(dir, name string, content []byte) (string, error) {
	sum := sha256.Sum256(content)
	key := hex.EncodeToString(sum[:8])
	if cached, ok := scripts.Load(key + "/" + name); ok {
		path := cached.(string)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	if dir == "" {
		dir = os.TempDir()
	}
	scriptDir := filepath.Join(dir, "audioreport-"+key)
	if err := os.MkdirAll(scriptDir, 0o755); err != nil {
		return "", fmt.Errorf("process: create script dir: %w", err)
	}
	path := filepath.Join(scriptDir, name)

	tmp, err := os.CreateTemp(scriptDir, name+".*")
	if err != nil {
		return "", fmt.Errorf("process: write script: %w", err)
	}
	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("process: write script: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("process: write script: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("process: write script: %w", err)
	}

	scripts.Store(key+"/"+name, path)
	return path, nil
}
