package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/zeebo/blake3"
	"gopkg.in/yaml.v3"
)

// ChecksumManifest is the on-disk .checksums format written by `nixgw config lock`.
type ChecksumManifest struct {
	Version     int               `yaml:"version"`
	GeneratedAt string            `yaml:"generated_at"`
	Hashes      map[string]string `yaml:"hashes"`
}

// ComputeBlake3Hash computes the BLAKE3 hash of a file.
func ComputeBlake3Hash(filePath string) (string, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	hash := blake3.Sum256(data)
	return hex.EncodeToString(hash[:]), nil
}

// VerifyFileHash verifies a file against an expected BLAKE3 hash.
func VerifyFileHash(filePath, expectedHash string) error {
	actualHash, err := ComputeBlake3Hash(filePath)
	if err != nil {
		return fmt.Errorf("failed to compute hash: %w", err)
	}

	if actualHash != expectedHash {
		return fmt.Errorf("hash mismatch for %s: expected %s, got %s",
			filepath.Base(filePath), expectedHash, actualHash)
	}

	return nil
}

// GenerateChecksums computes the BLAKE3 hash of the config file and writes a
// .checksums manifest next to it.
func GenerateChecksums(configFile string) error {
	hash, err := ComputeBlake3Hash(configFile)
	if err != nil {
		return fmt.Errorf("failed to hash %s: %w", configFile, err)
	}

	manifest := ChecksumManifest{
		Version:     1,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Hashes: map[string]string{
			filepath.Base(configFile): hash,
		},
	}

	data, err := yaml.Marshal(manifest)
	if err != nil {
		return fmt.Errorf("failed to marshal checksums: %w", err)
	}

	checksumPath := filepath.Join(filepath.Dir(configFile), ".checksums")
	// Restrictive permissions: the manifest authorizes config content.
	if err := os.WriteFile(checksumPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write checksums: %w", err)
	}
	return nil
}

// LoadChecksums reads the .checksums manifest from a config directory.
func LoadChecksums(configDir string) (*ChecksumManifest, error) {
	data, err := os.ReadFile(filepath.Join(configDir, ".checksums"))
	if err != nil {
		return nil, err
	}

	var manifest ChecksumManifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse checksums: %w", err)
	}

	if manifest.Version != 1 {
		return nil, fmt.Errorf("unsupported checksums version: %d", manifest.Version)
	}

	return &manifest, nil
}

// verifyConfigHash verifies configFile against a sibling .checksums manifest.
// A missing manifest is not an error: integrity locking is opt-in via
// `nixgw config lock`.
func verifyConfigHash(configFile string) error {
	manifest, err := LoadChecksums(filepath.Dir(configFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	expected, ok := manifest.Hashes[filepath.Base(configFile)]
	if !ok {
		return fmt.Errorf("config file %s has no hash in checksums (run 'nixgw config lock')",
			filepath.Base(configFile))
	}

	if err := VerifyFileHash(configFile, expected); err != nil {
		return fmt.Errorf("config verification failed: %w\n"+
			"If you edited the config intentionally, run: nixgw config lock", err)
	}
	return nil
}
