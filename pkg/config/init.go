package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ErrConfigExists is returned by InitConfig when the file exists and force
// is not set.
var ErrConfigExists = errors.New("configuration file already exists")

const configHeader = `# awsasync Configuration File
#
# Every value can be overridden with an AWSASYNC_* environment variable,
# e.g. AWSASYNC_OFFLOAD_WORKERS=64 or AWSASYNC_AWS_REGION=eu-west-1.
#
# Validate with: awsasync config validate
# JSON schema:   awsasync config schema

`

// InitConfig writes a sample configuration at the default location and
// returns its path.
func InitConfig(force bool) (string, error) {
	path := GetDefaultConfigPath()
	return path, InitConfigToPath(path, force)
}

// InitConfigToPath writes a sample configuration to path. The sample holds
// the defaults and a random gateway JWT secret.
func InitConfigToPath(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%w: %s (use --force to overwrite)", ErrConfigExists, path)
	}

	cfg := GetDefaultConfig()
	secret, err := generateSecret()
	if err != nil {
		return err
	}
	cfg.Gateway.JWTSecret = secret

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, append([]byte(configHeader), data...), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// generateSecret returns 32 random bytes, hex encoded.
func generateSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate JWT secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}
