// Package config handles the refledgerd configuration: defaults, a
// simple key=value file format, and validation.
package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Config holds all daemon settings.
type Config struct {
	// DataDir is the directory holding the ledger database.
	DataDir string

	// ListenAddr is the host:port the HTTP API binds to.
	ListenAddr string

	// LogLevel is one of "debug", "info", "warn", "error".
	LogLevel string

	// LogFile receives logs when non-empty; stderr otherwise.
	LogFile string

	// TransferURL is the JSON-RPC endpoint of the custody service.
	TransferURL string

	// TransferUser and TransferPassword are the basic-auth
	// credentials for the custody service.
	TransferUser     string
	TransferPassword string

	// AdminAddress is the hex address of the distinguished admin
	// account that roots the referral forest.
	AdminAddress string

	// NativeAsset names the asset the ledger accounts for.
	NativeAsset string
}

// DefaultConfig returns the configuration defaults. DataDir resolves
// under the user's home directory when available.
func DefaultConfig() Config {
	dataDir := ".refledger"
	if home, err := os.UserHomeDir(); err == nil {
		dataDir = filepath.Join(home, ".refledger")
	}
	return Config{
		DataDir:     dataDir,
		ListenAddr:  ":8080",
		LogLevel:    "info",
		TransferURL: "http://localhost:8332",
		NativeAsset: "native",
	}
}

// LoadConfig reads a key=value configuration file. Missing keys keep
// their defaults; blank lines and #-comments are ignored.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, ErrConfigNotFound
		}
		return cfg, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return cfg, fmt.Errorf("%w: line %d: %q", ErrInvalidConfigLine, lineNo, line)
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		switch key {
		case "datadir":
			cfg.DataDir = value
		case "listen":
			cfg.ListenAddr = value
		case "loglevel":
			cfg.LogLevel = value
		case "logfile":
			cfg.LogFile = value
		case "transfer.url":
			cfg.TransferURL = value
		case "transfer.user":
			cfg.TransferUser = value
		case "transfer.password":
			cfg.TransferPassword = value
		case "admin":
			cfg.AdminAddress = value
		case "asset":
			cfg.NativeAsset = value
		default:
			return cfg, fmt.Errorf("%w: line %d: unknown key %q", ErrInvalidConfigLine, lineNo, key)
		}
	}
	if err := scanner.Err(); err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	return cfg, nil
}

// SaveConfig writes the configuration as a key=value file, keys in
// stable order.
func SaveConfig(path string, cfg Config) error {
	entries := map[string]string{
		"datadir":           cfg.DataDir,
		"listen":            cfg.ListenAddr,
		"loglevel":          cfg.LogLevel,
		"logfile":           cfg.LogFile,
		"transfer.url":      cfg.TransferURL,
		"transfer.user":     cfg.TransferUser,
		"transfer.password": cfg.TransferPassword,
		"admin":             cfg.AdminAddress,
		"asset":             cfg.NativeAsset,
	}
	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s=%s\n", k, entries[k])
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("config: create directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(b.String()), 0600); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}
