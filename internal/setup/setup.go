// Package setup registers the KCDB MCP server with Claude Desktop.
package setup

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

// ServerName is the key under which kcdb-mcp is registered.
const ServerName = "kcdb"

// BinaryName is the executable name of the MCP server.
const BinaryName = "kcdb-mcp"

// ConfigFileEnv names the environment variable kcdb-mcp reads its config file path from.
const ConfigFileEnv = "KCDB_CONFIG_FILE"

// ClaudeDesktopConfig represents the Claude Desktop configuration file structure.
// Keys other than mcpServers are kept as they were read.
type ClaudeDesktopConfig struct {
	MCPServers map[string]MCPServerConfig `json:"mcpServers"`
	Other      map[string]json.RawMessage `json:"-"`
}

// MCPServerConfig represents a single MCP server configuration.
type MCPServerConfig struct {
	Command string            `json:"command"`
	Args    []string          `json:"args,omitempty"`
	Env     map[string]string `json:"env,omitempty"`
}

// Options contains options for the setup process.
type Options struct {
	DesktopConfigPath string // Claude Desktop config file, default from the platform
	BinaryPath        string // Path to the kcdb-mcp binary
	ConfigFile        string // kcdb.yaml passed to the server through KCDB_CONFIG_FILE
	LogLevel          string // Passed as KCDB_LOGGING_LEVEL when set
}

// ClaudeDesktopConfigPath returns the path to Claude Desktop's config file.
func ClaudeDesktopConfigPath() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support", "Claude")
	case "linux":
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			configDir = filepath.Join(xdg, "Claude")
			break
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, ".config", "Claude")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			return "", fmt.Errorf("APPDATA environment variable not set")
		}
		configDir = filepath.Join(appData, "Claude")
	default:
		return "", fmt.Errorf("unsupported operating system: %s", runtime.GOOS)
	}

	return filepath.Join(configDir, "claude_desktop_config.json"), nil
}

// LoadClaudeDesktopConfig loads the existing Claude Desktop configuration.
// A missing file yields an empty configuration.
func LoadClaudeDesktopConfig(configPath string) (*ClaudeDesktopConfig, error) {
	config := &ClaudeDesktopConfig{
		MCPServers: make(map[string]MCPServerConfig),
		Other:      make(map[string]json.RawMessage),
	}

	data, err := os.ReadFile(configPath)
	if errors.Is(err, os.ErrNotExist) {
		return config, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, &config.Other); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if raw, ok := config.Other["mcpServers"]; ok {
		if err := json.Unmarshal(raw, &config.MCPServers); err != nil {
			return nil, fmt.Errorf("failed to parse mcpServers: %w", err)
		}
		if config.MCPServers == nil {
			config.MCPServers = make(map[string]MCPServerConfig)
		}
		delete(config.Other, "mcpServers")
	}
	return config, nil
}

// SaveClaudeDesktopConfig saves the configuration to the Claude Desktop config file.
func SaveClaudeDesktopConfig(configPath string, config *ClaudeDesktopConfig) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	doc := make(map[string]any, len(config.Other)+1)
	for k, v := range config.Other {
		doc[k] = v
	}
	doc["mcpServers"] = config.MCPServers

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// ConfigureClaudeDesktop adds or updates the kcdb entry and returns what was written.
func ConfigureClaudeDesktop(opts Options) (MCPServerConfig, error) {
	configPath, err := desktopPath(opts)
	if err != nil {
		return MCPServerConfig{}, err
	}
	config, err := LoadClaudeDesktopConfig(configPath)
	if err != nil {
		return MCPServerConfig{}, err
	}

	binaryPath := opts.BinaryPath
	if binaryPath == "" {
		if binaryPath, err = findBinary(); err != nil {
			return MCPServerConfig{}, fmt.Errorf("could not find server binary: %w", err)
		}
	}

	server := MCPServerConfig{Command: binaryPath}
	env := make(map[string]string)
	if opts.ConfigFile != "" {
		abs, err := filepath.Abs(opts.ConfigFile)
		if err != nil {
			return MCPServerConfig{}, fmt.Errorf("failed to resolve config file: %w", err)
		}
		env[ConfigFileEnv] = abs
	}
	if opts.LogLevel != "" {
		env["KCDB_LOGGING_LEVEL"] = opts.LogLevel
	}
	if len(env) > 0 {
		server.Env = env
	}

	config.MCPServers[ServerName] = server
	if err := SaveClaudeDesktopConfig(configPath, config); err != nil {
		return MCPServerConfig{}, err
	}
	return server, nil
}

// Status represents the current setup status.
type Status struct {
	DesktopConfigPath string
	Configured        bool
	Server            MCPServerConfig
	Issues            []string
}

// GetStatus checks whether kcdb-mcp is registered and runnable.
func GetStatus(opts Options) *Status {
	status := &Status{Issues: []string{}}

	configPath, err := desktopPath(opts)
	if err != nil {
		status.Issues = append(status.Issues, fmt.Sprintf("Could not determine Claude Desktop config path: %v", err))
		return status
	}
	status.DesktopConfigPath = configPath

	config, err := LoadClaudeDesktopConfig(configPath)
	if err != nil {
		status.Issues = append(status.Issues, fmt.Sprintf("Could not load Claude Desktop config: %v", err))
		return status
	}

	server, ok := config.MCPServers[ServerName]
	if !ok {
		status.Issues = append(status.Issues, "kcdb is not configured in Claude Desktop")
		return status
	}
	status.Configured = true
	status.Server = server

	if info, err := os.Stat(server.Command); err != nil {
		status.Issues = append(status.Issues, fmt.Sprintf("Server binary not found: %s", server.Command))
	} else if runtime.GOOS != "windows" && info.Mode()&0o111 == 0 {
		status.Issues = append(status.Issues, fmt.Sprintf("Server binary is not executable: %s", server.Command))
	}
	if file := server.Env[ConfigFileEnv]; file != "" {
		if _, err := os.Stat(file); err != nil {
			status.Issues = append(status.Issues, fmt.Sprintf("Config file not found: %s", file))
		}
	}
	return status
}

func desktopPath(opts Options) (string, error) {
	if opts.DesktopConfigPath != "" {
		return opts.DesktopConfigPath, nil
	}
	return ClaudeDesktopConfigPath()
}

// findBinary looks for kcdb-mcp on PATH, then next to the running executable.
func findBinary() (string, error) {
	if path, err := exec.LookPath(BinaryName); err == nil {
		return filepath.Abs(path)
	}

	var locations []string
	if exe, err := os.Executable(); err == nil {
		locations = append(locations, filepath.Join(filepath.Dir(exe), BinaryName))
	}
	if home, err := os.UserHomeDir(); err == nil {
		locations = append(locations, filepath.Join(home, "go", "bin", BinaryName))
	}
	locations = append(locations, "/usr/local/bin/"+BinaryName)

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc, nil
		}
	}
	return "", fmt.Errorf("binary '%s' not found in common locations", BinaryName)
}
