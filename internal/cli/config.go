package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Preference keys persisted between runs
const (
	prefServer      = "server"
	prefDisplayName = "display_name"
)

// Config holds CLI configuration
type Config struct {
	ServerURL   string
	Token       string
	TokenFile   string
	PrefsFile   string
	DisplayName string
	Output      string
	Verbose     bool
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	return &Config{
		ServerURL: getEnvOrDefault("HSGAME_SERVER", "http://localhost:8080"),
		Token:     os.Getenv("HSGAME_TOKEN"),
		TokenFile: getEnvOrDefault("HSGAME_TOKEN_FILE", defaultTokenFile()),
		PrefsFile: getEnvOrDefault("HSGAME_CONFIG", defaultPrefsFile()),
		Output:    "text",
		Verbose:   false,
	}
}

// ApplyPreferences overlays saved preferences onto what flags and env left
// unset: the last-used server address (unless serverSet) and the preferred
// display name. Server URL precedence is flag > env > preference > default.
func (c *Config) ApplyPreferences(serverSet bool) error {
	prefs, err := c.LoadPreferences()
	if err != nil {
		return err
	}

	if !serverSet {
		if v := prefs[prefServer]; v != "" {
			c.ServerURL = v
		}
	}
	c.DisplayName = prefs[prefDisplayName]
	return nil
}

// LoadToken loads the token from file if not already set
func (c *Config) LoadToken() error {
	if c.Token != "" {
		return nil
	}

	data, err := os.ReadFile(c.TokenFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // No token file is fine
		}
		return err
	}

	c.Token = string(data)
	return nil
}

// SaveToken saves the token to the token file
func (c *Config) SaveToken(token string) error {
	c.Token = token

	dir := filepath.Dir(c.TokenFile)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	return os.WriteFile(c.TokenFile, []byte(token), 0600)
}

// LoadPreferences reads the persisted key -> value preferences. A missing
// file is an empty preference set, not an error.
func (c *Config) LoadPreferences() (map[string]string, error) {
	prefs := make(map[string]string)

	data, err := os.ReadFile(c.PrefsFile)
	if err != nil {
		if os.IsNotExist(err) {
			return prefs, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(data, &prefs); err != nil {
		return nil, err
	}
	return prefs, nil
}

// SavePreference persists one preference, keeping the others intact
func (c *Config) SavePreference(key, value string) error {
	prefs, err := c.LoadPreferences()
	if err != nil {
		return err
	}
	prefs[key] = value

	dir := filepath.Dir(c.PrefsFile)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(prefs, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(c.PrefsFile, data, 0600)
}

// RememberServer persists the server URL as the last-used server
func (c *Config) RememberServer() error {
	return c.SavePreference(prefServer, c.ServerURL)
}

// RememberDisplayName persists the preferred display name
func (c *Config) RememberDisplayName(name string) error {
	c.DisplayName = name
	return c.SavePreference(prefDisplayName, name)
}

func defaultTokenFile() string {
	return filepath.Join(configDir(), "token")
}

func defaultPrefsFile() string {
	return filepath.Join(configDir(), "config.json")
}

func configDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".hsgame"
	}
	return filepath.Join(home, ".hsgame")
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
