package driven

// ConfigStore provides persistent key-value configuration.
// Keys use dot notation for nested values (e.g. "fetch.workers").
type ConfigStore interface {
	// Get retrieves a configuration value by key.
	Get(key string) (any, bool)

	// GetString retrieves a string value, or "" when absent.
	GetString(key string) string

	// GetInt retrieves an integer value, or 0 when absent.
	GetInt(key string) int

	// GetFloat retrieves a float value, or 0 when absent.
	GetFloat(key string) float64

	// GetBool retrieves a boolean value, or false when absent.
	GetBool(key string) bool

	// GetStringMap retrieves a table of string values, or nil when absent.
	GetStringMap(key string) map[string]string

	// Set stores a configuration value and persists immediately.
	Set(key string, value any) error

	// Save persists the current configuration to disk.
	Save() error

	// Load reads configuration from disk.
	Load() error

	// Path returns the backing file path.
	Path() string
}
