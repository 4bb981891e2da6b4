package driven

// ConfigStore provides access to application configuration.
// Keys are dotted paths ("chunking.size"); implementations handle
// persistence and type conversion.
type ConfigStore interface {
	// Get retrieves a configuration value by key.
	Get(key string) (any, bool)

	// GetString returns "" if the key is missing or not a string.
	GetString(key string) string

	// GetInt returns 0 if the key is missing or not an integer.
	GetInt(key string) int

	// GetBool returns false if the key is missing or not a boolean.
	GetBool(key string) bool

	// GetStringSlice returns nil if the key is missing or not a list.
	GetStringSlice(key string) []string

	// Set stores a value and persists it immediately.
	Set(key string, value any) error

	// Delete removes a key and persists the change.
	Delete(key string) error

	// Save persists the current configuration to storage.
	Save() error

	// Load reads configuration from storage.
	Load() error

	// Path returns the configuration file path.
	Path() string
}
