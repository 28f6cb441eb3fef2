package driven

// ConfigStore provides persistent application configuration: API
// tokens, the base request delay, the output directory.
type ConfigStore interface {
	// Get retrieves a configuration value by key.
	Get(key string) (any, bool)

	// GetString retrieves a string configuration value, "" if unset.
	GetString(key string) string

	// GetInt retrieves an integer configuration value, 0 if unset.
	GetInt(key string) int

	// GetBool retrieves a boolean configuration value, false if unset.
	GetBool(key string) bool

	// Set stores a configuration value and persists it immediately.
	Set(key string, value any) error

	// Save persists the current configuration.
	Save() error

	// Path returns the configuration file path.
	Path() string
}
