package sources

// Import source configuration types

type Config struct {
	Name         string         // Derived from filename (without .yml extension)
	URL          string         `yaml:"url"`
	FallbackPath string         `yaml:"fallback_path"`
	Settings     ConfigSettings `yaml:"settings"`
}

type ConfigSettings struct {
	Enabled        bool `yaml:"enabled"`
	ImportInterval int  `yaml:"import_interval"` // seconds
	Timeout        int  `yaml:"timeout"`         // seconds
}
