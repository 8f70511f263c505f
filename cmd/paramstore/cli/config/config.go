package config

// Config represents the paramstore CLI configuration.
// Use mapstructure tags for Viper unmarshaling.
type Config struct {
	Manifest string      `mapstructure:"manifest"`
	CacheDir string      `mapstructure:"cache_dir"`
	BaseURL  string      `mapstructure:"base_url"`
	Fetch    FetchConfig `mapstructure:"fetch"`
}

// FetchConfig holds fetch-related settings.
type FetchConfig struct {
	Workers int `mapstructure:"workers"`
	Retries int `mapstructure:"retries"`
}
