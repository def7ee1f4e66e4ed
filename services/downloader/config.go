package downloader

import (
	"errors"
	"os"
	"time"

	"learndl/lib/configutil"

	"dario.cat/mergo"
)

type ApiConfig struct {
	BaseUrl string `json:"base_url"`
	Locale  string `json:"locale"`
	// seconds
	Timeout       int `json:"timeout"`
	RetryAttempts int `json:"retry_attempts"`
	// seconds, doubled after every failed attempt
	RetryDelay int `json:"retry_delay"`
}

type DownloadConfig struct {
	Images                 bool `json:"images"`
	MaxConcurrentDownloads int  `json:"max_concurrent_downloads"`
}

type CleanupConfig struct {
	// remove the images directory once documents are written
	DeleteImages bool `json:"delete_images"`
}

type StorageConfig struct {
	OutputDir string `json:"output_dir"`
	// badger page cache location, empty disables caching
	CacheDir string `json:"cache_dir"`
}

type Config struct {
	Api      ApiConfig      `json:"api"`
	Download DownloadConfig `json:"download"`
	Cleanup  CleanupConfig  `json:"cleanup"`
	Storage  StorageConfig  `json:"storage"`
}

func DefaultConfig() Config {
	return Config{
		Api: ApiConfig{
			BaseUrl:       "https://learn.microsoft.com/api/catalog/",
			Locale:        "en-us",
			Timeout:       30,
			RetryAttempts: 5,
			RetryDelay:    2,
		},
		Download: DownloadConfig{
			Images:                 true,
			MaxConcurrentDownloads: 5,
		},
		Storage: StorageConfig{
			OutputDir: "./downloads",
		},
	}
}

// LoadConfig reads name (and its .local variant) and merges it over
// the defaults. A missing file is not an error, the defaults apply.
// The merge skips zero values, so a file cannot turn a true default
// like download.images off; use the CLI flags for that.
func LoadConfig(name string) (Config, error) {
	config := DefaultConfig()

	loaded, err := configutil.ReadConfig[Config](name)
	if errors.Is(err, os.ErrNotExist) {
		return config, nil
	}
	if err != nil {
		return config, err
	}
	if err := mergo.Merge(&config, loaded, mergo.WithOverride); err != nil {
		return config, err
	}
	return config, nil
}

func (c ApiConfig) TimeoutDuration() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

func (c ApiConfig) RetryDelayDuration() time.Duration {
	return time.Duration(c.RetryDelay) * time.Second
}
