package shared

import (
	"fmt"
	"os"
	"path"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const CONFIG_PREFIX = "TABITHA"

type AppConfig struct {
	ApiBaseUrl     string        `split_words:"true" default:"https://tabitha-backend.vercel.app"`
	RequestTimeout time.Duration `split_words:"true" default:"30s"`

	CredentialsFile  string `split_words:"true"`
	PhotoStoragePath string `split_words:"true"`

	// PhotoUploadDelay emulates the round trip of the reserved upload
	// endpoint, see storage.LocalOverrideStore.
	PhotoUploadDelay time.Duration `split_words:"true" default:"800ms"`

	LoginUrl          string `split_words:"true" default:"/auth/login"`
	SkipDeleteConfirm bool   `split_words:"true" default:"false"`
}

func InitAppConfiguration() (config *AppConfig, err error) {
	config = &AppConfig{}

	if err := envconfig.Process(CONFIG_PREFIX, config); err != nil {
		return nil, fmt.Errorf("failed to parse env vars: %v", err)
	}

	if config.CredentialsFile == "" || config.PhotoStoragePath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to locate home directory: %v", err)
		}
		if config.CredentialsFile == "" {
			config.CredentialsFile = path.Join(home, ".tabitha", "credentials.json")
		}
		if config.PhotoStoragePath == "" {
			config.PhotoStoragePath = path.Join(home, ".tabitha", "photos")
		}
	}

	return
}
