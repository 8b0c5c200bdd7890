package env

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
)

const DefaultEnvFile = ".env"

// InitConfig fills config from the process environment. Dotenv files are
// loaded first (DefaultEnvFile when none given); missing files are skipped and
// variables already present in the environment always win.
func InitConfig(config any, files ...string) error {
	if len(files) == 0 {
		files = []string{DefaultEnvFile}
	}

	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return errors.Wrapf(err, "failed to load env file %s", f)
		}
	}

	if err := envconfig.Process("", config); err != nil {
		return errors.Wrap(err, "failed to envconfig.Process")
	}

	return nil
}
