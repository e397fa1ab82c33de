package config

import (
	"os"

	"github.com/joho/godotenv"

	"git.home.luguber.info/inful/twm/internal/foundation/errors"
)

// EnvFiles are loaded, when present, from the working directory.
var EnvFiles = []string{".env", ".env.local"}

// LoadEnvFiles loads every existing file in EnvFiles. Variables already set in
// the process environment are not overridden. It returns the files loaded.
func LoadEnvFiles() ([]string, error) {
	var found []string
	for _, f := range EnvFiles {
		if _, err := os.Stat(f); err == nil {
			found = append(found, f)
		}
	}
	if len(found) == 0 {
		return nil, nil
	}
	if err := godotenv.Load(found...); err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to load env file").
			WithContext("files", found).
			Build()
	}
	return found, nil
}
