package initializers

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
)

// LoadEnv loads variables from the given .env files, or ./.env when none are
// named. A missing file is not an error.
func LoadEnv(files ...string) error {
	err := godotenv.Load(files...) // existing environment variables win
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("env not loading: %w", err)
	}
	return nil
}
