package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/waveline-app/backend/pkg/config"
)

func TestLoad(t *testing.T) {
	t.Run("DotEnvValuesVisibleInConfig", func(t *testing.T) {
		dir := t.TempDir()
		env := "MONGO_URI=mongodb://from-dotenv:27017\nPORT=9191\n"
		assert.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(env), 0o600))
		t.Chdir(dir)

		// Make sure the values come from the file, not the environment.
		t.Setenv("MONGO_URI", "placeholder")
		os.Unsetenv("MONGO_URI")
		t.Setenv("PORT", "placeholder")
		os.Unsetenv("PORT")

		cfg := config.Load()

		assert.Equal(t, "mongodb://from-dotenv:27017", cfg.MongoURI)
		assert.Equal(t, "9191", cfg.Port)
	})

	t.Run("EnvironmentWinsOverDotEnv", func(t *testing.T) {
		dir := t.TempDir()
		env := "MONGO_URI=mongodb://from-dotenv:27017\n"
		assert.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(env), 0o600))
		t.Chdir(dir)

		t.Setenv("MONGO_URI", "mongodb://from-env:27017")

		cfg := config.Load()

		assert.Equal(t, "mongodb://from-env:27017", cfg.MongoURI)
	})

	t.Run("DefaultsWithoutDotEnv", func(t *testing.T) {
		t.Chdir(t.TempDir())
		t.Setenv("PORT", "placeholder")
		os.Unsetenv("PORT")

		cfg := config.Load()

		assert.Equal(t, "8080", cfg.Port)
		assert.Equal(t, "development", cfg.Env)
		assert.Equal(t, "waveline", cfg.MongoDatabase)
	})
}
