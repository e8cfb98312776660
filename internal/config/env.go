package config

import (
	"bufio"
	"os"
	"strconv"
	"strings"
)

// LoadEnv reads a .env file into a map. Blank lines, comment lines and
// trailing " #" comments are skipped; matching outer quotes are removed.
func LoadEnv(path string) (map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	env := make(map[string]string)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(strings.TrimPrefix(key, "export "))
		value = strings.TrimSpace(value)

		if idx := strings.Index(value, " #"); idx != -1 {
			value = strings.TrimSpace(value[:idx])
		}
		if len(value) >= 2 {
			first, last := value[0], value[len(value)-1]
			if (first == '"' || first == '\'') && first == last {
				value = value[1 : len(value)-1]
			}
		}

		env[key] = value
	}

	return env, scanner.Err()
}

// ApplyEnvOverrides updates the configuration from .env values. Values that
// do not parse are ignored.
func ApplyEnvOverrides(cfg *Config, env map[string]string) {
	setInt := func(key string, dst *int) {
		if val, ok := env[key]; ok {
			if n, err := strconv.Atoi(val); err == nil {
				*dst = n
			}
		}
	}
	setString := func(key string, dst *string) {
		if val, ok := env[key]; ok && val != "" {
			*dst = val
		}
	}

	setInt("SERVER_PORT", &cfg.Server.Port)
	setInt("DEFAULT_MAX_ROUNDS", &cfg.Defaults.MaxRounds)
	setInt("DEFAULT_CORPUS_SIZE", &cfg.Defaults.CorpusSize)
	setString("DEFAULT_PROFILE_A", &cfg.Defaults.ProfileA)
	setString("DEFAULT_PROFILE_B", &cfg.Defaults.ProfileB)
	setString("CATALOG_PATH", &cfg.Defaults.Catalog)
	setString("DB_PATH", &cfg.Storage.Path)
	setString("LOG_LEVEL", &cfg.Log.Level)
}
