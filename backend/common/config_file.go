package common

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/ini.v1"
)

const defaultConfigTemplate = "PORT=3000\nSQLITE_PATH=data/ferdi-server.db\nAPP_URL=http://localhost:3000\nIS_REGISTRATION_ENABLED=true\nIS_CREATION_ENABLED=true\nCONNECT_WITH_FRANZ=false\nJWT_SECRET=%s\n"

// LoadConfigFile reads ~/.config/ferdi-server/config.ini, creating it with
// sane defaults (and a generated JWT secret) on first run. Environment
// variables of the same name are applied afterwards and take precedence.
func LoadConfigFile() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("get user home directory: %w", err)
	}

	configPath := filepath.Join(homeDir, ".config", "ferdi-server", "config.ini")
	if err := ensureConfigFile(configPath); err != nil {
		return err
	}

	configMap, err := parseIniConfig(configPath)
	if err != nil {
		return err
	}

	for _, key := range configKeys {
		if value, ok := os.LookupEnv(key); ok {
			configMap[key] = strings.TrimSpace(value)
		}
	}

	if err := applyConfigMap(configMap); err != nil {
		return fmt.Errorf("apply config file %s: %w", configPath, err)
	}

	return nil
}

func ensureConfigFile(configPath string) error {
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return fmt.Errorf("create config directory %s: %w", configDir, err)
	}

	configFile, err := os.OpenFile(configPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil
		}
		return fmt.Errorf("create config file %s: %w", configPath, err)
	}
	defer configFile.Close()

	if _, err := configFile.WriteString(fmt.Sprintf(defaultConfigTemplate, uuid.New().String())); err != nil {
		return fmt.Errorf("write default config file %s: %w", configPath, err)
	}

	return nil
}

func parseIniConfig(path string) (map[string]string, error) {
	cfg, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("parse ini config %s: %w", path, err)
	}

	configMap := make(map[string]string)
	for _, section := range cfg.Sections() {
		for _, key := range section.Keys() {
			configKey := strings.ToUpper(strings.TrimSpace(key.Name()))
			if configKey == "" {
				continue
			}
			configMap[configKey] = strings.TrimSpace(key.Value())
		}
	}

	return configMap, nil
}

var configKeys = []string{
	"PORT",
	"SQLITE_PATH",
	"UPLOAD_PATH",
	"RECIPE_PATH",
	"APP_URL",
	"JWT_SECRET",
	"IS_REGISTRATION_ENABLED",
	"IS_CREATION_ENABLED",
	"CONNECT_WITH_FRANZ",
	"FRANZ_API_BASE",
	"REDIS_CONN_STRING",
}

func applyConfigMap(configMap map[string]string) error {
	if configValue, ok := configMap["SQLITE_PATH"]; ok && configValue != "" {
		SQLitePath = configValue
	}

	if configValue, ok := configMap["UPLOAD_PATH"]; ok && configValue != "" {
		UploadPath = configValue
	}

	if configValue, ok := configMap["RECIPE_PATH"]; ok && configValue != "" {
		RecipePath = configValue
	}

	if configValue, ok := configMap["APP_URL"]; ok && configValue != "" {
		AppURL = strings.TrimSuffix(configValue, "/")
	}

	if configValue, ok := configMap["JWT_SECRET"]; ok && configValue != "" {
		JWTSecret = configValue
	}

	if configValue, ok := configMap["FRANZ_API_BASE"]; ok && configValue != "" {
		FranzAPIBase = configValue
	}

	if configValue, ok := configMap["REDIS_CONN_STRING"]; ok && configValue != "" {
		RedisConnString = configValue
		RedisEnabled = true
	}

	if configValue, ok := configMap["PORT"]; ok && configValue != "" {
		portInt, err := strconv.Atoi(configValue)
		if err != nil {
			return fmt.Errorf("invalid value for PORT: %w", err)
		}
		*Port = portInt
	}

	boolKeys := map[string]*bool{
		"IS_REGISTRATION_ENABLED": &RegistrationEnabled,
		"IS_CREATION_ENABLED":     &RecipeCreationEnabled,
		"CONNECT_WITH_FRANZ":      &ConnectWithFranz,
	}
	for key, target := range boolKeys {
		configValue, ok := configMap[key]
		if !ok || configValue == "" {
			continue
		}
		boolValue, err := strconv.ParseBool(configValue)
		if err != nil {
			return fmt.Errorf("invalid value for %s: %w", key, err)
		}
		*target = boolValue
	}

	return nil
}
