package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-ini/ini"
	"github.com/spf13/viper"
)

// All known configuration keys. Used to probe environment overrides.
var allKeys = []string{
	KeyServerPort, KeyServerDebug,
	KeyDBType, KeyDBHost, KeyDBPort, KeyDBUser, KeyDBPassword, KeyDBName,
	KeyRedisAddr, KeyRedisPassword, KeyRedisDB,
	KeyJWTSecret, KeyAdminEmail, KeyAdminPassword,
	KeySnapshotDir, KeyExportDir,
}

const (
	KeyServerPort    = "System.Port"
	KeyServerDebug   = "System.Debug"
	KeyDBType        = "Database.Type"
	KeyDBHost        = "Database.Host"
	KeyDBPort        = "Database.Port"
	KeyDBUser        = "Database.User"
	KeyDBPassword    = "Database.Password"
	KeyDBName        = "Database.Name"
	KeyRedisAddr     = "Redis.Addr"
	KeyRedisPassword = "Redis.Password"
	KeyRedisDB       = "Redis.DB"
	KeyJWTSecret     = "Auth.JWTSecret"
	KeyAdminEmail    = "Auth.AdminEmail"
	KeyAdminPassword = "Auth.AdminPassword"
	KeySnapshotDir   = "Storage.SnapshotDir"
	KeyExportDir     = "Storage.ExportDir"
)

type Config struct {
	vp *viper.Viper
}

// NewConfig loads data/conf.ini (creating it with defaults on first run)
// and then applies PROBELAB_* environment variable overrides on top.
func NewConfig() (*Config, error) {
	vp := viper.New()
	filePath := "data/conf.ini"

	iniCfg, err := ini.Load(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Printf("config file %s not found, writing defaults", filePath)
			if err := createDefaultConfigFile(filePath); err != nil {
				log.Printf("warning: could not create default config: %v, relying on environment only", err)
			} else if iniCfg, err = ini.Load(filePath); err != nil {
				log.Printf("warning: reloading freshly written config failed: %v", err)
			}
		} else {
			return nil, fmt.Errorf("parsing config file %q: %w", filePath, err)
		}
	}

	if iniCfg != nil {
		for _, section := range iniCfg.Sections() {
			for _, key := range section.Keys() {
				viperKey := fmt.Sprintf("%s.%s", section.Name(), key.Name())
				if section.Name() == "DEFAULT" {
					viperKey = key.Name()
				}
				vp.Set(viperKey, key.Value())
			}
		}
	}

	// Environment overrides: System.Port -> PROBELAB_SYSTEM_PORT.
	envReplacer := strings.NewReplacer(".", "_")
	const envPrefix = "PROBELAB"
	for _, key := range allKeys {
		envVarName := fmt.Sprintf("%s_%s", envPrefix, envReplacer.Replace(strings.ToUpper(key)))
		if value, found := os.LookupEnv(envVarName); found {
			vp.Set(key, value)
			log.Printf("config key %q overridden by %s", key, envVarName)
		}
	}

	return &Config{vp: vp}, nil
}

func (c *Config) GetString(key string) string {
	return c.vp.GetString(key)
}

func (c *Config) GetInt(key string) int {
	return c.vp.GetInt(key)
}

func (c *Config) GetBool(key string) bool {
	return c.vp.GetBool(key)
}

func createDefaultConfigFile(filePath string) error {
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	defaultConfig := `[System]
Port = 8091
Debug = false

[Database]
Type = sqlite
Name = probelab.db

# Optional. When Addr is empty the app falls back to an in-memory cache.
[Redis]
Addr =
Password =
DB = 0

[Auth]
JWTSecret =
AdminEmail = admin@probelab.local
AdminPassword = admin

[Storage]
SnapshotDir = data/snapshots
ExportDir = data/exports
`

	if err := os.WriteFile(filePath, []byte(defaultConfig), 0644); err != nil {
		return fmt.Errorf("writing default config: %w", err)
	}
	return nil
}
