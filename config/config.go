// Copyright (C) 2026 l3montree GmbH
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package config

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/l3montree-dev/imagecatalog/database/models"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

type Config struct {
	Port string `mapstructure:"PORT" validate:"required"`

	ScannerBinary  string        `mapstructure:"SCANNER_BINARY" validate:"required"`
	ScannerTimeout time.Duration `mapstructure:"SCANNER_TIMEOUT" validate:"gt=0"`

	BOMLockTTL     time.Duration `mapstructure:"BOM_LOCK_TTL" validate:"gt=0"`
	PackageLockTTL time.Duration `mapstructure:"PACKAGE_LOCK_TTL" validate:"gt=0"`
	CatalogLockTTL time.Duration `mapstructure:"CATALOG_LOCK_TTL" validate:"gt=0"`

	WorkerConcurrency   int           `mapstructure:"WORKER_CONCURRENCY" validate:"min=1,max=256"`
	DaemonInterval      time.Duration `mapstructure:"DAEMON_INTERVAL" validate:"gt=0"`
	CatalogSyncInterval time.Duration `mapstructure:"CATALOG_SYNC_INTERVAL" validate:"gt=0"`
	PopularSyncInterval time.Duration `mapstructure:"POPULAR_SYNC_INTERVAL" validate:"gt=0"`
	StalePackageAge     time.Duration `mapstructure:"STALE_PACKAGE_AGE" validate:"gt=0"`
	BatchSize           int           `mapstructure:"BATCH_SIZE" validate:"min=1,max=1000"`

	// empty means in-process locks
	RedisURL string `mapstructure:"REDIS_URL" validate:"omitempty,url"`

	CatalogRepositoryURL string `mapstructure:"CATALOG_REPOSITORY_URL" validate:"required"`
	// a local checkout, takes precedence over the repository
	CatalogPath string `mapstructure:"CATALOG_PATH"`

	PackagesAPIURL string        `mapstructure:"PACKAGES_API_URL" validate:"required,url"`
	HTTPCacheTTL   time.Duration `mapstructure:"HTTP_CACHE_TTL" validate:"gte=0"`
}

var defaults = map[string]any{
	"PORT":                   "8080",
	"SCANNER_BINARY":         "syft",
	"SCANNER_TIMEOUT":        15 * time.Minute,
	"BOM_LOCK_TTL":           20 * time.Minute,
	"PACKAGE_LOCK_TTL":       10 * time.Minute,
	"CATALOG_LOCK_TTL":       time.Hour,
	"WORKER_CONCURRENCY":     4,
	"DAEMON_INTERVAL":        5 * time.Minute,
	"CATALOG_SYNC_INTERVAL":  24 * time.Hour,
	"POPULAR_SYNC_INTERVAL":  time.Hour,
	"STALE_PACKAGE_AGE":      24 * time.Hour,
	"BATCH_SIZE":             100,
	"REDIS_URL":              "",
	"CATALOG_REPOSITORY_URL": "https://github.com/which-distro/os-release.git",
	"CATALOG_PATH":           "",
	"PACKAGES_API_URL":       "https://packages.ecosyste.ms/api/v1/registries/hub.docker.com",
	"HTTP_CACHE_TTL":         10 * time.Minute,
}

// New returns a viper instance with all defaults set which reads overrides from the environment.
func New() *viper.Viper {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
	return v
}

func Load(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, errors.Wrap(err, "could not decode configuration")
	}
	cfg.PackagesAPIURL = strings.TrimSuffix(cfg.PackagesAPIURL, "/")
	if err := validator.New().Struct(cfg); err != nil {
		return cfg, errors.Wrap(err, "invalid configuration")
	}
	return cfg, nil
}

// FromEnv loads the configuration from the defaults and the environment only.
func FromEnv() (Config, error) {
	return Load(New())
}

// LockTTLs maps each job kind to the lifetime of its single-flight lock.
func (c Config) LockTTLs() map[models.JobKind]time.Duration {
	return map[models.JobKind]time.Duration{
		models.JobKindBOMSync:     c.BOMLockTTL,
		models.JobKindPackageSync: c.PackageLockTTL,
		models.JobKindCatalogSync: c.CatalogLockTTL,
	}
}
