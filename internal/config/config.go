package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// AppConfig holds runtime startup configuration loaded from YAML.
type AppConfig struct {
	Port            int                   `yaml:"port"`
	Env             string                `yaml:"env"` // "development" | "production"
	APIPrefix       string                `yaml:"api_prefix"`
	DSN             string                `yaml:"-"`
	RedisURL        string                `yaml:"-"`
	Database        DatabaseRuntimeConfig `yaml:"database"`
	Redis           RedisRuntimeConfig    `yaml:"redis"`
	Paths           RuntimePathsConfig    `yaml:"paths"`
	AllowedOrigins  []string              `yaml:"allowed_origins"`
	JWTSecret       string                `yaml:"jwt_secret"`
	AccessTokenTTL  time.Duration         `yaml:"access_token_ttl"`
	RefreshTokenTTL time.Duration         `yaml:"refresh_token_ttl"`
	Timezone        string                `yaml:"timezone"`
	Storage         StorageConfig         `yaml:"storage"`
	Upload          UploadConfig          `yaml:"upload"`
	Admin           AdminConfig           `yaml:"admin"`
	Site            SiteConfig            `yaml:"site"`
}

type DatabaseRuntimeConfig struct {
	Driver    string            `yaml:"driver"` // "mysql" | "sqlite"
	DSN       string            `yaml:"dsn"`
	Path      string            `yaml:"path"` // sqlite file, ":memory:" allowed
	Host      string            `yaml:"host"`
	Port      int               `yaml:"port"`
	User      string            `yaml:"user"`
	Password  string            `yaml:"password"`
	Name      string            `yaml:"name"`
	Charset   string            `yaml:"charset"`
	ParseTime bool              `yaml:"parse_time"`
	Loc       string            `yaml:"loc"`
	Params    map[string]string `yaml:"params"`
}

type RedisRuntimeConfig struct {
	Enable   bool   `yaml:"enable"`
	Embedded bool   `yaml:"embedded"` // in-process miniredis instead of a server
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	TLS      bool   `yaml:"tls"`
}

type RuntimePathsConfig struct {
	Logs    string `yaml:"logs"`
	Uploads string `yaml:"uploads"`
}

// StorageConfig selects where uploaded images go.
type StorageConfig struct {
	Driver string   `yaml:"driver"` // "local" | "s3"
	S3     S3Config `yaml:"s3"`
}

type S3Config struct {
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	PublicURL       string `yaml:"public_url"`
	PathPrefix      string `yaml:"path_prefix"`
	ForcePathStyle  bool   `yaml:"force_path_style"`
}

type UploadConfig struct {
	MaxSizeMB      int      `yaml:"max_size_mb"`
	AllowedFormats []string `yaml:"allowed_formats"`
	PublicBaseURL  string   `yaml:"public_base_url"`
}

// AdminConfig describes the operator account ensured at startup.
type AdminConfig struct {
	Username string `yaml:"username"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
}

type SiteConfig struct {
	DefaultName string `yaml:"default_name"`
}

type rawAppConfig struct {
	Port            int                `yaml:"port"`
	Env             string             `yaml:"env"`
	APIPrefix       *string            `yaml:"api_prefix"`
	DSN             string             `yaml:"dsn"`
	RedisURL        string             `yaml:"redis_url"`
	Database        rawDatabaseConfig  `yaml:"database"`
	Redis           rawRedisConfig     `yaml:"redis"`
	Paths           RuntimePathsConfig `yaml:"paths"`
	AllowedOrigins  []string           `yaml:"allowed_origins"`
	JWTSecret       string             `yaml:"jwt_secret"`
	AccessTokenTTL  time.Duration      `yaml:"access_token_ttl"`
	RefreshTokenTTL time.Duration      `yaml:"refresh_token_ttl"`
	Timezone        string             `yaml:"timezone"`
	Storage         rawStorageConfig   `yaml:"storage"`
	Upload          UploadConfig       `yaml:"upload"`
	Admin           AdminConfig        `yaml:"admin"`
	Site            SiteConfig         `yaml:"site"`
}

type rawDatabaseConfig struct {
	Driver    string            `yaml:"driver"`
	DSN       string            `yaml:"dsn"`
	Path      string            `yaml:"path"`
	Host      string            `yaml:"host"`
	Port      int               `yaml:"port"`
	User      string            `yaml:"user"`
	Password  string            `yaml:"password"`
	Name      string            `yaml:"name"`
	Charset   string            `yaml:"charset"`
	ParseTime *bool             `yaml:"parse_time"`
	Loc       string            `yaml:"loc"`
	Params    map[string]string `yaml:"params"`
}

type rawRedisConfig struct {
	Enable   *bool  `yaml:"enable"`
	Embedded *bool  `yaml:"embedded"`
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DB       *int   `yaml:"db"`
	TLS      *bool  `yaml:"tls"`
}

type rawStorageConfig struct {
	Driver string   `yaml:"driver"`
	S3     S3Config `yaml:"s3"`
}

// Load reads the YAML file at configPath and applies it over the defaults.
func Load(configPath string) (*AppConfig, error) {
	path := strings.TrimSpace(configPath)
	if path == "" {
		path = DefaultConfigPath
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file %q: %w", path, err)
	}

	cfg, err := Parse(content)
	if err != nil {
		return nil, fmt.Errorf("config file %q: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML content over the defaults and validates the result.
func Parse(content []byte) (*AppConfig, error) {
	cfg := Default()
	raw := rawAppConfig{}
	if len(bytes.TrimSpace(content)) > 0 {
		decoder := yaml.NewDecoder(bytes.NewReader(content))
		decoder.KnownFields(true)
		if err := decoder.Decode(&raw); err != nil {
			return nil, fmt.Errorf("parse: %w", err)
		}
	}

	applyRawAppConfig(&cfg, raw)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used when no file overrides a value.
func Default() AppConfig {
	cfg := AppConfig{
		Port:      defaultPort,
		Env:       defaultEnv,
		APIPrefix: defaultAPIPrefix,
		Database: DatabaseRuntimeConfig{
			Driver:    defaultDBDriver,
			Host:      defaultDBHost,
			Port:      defaultDBPort,
			User:      defaultDBUser,
			Password:  defaultDBPassword,
			Name:      defaultDBName,
			Charset:   defaultDBCharset,
			ParseTime: true,
			Loc:       defaultDBLoc,
		},
		Redis: RedisRuntimeConfig{
			Host: defaultRedisHost,
			Port: defaultRedisPort,
			DB:   defaultRedisDB,
		},
		AccessTokenTTL:  defaultAccessTokenTTL,
		RefreshTokenTTL: defaultRefreshTokenTTL,
		Storage:         StorageConfig{Driver: StorageLocal},
		Upload: UploadConfig{
			MaxSizeMB:      defaultUploadMaxSizeMB,
			AllowedFormats: append([]string(nil), defaultUploadFormats...),
		},
		Admin: AdminConfig{
			Username: defaultAdminUsername,
			Email:    defaultAdminEmail,
		},
		Site: SiteConfig{DefaultName: defaultSiteName},
	}
	cfg.Database = normalizeDatabaseConfig(cfg.Database)
	cfg.Redis = normalizeRedisConfig(cfg.Redis)
	cfg.DSN = cfg.Database.DSNValue()
	cfg.RedisURL = cfg.Redis.URLValue()
	return cfg
}

func applyRawAppConfig(cfg *AppConfig, raw rawAppConfig) {
	if raw.Port != 0 {
		cfg.Port = raw.Port
	}
	if v := strings.TrimSpace(raw.Env); v != "" {
		cfg.Env = v
	}
	if raw.APIPrefix != nil {
		cfg.APIPrefix = normalizeAPIPrefix(*raw.APIPrefix)
	}
	cfg.Database = applyRawDatabaseConfig(cfg.Database, raw)
	cfg.Redis = applyRawRedisConfig(cfg.Redis, raw)
	if v := strings.TrimSpace(raw.Paths.Logs); v != "" {
		cfg.Paths.Logs = v
	}
	if v := strings.TrimSpace(raw.Paths.Uploads); v != "" {
		cfg.Paths.Uploads = v
	}
	if len(raw.AllowedOrigins) > 0 {
		cfg.AllowedOrigins = normalizeOrigins(raw.AllowedOrigins)
	}
	if v := strings.TrimSpace(raw.JWTSecret); v != "" {
		cfg.JWTSecret = v
	}
	if raw.AccessTokenTTL != 0 {
		cfg.AccessTokenTTL = raw.AccessTokenTTL
	}
	if raw.RefreshTokenTTL != 0 {
		cfg.RefreshTokenTTL = raw.RefreshTokenTTL
	}
	if v := strings.TrimSpace(raw.Timezone); v != "" {
		cfg.Timezone = v
	}
	if v := strings.TrimSpace(raw.Storage.Driver); v != "" {
		cfg.Storage.Driver = strings.ToLower(v)
	}
	cfg.Storage.S3 = normalizeS3Config(raw.Storage.S3)
	if raw.Upload.MaxSizeMB != 0 {
		cfg.Upload.MaxSizeMB = raw.Upload.MaxSizeMB
	}
	if len(raw.Upload.AllowedFormats) > 0 {
		cfg.Upload.AllowedFormats = normalizeFormats(raw.Upload.AllowedFormats)
	}
	if v := strings.TrimSpace(raw.Upload.PublicBaseURL); v != "" {
		cfg.Upload.PublicBaseURL = strings.TrimRight(v, "/")
	}
	if v := strings.TrimSpace(raw.Admin.Username); v != "" {
		cfg.Admin.Username = v
	}
	if v := strings.TrimSpace(raw.Admin.Email); v != "" {
		cfg.Admin.Email = strings.ToLower(v)
	}
	if raw.Admin.Password != "" {
		cfg.Admin.Password = raw.Admin.Password
	}
	if v := strings.TrimSpace(raw.Site.DefaultName); v != "" {
		cfg.Site.DefaultName = v
	}

	cfg.Env = normalizeEnv(cfg.Env)
	cfg.DSN = cfg.Database.DSNValue()
	cfg.RedisURL = cfg.Redis.URLValue()
	if v := strings.TrimSpace(raw.DSN); v != "" {
		cfg.DSN = v
	}
	if v := normalizeRedisRawURL(raw.RedisURL); v != "" {
		cfg.RedisURL = v
		cfg.Redis.Enable = true
	}
}

func applyRawDatabaseConfig(current DatabaseRuntimeConfig, raw rawAppConfig) DatabaseRuntimeConfig {
	cfg := current
	db := raw.Database

	if v := strings.TrimSpace(db.Driver); v != "" {
		cfg.Driver = v
	}
	if v := strings.TrimSpace(db.DSN); v != "" {
		cfg.DSN = v
	}
	if v := strings.TrimSpace(db.Path); v != "" {
		cfg.Path = v
	}
	if v := strings.TrimSpace(db.Host); v != "" {
		cfg.Host = v
	}
	if db.Port != 0 {
		cfg.Port = db.Port
	}
	if v := strings.TrimSpace(db.User); v != "" {
		cfg.User = v
	}
	if db.Password != "" {
		cfg.Password = db.Password
	}
	if v := strings.TrimSpace(db.Name); v != "" {
		cfg.Name = v
	}
	if v := strings.TrimSpace(db.Charset); v != "" {
		cfg.Charset = v
	}
	if db.ParseTime != nil {
		cfg.ParseTime = *db.ParseTime
	}
	if v := strings.TrimSpace(db.Loc); v != "" {
		cfg.Loc = v
	}
	if db.Params != nil {
		cfg.Params = copyStringMap(db.Params)
	}

	return normalizeDatabaseConfig(cfg)
}

func applyRawRedisConfig(current RedisRuntimeConfig, raw rawAppConfig) RedisRuntimeConfig {
	cfg := current
	r := raw.Redis

	if r.Enable != nil {
		cfg.Enable = *r.Enable
	}
	if r.Embedded != nil {
		cfg.Embedded = *r.Embedded
	}
	if v := strings.TrimSpace(r.URL); v != "" {
		cfg.URL = v
	}
	if v := strings.TrimSpace(r.Host); v != "" {
		cfg.Host = v
	}
	if r.Port != 0 {
		cfg.Port = r.Port
	}
	if v := strings.TrimSpace(r.Username); v != "" {
		cfg.Username = v
	}
	if r.Password != "" {
		cfg.Password = r.Password
	}
	if r.DB != nil {
		cfg.DB = *r.DB
	}
	if r.TLS != nil {
		cfg.TLS = *r.TLS
	}

	return normalizeRedisConfig(cfg)
}

func (c *AppConfig) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d, expected 1-65535", c.Port)
	}
	switch c.Database.Driver {
	case DriverMySQL:
		if c.Database.Port < 1 || c.Database.Port > 65535 {
			return fmt.Errorf("invalid database.port %d, expected 1-65535", c.Database.Port)
		}
	case DriverSQLite:
	default:
		return fmt.Errorf("unsupported database.driver %q, expected %q or %q", c.Database.Driver, DriverMySQL, DriverSQLite)
	}
	if c.Redis.Enable && !c.Redis.Embedded {
		if c.Redis.Port < 1 || c.Redis.Port > 65535 {
			return fmt.Errorf("invalid redis.port %d, expected 1-65535", c.Redis.Port)
		}
		if c.Redis.DB < 0 {
			return fmt.Errorf("invalid redis.db %d, expected >= 0", c.Redis.DB)
		}
	}
	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 {
		return fmt.Errorf("token ttl must be positive")
	}
	if c.RefreshTokenTTL < c.AccessTokenTTL {
		return fmt.Errorf("refresh_token_ttl (%s) shorter than access_token_ttl (%s)", c.RefreshTokenTTL, c.AccessTokenTTL)
	}
	switch c.Storage.Driver {
	case StorageLocal:
	case StorageS3:
		if c.Storage.S3.Bucket == "" {
			return fmt.Errorf("storage.s3.bucket is required when storage.driver is %q", StorageS3)
		}
	default:
		return fmt.Errorf("unsupported storage.driver %q", c.Storage.Driver)
	}
	if c.Upload.MaxSizeMB < 1 {
		return fmt.Errorf("invalid upload.max_size_mb %d", c.Upload.MaxSizeMB)
	}
	return nil
}

func (c *AppConfig) IsDev() bool {
	return strings.EqualFold(c.Env, defaultEnv)
}

func (c *AppConfig) LogDir() string {
	if c == nil {
		return ResolveRuntimePath("", "logs")
	}
	return ResolveRuntimePath(c.Paths.Logs, "logs")
}

func (c *AppConfig) UploadDir() string {
	if c == nil {
		return ResolveRuntimePath("", "uploads")
	}
	return ResolveRuntimePath(c.Paths.Uploads, "uploads")
}

// UploadMaxBytes returns the upload size limit in bytes.
func (c *AppConfig) UploadMaxBytes() int64 {
	return int64(c.Upload.MaxSizeMB) << 20
}
