package config

import "time"

const (
	// DefaultConfigPath is used when --config is not provided.
	DefaultConfigPath = "config.yml"
	defaultPort       = 2333
	defaultEnv        = "development"
	defaultAPIPrefix  = "/api"

	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"

	defaultDBDriver   = DriverMySQL
	defaultDBHost     = "127.0.0.1"
	defaultDBPort     = 3306
	defaultDBUser     = "root"
	defaultDBPassword = "password"
	defaultDBName     = "pagecraft"
	defaultDBCharset  = "utf8mb4"
	defaultDBLoc      = "Local"
	defaultSQLitePath = "data/pagecraft.db"

	defaultRedisHost = "localhost"
	defaultRedisPort = 6379
	defaultRedisDB   = 0

	defaultAccessTokenTTL  = 15 * time.Minute
	defaultRefreshTokenTTL = 30 * 24 * time.Hour

	StorageLocal = "local"
	StorageS3    = "s3"

	defaultUploadMaxSizeMB = 10
	defaultSiteName        = "My Site"
	defaultAdminUsername   = "admin"
	defaultAdminEmail      = "admin@admin.com"
)

var defaultUploadFormats = []string{"jpg", "jpeg", "png", "gif", "webp", "svg", "avif"}
