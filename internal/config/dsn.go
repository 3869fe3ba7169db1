package config

import (
	"net"
	neturl "net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
)

// DSNValue returns the connection string for the configured driver. For
// sqlite it is the database file path.
func (c DatabaseRuntimeConfig) DSNValue() string {
	if dsn := strings.TrimSpace(c.DSN); dsn != "" {
		return dsn
	}
	if c.Driver == DriverSQLite {
		path := strings.TrimSpace(c.Path)
		if path == "" {
			path = defaultSQLitePath
		}
		return path
	}

	mc := mysql.NewConfig()
	mc.User = c.User
	mc.Passwd = c.Password
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
	mc.DBName = c.Name
	mc.ParseTime = c.ParseTime
	if loc, err := time.LoadLocation(c.Loc); err == nil {
		mc.Loc = loc
	}

	params := map[string]string{}
	if c.Charset != "" {
		params["charset"] = c.Charset
	}
	for key, value := range c.Params {
		params[key] = value
	}
	if len(params) > 0 {
		mc.Params = params
	}
	return mc.FormatDSN()
}

// URLValue returns a redis:// (or rediss:// when TLS is set) connection URL.
func (c RedisRuntimeConfig) URLValue() string {
	if u := normalizeRedisRawURL(c.URL); u != "" {
		return u
	}

	host := strings.TrimSpace(c.Host)
	if host == "" {
		host = defaultRedisHost
	}
	port := c.Port
	if port == 0 {
		port = defaultRedisPort
	}
	db := c.DB
	if db < 0 {
		db = defaultRedisDB
	}

	scheme := "redis"
	if c.TLS {
		scheme = "rediss"
	}

	u := &neturl.URL{
		Scheme: scheme,
		Host:   net.JoinHostPort(host, strconv.Itoa(port)),
		Path:   "/" + strconv.Itoa(db),
	}
	username := strings.TrimSpace(c.Username)
	switch {
	case username != "" && c.Password != "":
		u.User = neturl.UserPassword(username, c.Password)
	case username != "":
		u.User = neturl.User(username)
	case c.Password != "":
		u.User = neturl.UserPassword("", c.Password)
	}
	return u.String()
}
