package database

import (
	"net"
	"net/url"
	"strconv"

	"github.com/rickgao/price-relay/internal/config"
)

// ApplicationName is reported to the server so relay sessions can be told
// apart in pg_stat_activity.
const ApplicationName = "price-relay"

// BuildConnString builds a postgres:// URL for the price sink. Credentials and
// IPv6 hosts are escaped.
func BuildConnString(cfg config.DBConfig) string {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = config.DefaultDBSSLMode
	}

	query := url.Values{}
	query.Set("sslmode", sslMode)
	query.Set("application_name", ApplicationName)

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Path:     "/" + cfg.Name,
		RawQuery: query.Encode(),
	}
	return u.String()
}
