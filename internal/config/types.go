package config

import (
	"time"
)

// Config represents the complete application configuration
type Config struct {
	// Server holds HTTP server configuration
	Server struct {
		// Address is the address to listen on
		Address string
		// ShutdownTimeout is the maximum time to wait for a graceful shutdown
		ShutdownTimeout time.Duration
	}

	// Metrics holds metrics server configuration
	Metrics struct {
		// Address is the address to listen on for the metrics server
		Address string
	}

	// TLS holds TLS configuration
	TLS struct {
		// Enabled indicates whether TLS is enabled
		Enabled bool
		// CertPath is the path to the TLS certificate
		CertPath string
		// KeyPath is the path to the TLS key
		KeyPath string
	}

	// Database holds credential store configuration
	Database struct {
		// URL is a postgres:// URL or an SQLite path
		URL string
		// MaxConnections caps the PostgreSQL pool
		MaxConnections int
	}

	// Routes holds the business endpoint layout
	Routes struct {
		// BasePath prefixes every bank endpoint
		BasePath string
	}

	// Session holds session carrier configuration
	Session struct {
		// CookieName is the name of the session cookie
		CookieName string
		// Header is the header carrying the session token
		Header string
		// TTL is the absolute lifetime of a session
		TTL time.Duration
		// MaxEntries bounds the number of live sessions
		MaxEntries int
		// CookieSecure marks the cookie Secure
		CookieSecure bool
	}

	// Password holds password hashing configuration
	Password struct {
		// BcryptCost is the work factor for new hashes
		BcryptCost int
	}

	// Observability holds observability configuration
	Observability struct {
		// LogLevel is the minimum log level to emit
		LogLevel string
		// LogFormat is the log format (json, text, console)
		LogFormat string
	}
}
