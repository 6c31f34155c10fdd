package config

import "github.com/spf13/viper"

// SettingType represents the type of a setting
type SettingType string

const (
	// String type for string settings
	String SettingType = "string"
	// Bool type for boolean settings
	Bool SettingType = "bool"
	// Int type for integer settings
	Int SettingType = "int"
	// StringSlice type for string slice settings
	StringSlice SettingType = "stringSlice"
)

// Setting defines a configuration setting
type Setting struct {
	// Name is the name of the setting
	Name string
	// Short is a short description of the setting
	Short string
	// Type is the type of the setting
	Type SettingType
	// Default is the default value of the setting
	Default interface{}
	// Env is the environment variable name for the setting
	Env string
	// Required indicates whether the setting is required
	Required bool
}

// SettingList is a list of settings
type SettingList []Setting

// PopulateViperDefaults sets default values for all settings in Viper
func (sl SettingList) PopulateViperDefaults(v *viper.Viper) {
	for _, s := range sl {
		v.SetDefault(s.Name, s.Default)
	}
}

// MissingRequired returns the names of required settings that have no value
func (sl SettingList) MissingRequired(v *viper.Viper) []string {
	var missing []string
	for _, s := range sl {
		if s.Required && v.GetString(s.Name) == "" {
			missing = append(missing, s.Name)
		}
	}
	return missing
}

// Settings defines all application settings
var Settings = SettingList{
	// Server settings
	{
		Name:    "SERVER_ADDR",
		Short:   "Address on which the server listens",
		Type:    String,
		Default: ":8000",
		Env:     "SERVER_ADDR",
	},
	{
		Name:    "METRICS_ADDR",
		Short:   "Address on which the metrics server listens",
		Type:    String,
		Default: ":9090",
		Env:     "METRICS_ADDR",
	},
	{
		Name:    "SHUTDOWN_TIMEOUT",
		Short:   "Maximum time to wait for graceful shutdown",
		Type:    String,
		Default: "30s",
		Env:     "SHUTDOWN_TIMEOUT",
	},

	// TLS settings
	{
		Name:    "TLS_ENABLED",
		Short:   "Enable TLS for the server",
		Type:    Bool,
		Default: false,
		Env:     "TLS_ENABLED",
	},
	{
		Name:    "TLS_CERT_PATH",
		Short:   "Path to TLS certificate file",
		Type:    String,
		Default: "",
		Env:     "TLS_CERT_PATH",
	},
	{
		Name:    "TLS_KEY_PATH",
		Short:   "Path to TLS key file",
		Type:    String,
		Default: "",
		Env:     "TLS_KEY_PATH",
	},

	// Credential store
	{
		Name:     "DATABASE_URL",
		Short:    "PostgreSQL URL or SQLite path of the credential store",
		Type:     String,
		Default:  "",
		Env:      "DATABASE_URL",
		Required: true,
	},
	{
		Name:    "DATABASE_MAX_CONNECTIONS",
		Short:   "Maximum open connections to PostgreSQL",
		Type:    Int,
		Default: 25,
		Env:     "DATABASE_MAX_CONNECTIONS",
	},

	// Routes
	{
		Name:    "BASE_PATH",
		Short:   "Path prefix of the bank endpoints",
		Type:    String,
		Default: "/bank",
		Env:     "BASE_PATH",
	},

	// Sessions
	{
		Name:    "SESSION_COOKIE_NAME",
		Short:   "Name of the session cookie",
		Type:    String,
		Default: "BANKGATE_SESSION",
		Env:     "SESSION_COOKIE_NAME",
	},
	{
		Name:    "SESSION_HEADER",
		Short:   "Header carrying the session token",
		Type:    String,
		Default: "X-Session-Token",
		Env:     "SESSION_HEADER",
	},
	{
		Name:    "SESSION_TTL",
		Short:   "Absolute lifetime of a session",
		Type:    String,
		Default: "30m",
		Env:     "SESSION_TTL",
	},
	{
		Name:    "SESSION_MAX_ENTRIES",
		Short:   "Maximum number of live sessions (0 for no limit)",
		Type:    Int,
		Default: 10000,
		Env:     "SESSION_MAX_ENTRIES",
	},
	{
		Name:    "SESSION_COOKIE_SECURE",
		Short:   "Mark the session cookie Secure",
		Type:    Bool,
		Default: false,
		Env:     "SESSION_COOKIE_SECURE",
	},

	// Passwords
	{
		Name:    "BCRYPT_COST",
		Short:   "bcrypt work factor for new password hashes",
		Type:    Int,
		Default: 10,
		Env:     "BCRYPT_COST",
	},

	// Observability settings
	{
		Name:    "LOG_LEVEL",
		Short:   "Minimum log level (debug, info, warn, error)",
		Type:    String,
		Default: "info",
		Env:     "LOG_LEVEL",
	},
	{
		Name:    "LOG_FORMAT",
		Short:   "Log format (json, text, console)",
		Type:    String,
		Default: "console",
		Env:     "LOG_FORMAT",
	},
}
