package pgv2

import (
	"strconv"
	"strings"

	"github.com/corwinharper/pgv2/config"
)

// Config is the parsed connection input from SPEC_FULL.md §6. Unlike the
// teacher's sql.Open-style DSN (which also carries sslmode, connect_timeout,
// and friends for its driver.Connector), this core only recognizes the keys
// the spec names; anything else in the DSN is accepted and ignored rather
// than rejected, so callers can reuse a pooler's fuller DSN unmodified.
type Config struct {
	Host     string
	Port     string
	Database string
	User     string
	Password string

	Compatible string
	LogLevel   int
	CharSet    string

	// Tracks which of the above were set explicitly in the DSN, so a
	// defaults-file overlay (applyDefaults) only fills in what the DSN left
	// unspecified rather than clobbering an explicit value with a zero one.
	compatibleSet bool
	logLevelSet   bool
	charSetSet    bool
}

const defaultCompatible = "1.0"
const minLogLevel, maxLogLevel = 0, 7

// ParseDSN parses a space-separated key=value connection string, the same
// shape gregb-pq's parseOpts consumes (single- or double-quoted values
// supported for ones containing spaces). user is required; its absence is
// a ConfigError raised before any I/O, per SPEC_FULL.md §7.
func ParseDSN(dsn string) (*Config, error) {
	cfg := &Config{
		Host:       "localhost",
		Port:       "5432",
		Compatible: defaultCompatible,
	}

	pairs, err := splitDSN(dsn)
	if err != nil {
		return nil, newError(KindConfig, "%v", err)
	}

	for k, v := range pairs {
		switch k {
		case "user":
			cfg.User = v
		case "password":
			cfg.Password = v
		case "host":
			cfg.Host = v
		case "port":
			cfg.Port = v
		case "dbname", "database":
			cfg.Database = v
		case "compatible":
			cfg.Compatible = v
			cfg.compatibleSet = true
		case "charSet", "charset":
			cfg.CharSet = v
			cfg.charSetSet = true
		case "loglevel":
			n, err := strconv.Atoi(v)
			if err == nil && n >= minLogLevel && n <= maxLogLevel {
				// Invalid values are silently ignored per SPEC_FULL.md §6.
				cfg.LogLevel = n
				cfg.logLevelSet = true
			}
		}
	}

	if cfg.User == "" {
		return nil, newError(KindConfig, "connection string has no user")
	}
	return cfg, nil
}

// applyDefaults overlays a driver-wide defaults file onto cfg, filling in
// only the fields the DSN left unspecified. DSN values always win over the
// defaults file named in SPEC_FULL.md §10. Environment variables are not
// consulted.
func (cfg *Config) applyDefaults(d *config.Defaults) {
	if !cfg.compatibleSet && d.Compatible != "" {
		cfg.Compatible = d.Compatible
	}
	if !cfg.logLevelSet && d.LogLevel >= minLogLevel && d.LogLevel <= maxLogLevel {
		cfg.LogLevel = d.LogLevel
	}
	if !cfg.charSetSet && d.CharSet != "" {
		cfg.CharSet = d.CharSet
	}
}

// LoadConfig parses dsn and, if defaultsPath is non-empty, overlays the
// driver-wide defaults file it names before returning. Pass an empty
// defaultsPath to skip the overlay entirely.
func LoadConfig(dsn, defaultsPath string) (*Config, error) {
	cfg, err := ParseDSN(dsn)
	if err != nil {
		return nil, err
	}
	if defaultsPath == "" {
		return cfg, nil
	}
	d, err := config.Load(defaultsPath)
	if err != nil {
		return nil, newError(KindConfig, "%v", err)
	}
	cfg.applyDefaults(d)
	return cfg, nil
}

func splitDSN(dsn string) (map[string]string, error) {
	out := make(map[string]string)
	s := strings.TrimSpace(dsn)
	for len(s) > 0 {
		eq := strings.IndexByte(s, '=')
		if eq < 0 {
			return nil, newError(KindConfig, "invalid connection string fragment %q", s)
		}
		key := strings.TrimSpace(s[:eq])
		rest := strings.TrimLeft(s[eq+1:], " ")

		var value string
		if len(rest) > 0 && (rest[0] == '\'' || rest[0] == '"') {
			quote := rest[0]
			end := strings.IndexByte(rest[1:], quote)
			if end < 0 {
				return nil, newError(KindConfig, "unterminated quoted value for key %q", key)
			}
			value = rest[1 : 1+end]
			s = strings.TrimLeft(rest[1+end+1:], " ")
		} else {
			sp := strings.IndexByte(rest, ' ')
			if sp < 0 {
				value = rest
				s = ""
			} else {
				value = rest[:sp]
				s = strings.TrimLeft(rest[sp:], " ")
			}
		}
		out[key] = value
	}
	return out, nil
}
