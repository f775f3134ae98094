package config

import (
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/auralens/auralens/internal/errors"
)

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// LoadDotEnv loads .env files into the process environment. Missing files
// are ignored; variables already set in the environment are kept.
func LoadDotEnv(files ...string) {
	_ = godotenv.Load(files...)
}

// ApplyEnv overrides fields from AURALENS_* variables.
func (c *Config) ApplyEnv(lookup LookupFunc) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok && v != "" {
			*dst = v
		}
	}
	num := func(name string, dst *int) error {
		v, ok := lookup(EnvPrefix + name)
		if !ok || v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return envError(name, v, err)
		}
		*dst = n
		return nil
	}
	flag := func(name string, dst *bool) error {
		v, ok := lookup(EnvPrefix + name)
		if !ok || v == "" {
			return nil
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return envError(name, v, err)
		}
		*dst = b
		return nil
	}

	str("HOST", &c.Server.Host)
	if err := num("PORT", &c.Server.Port); err != nil {
		return err
	}
	str("SHUTDOWN_TIMEOUT", &c.Server.ShutdownTimeout)

	str("SESSION_PENDING_TTL", &c.Session.PendingTTL)
	str("SESSION_READ_TIMEOUT", &c.Session.ReadTimeout)
	str("SESSION_WRITE_TIMEOUT", &c.Session.WriteTimeout)
	if err := num("SESSION_MAX_EVENT_QUEUE", &c.Session.MaxEventQueue); err != nil {
		return err
	}
	if err := num("SESSION_MAX_SESSIONS", &c.Session.MaxSessions); err != nil {
		return err
	}

	if v, ok := lookup(EnvPrefix + "UPLOAD_MAX_FILE_SIZE"); ok && v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return envError("UPLOAD_MAX_FILE_SIZE", v, err)
		}
		c.Upload.MaxFileSize = n
	}
	if v, ok := lookup(EnvPrefix + "UPLOAD_MAX_TOTAL_BYTES"); ok && v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return envError("UPLOAD_MAX_TOTAL_BYTES", v, err)
		}
		c.Upload.MaxTotalBytes = n
	}
	str("UPLOAD_TEMP_EXPIRY", &c.Upload.TempExpiry)

	str("BRAND_NAME", &c.Content.BrandName)
	str("CONTACT_EMAIL", &c.Content.ContactEmail)
	str("SCENE_URL", &c.Content.SceneURL)
	str("LANG", &c.Content.Lang)

	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)

	if err := flag("TELEMETRY_ENABLED", &c.Telemetry.Enabled); err != nil {
		return err
	}
	if err := flag("TELEMETRY_INSECURE", &c.Telemetry.Insecure); err != nil {
		return err
	}
	str("TELEMETRY_ENDPOINT", &c.Telemetry.Endpoint)
	str("TELEMETRY_SERVICE_NAME", &c.Telemetry.ServiceName)
	str("TELEMETRY_ENVIRONMENT", &c.Telemetry.Environment)
	if v, ok := lookup(EnvPrefix + "TELEMETRY_HEADERS"); ok && v != "" {
		headers, err := parseHeaders(v)
		if err != nil {
			return envError("TELEMETRY_HEADERS", v, err)
		}
		c.Telemetry.Headers = headers
	}

	return nil
}

// parseHeaders parses "k1=v1,k2=v2".
func parseHeaders(raw string) (map[string]string, error) {
	headers := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		k, v, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, errors.Newf(errors.CategoryConfig, "malformed header %q", pair)
		}
		headers[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return headers, nil
}

func envError(name, value string, cause error) error {
	return errors.New("E102").
		WithDetail(EnvPrefix + name + "=" + strconv.Quote(value)).
		Wrap(cause)
}
