package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/spf13/viper"

	"github.com/hamed0406/sitechecker/internal/domain"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

const (
	TLSMandatory     = "mandatory"
	TLSOpportunistic = "opportunistic"
	TLSNone          = "none"
)

// SMTP auth mechanisms; auto picks the strongest the server advertises.
const (
	SMTPAuthAuto    = "auto"
	SMTPAuthPlain   = "plain"
	SMTPAuthLogin   = "login"
	SMTPAuthCramMD5 = "cram-md5"
)

// EnvPrefix: SITECHECK_EMAIL_SMTP_PASSWORD overrides email.smtp_password.
const EnvPrefix = "SITECHECK"

type SiteConfig struct {
	Name string `mapstructure:"name"`
	URL  string `mapstructure:"url"`
}

type EmailConfig struct {
	SMTPHost     string        `mapstructure:"smtp_host"`
	SMTPPort     int           `mapstructure:"smtp_port"`
	SMTPUsername string        `mapstructure:"smtp_username"`
	SMTPPassword string        `mapstructure:"smtp_password"`
	SMTPAuth     string        `mapstructure:"smtp_auth"`
	TLSPolicy    string        `mapstructure:"tls_policy"`
	Timeout      time.Duration `mapstructure:"timeout"`
	From         string        `mapstructure:"from"`
	To           string        `mapstructure:"to"`
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	Path   string `mapstructure:"path"` // sqlite file
	URL    string `mapstructure:"url"`  // postgres DSN
}

type ProbeConfig struct {
	Timeout   time.Duration `mapstructure:"timeout"`
	UserAgent string        `mapstructure:"user_agent"`
}

type LogConfig struct {
	Dir   string `mapstructure:"dir"`
	Level string `mapstructure:"level"`
}

type APIConfig struct {
	Addr           string   `mapstructure:"addr"`
	Keys           []string `mapstructure:"keys"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	RatePerMin     int      `mapstructure:"rate_per_min"` // 0 disables
	Burst          int      `mapstructure:"burst"`
}

type Config struct {
	Sites    []SiteConfig   `mapstructure:"sites"`
	Email    EmailConfig    `mapstructure:"email"`
	Database DatabaseConfig `mapstructure:"database"`
	Probe    ProbeConfig    `mapstructure:"probe"`
	Log      LogConfig      `mapstructure:"log"`
	API      APIConfig      `mapstructure:"api"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("email.smtp_port", 587)
	v.SetDefault("email.tls_policy", TLSMandatory)
	v.SetDefault("email.smtp_auth", SMTPAuthAuto)
	v.SetDefault("email.timeout", "30s")
	v.SetDefault("database.driver", DriverSQLite)
	v.SetDefault("database.path", "site-checker.db")
	v.SetDefault("probe.timeout", "30s")
	v.SetDefault("probe.user_agent", "sitechecker/1.0")
	v.SetDefault("log.dir", "logs")
	v.SetDefault("log.level", "info")
	v.SetDefault("api.addr", "127.0.0.1:8080")
	v.SetDefault("api.rate_per_min", 120)
	v.SetDefault("api.burst", 60)
}

// Load reads path (YAML) and applies SITECHECK_* environment overrides.
// An empty path searches ./config.yaml and ./config/config.yaml; a missing
// file is fine as long as the environment supplies a valid configuration.
func Load(path string) (*Config, error) {
	return load(path, (*Config).Validate)
}

// LoadAPI is Load for the history API, which never sends mail and does not
// probe: only the storage, log and api sections have to be valid.
func LoadAPI(path string) (*Config, error) {
	return load(path, (*Config).ValidateAPI)
}

func load(path string, validate func(*Config) error) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// AutomaticEnv only sees keys viper already knows about
	for _, k := range []string{"email.smtp_host", "email.smtp_username", "email.smtp_password", "email.from", "email.to", "database.url"} {
		_ = v.BindEnv(k)
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// SiteList returns the monitored sites in configured order.
func (c *Config) SiteList() []domain.Site {
	out := make([]domain.Site, 0, len(c.Sites))
	for _, s := range c.Sites {
		out = append(out, domain.Site{Name: s.Name, URL: s.URL})
	}
	return out
}

func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Sites,
			validation.Required,
			validation.Each(validation.By(validateSite)),
			validation.By(uniqueSiteNames),
		),
		validation.Field(&c.Email),
		validation.Field(&c.Database),
		validation.Field(&c.Probe),
		validation.Field(&c.Log),
		validation.Field(&c.API),
	)
}

func (c *Config) ValidateAPI() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Database),
		validation.Field(&c.Log),
		validation.Field(&c.API),
	)
}

func (a APIConfig) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.Addr, validation.Required),
		validation.Field(&a.RatePerMin, validation.Min(0)),
		validation.Field(&a.Burst, validation.Min(0)),
	)
}

func (e EmailConfig) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.SMTPHost, validation.Required, is.Host),
		validation.Field(&e.SMTPPort, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&e.TLSPolicy, validation.Required, validation.In(TLSMandatory, TLSOpportunistic, TLSNone)),
		validation.Field(&e.SMTPPassword, validation.When(e.SMTPUsername != "", validation.Required)),
		validation.Field(&e.SMTPAuth, validation.In(SMTPAuthAuto, SMTPAuthPlain, SMTPAuthLogin, SMTPAuthCramMD5)),
		validation.Field(&e.Timeout, validation.Min(time.Second)),
		validation.Field(&e.From, validation.Required, is.EmailFormat),
		validation.Field(&e.To, validation.Required, is.EmailFormat),
	)
}

func (d DatabaseConfig) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Driver, validation.Required, validation.In(DriverSQLite, DriverPostgres, DriverMemory)),
		validation.Field(&d.Path, validation.When(d.Driver == DriverSQLite, validation.Required)),
		validation.Field(&d.URL, validation.When(d.Driver == DriverPostgres, validation.Required)),
	)
}

func (p ProbeConfig) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Timeout, validation.Required, validation.Min(100*time.Millisecond)),
	)
}

func (l LogConfig) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.Dir, validation.Required),
		validation.Field(&l.Level, validation.Required, validation.In("debug", "info", "warn", "error")),
	)
}

func validateSite(value interface{}) error {
	site, ok := value.(SiteConfig)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a SiteConfig")
	}
	if strings.TrimSpace(site.Name) == "" {
		return validation.NewError("validation_empty_name", "site name cannot be empty")
	}
	u, err := url.Parse(site.URL)
	if err != nil || site.URL == "" {
		return validation.NewError("validation_invalid_url", "must be a valid URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return validation.NewError("validation_invalid_scheme", "URL must use http or https scheme")
	}
	if u.Host == "" {
		return validation.NewError("validation_missing_host", "URL must have a host")
	}
	return nil
}

func uniqueSiteNames(value interface{}) error {
	sites, ok := value.([]SiteConfig)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a list of sites")
	}
	seen := make(map[string]struct{}, len(sites))
	for _, s := range sites {
		if _, dup := seen[s.Name]; dup {
			return validation.NewError("validation_duplicate_site", fmt.Sprintf("duplicate site name %q", s.Name))
		}
		seen[s.Name] = struct{}{}
	}
	return nil
}
