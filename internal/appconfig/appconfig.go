package appconfig

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/template"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v2"
)

// Config holds all configuration details
type Config struct {
	Host     string         `yaml:"host"`
	BasePath string         `yaml:"basePath"`
	DocsPath string         `yaml:"docsPath"`
	Database DatabaseConfig `yaml:"database"`
	Pulsar   PulsarConfig   `yaml:"pulsar"`
	Auth     AuthConfig     `yaml:"auth"`
	SLA      SLAConfig      `yaml:"sla"`
	OTP      OTPConfig      `yaml:"otp"`
	Email    EmailConfig    `yaml:"email"`
	AWS      AWSConfig      `yaml:"aws"`
	CORS     CORSConfig     `yaml:"cors"`
	Workflow WorkflowConfig `yaml:"workflow"`
}

// DatabaseConfig defines the database connection details
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	Source string `yaml:"source"`
}

// PulsarConfig defines the messaging system connection details. An empty URL
// dispatches events in-process.
type PulsarConfig struct {
	URL           string `yaml:"url"`
	TopicProducer string `yaml:"topicProducer"`
	TopicConsumer string `yaml:"topicConsumer"`
	Subscription  string `yaml:"subscription"`
}

// AuthConfig defines token issuing. The signing secret comes from Secrets
// Manager when JWTSecretArn is set, else from the JWT_SECRET variable.
type AuthConfig struct {
	Issuer       string   `yaml:"issuer"`
	TokenTTL     Duration `yaml:"tokenTTL"`
	JWTSecretArn string   `yaml:"jwtSecretArn"`
}

type SLAConfig struct {
	DefaultHours   int      `yaml:"defaultHours"`
	WarningPercent float64  `yaml:"warningPercent"`
	SweepInterval  Duration `yaml:"sweepInterval"`
}

type OTPConfig struct {
	TTL         Duration `yaml:"ttl"`
	MaxAttempts int      `yaml:"maxAttempts"`
	Length      int      `yaml:"length"`
}

type EmailConfig struct {
	Sender  string `yaml:"sender"`
	Enabled bool   `yaml:"enabled"`
}

type S3Config struct {
	Bucket string `yaml:"bucket"`
	Prefix string `yaml:"prefix"`
}

type AWSConfig struct {
	Region string   `yaml:"region"`
	S3     S3Config `yaml:"s3"`
}

type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowedOrigins"`
}

type WorkflowConfig struct {
	AutoAssign bool `yaml:"autoAssign"`
	// ReopenWindow is how long after closing a citizen may reopen.
	ReopenWindow Duration `yaml:"reopenWindow"`
}

// Duration is a time.Duration read from strings such as "5m" or "24h".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	if s == "" {
		d.Duration = 0
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = v
	return nil
}

// LoadConfig loads and parses the configuration from a given file path
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config file path is required")
	}

	// A .env file next to the working directory is optional
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	tmpl, err := template.New("config").Option("missingkey=zero").ParseFiles(path)
	if err != nil {
		return nil, fmt.Errorf("error parsing config file template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, templateName(path), loadEnvVars()); err != nil {
		return nil, fmt.Errorf("error executing config file template: %w", err)
	}

	return Parse(buf.Bytes())
}

// Parse unmarshals rendered YAML and applies defaults.
func Parse(data []byte) (*Config, error) {
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config YAML: %w", err)
	}
	config.applyDefaults()
	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.BasePath == "" {
		c.BasePath = "/api"
	}
	if c.DocsPath == "" {
		c.DocsPath = "/api/docs"
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "postgres"
	}
	if c.Auth.Issuer == "" {
		c.Auth.Issuer = "civicconnect"
	}
	if c.Auth.TokenTTL.Duration <= 0 {
		c.Auth.TokenTTL.Duration = 24 * time.Hour
	}
	if c.SLA.DefaultHours <= 0 {
		c.SLA.DefaultHours = 48
	}
	if c.SLA.WarningPercent <= 0 || c.SLA.WarningPercent > 100 {
		c.SLA.WarningPercent = 80
	}
	if c.SLA.SweepInterval.Duration <= 0 {
		c.SLA.SweepInterval.Duration = time.Minute
	}
	if c.OTP.TTL.Duration <= 0 {
		c.OTP.TTL.Duration = 5 * time.Minute
	}
	if c.OTP.MaxAttempts <= 0 {
		c.OTP.MaxAttempts = 3
	}
	if c.OTP.Length <= 0 {
		c.OTP.Length = 6
	}
	if c.Workflow.ReopenWindow.Duration <= 0 {
		c.Workflow.ReopenWindow.Duration = 7 * 24 * time.Hour
	}
	if c.Pulsar.TopicProducer == "" {
		c.Pulsar.TopicProducer = "persistent://public/default/civicconnect-complaint-events"
	}
	if c.Pulsar.TopicConsumer == "" {
		c.Pulsar.TopicConsumer = c.Pulsar.TopicProducer
	}
	if c.Pulsar.Subscription == "" {
		c.Pulsar.Subscription = "civicconnect-notifications"
	}
	if len(c.CORS.AllowedOrigins) == 0 {
		c.CORS.AllowedOrigins = []string{
			"http://localhost:5173",
			"http://localhost:3000",
			"http://localhost:5174",
		}
	}
}

func templateName(path string) string {
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		return path[i+1:]
	}
	return path
}

// loadEnvVars loads environment variables into a map
func loadEnvVars() map[string]string {
	envVars := make(map[string]string)
	for _, env := range os.Environ() {
		kv := strings.SplitN(env, "=", 2)
		if len(kv) == 2 {
			envVars[kv[0]] = kv[1]
		}
	}
	return envVars
}
