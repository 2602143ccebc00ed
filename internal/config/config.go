package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/ZouhairMK888/cv-analysis-and-ranking/internal/models"
	"github.com/ZouhairMK888/cv-analysis-and-ranking/internal/secrets"
)

const (
	// AppName names the config file and the user config directory
	AppName = "cv-ranker"
	// EnvPrefix prefixes every environment variable override
	EnvPrefix = "CVRANKER"

	configDirName = "CVRanker"
)

// Config holds application configuration
type Config struct {
	UploadsDir         string `mapstructure:"uploads-dir" validate:"required"`
	Workers            int    `mapstructure:"workers" validate:"min=1,max=64"`
	JobDescription     string `mapstructure:"job-description"`
	JobDescriptionFile string `mapstructure:"job-description-file"`

	OCR     OCRConfig    `mapstructure:"ocr"`
	NER     NERConfig    `mapstructure:"ner"`
	Filters FilterConfig `mapstructure:"filters"`
	Output  OutputConfig `mapstructure:"output"`
	Gmail   GmailConfig  `mapstructure:"gmail"`
	Redis   RedisConfig  `mapstructure:"redis"`
	MinIO   MinIOConfig  `mapstructure:"minio"`
	Invite  InviteConfig `mapstructure:"invite"`
	Server  ServerConfig `mapstructure:"server"`
}

// OCRConfig locates the external OCR tools
type OCRConfig struct {
	Tesseract string `mapstructure:"tesseract" validate:"required"`
	Pdftoppm  string `mapstructure:"pdftoppm" validate:"required"`
	Language  string `mapstructure:"language"`
}

// NERConfig selects the named-entity recognizer used as name fallback
type NERConfig struct {
	Provider string       `mapstructure:"provider" validate:"oneof=prose vertexai none"`
	Vertex   VertexConfig `mapstructure:"vertex"`
}

// VertexConfig configures the Vertex AI recognizer
type VertexConfig struct {
	Project         string `mapstructure:"project"`
	Location        string `mapstructure:"location"`
	Model           string `mapstructure:"model"`
	CredentialsFile string `mapstructure:"credentials-file"`
}

// FilterConfig holds the default candidate filters
type FilterConfig struct {
	MinExperience  int      `mapstructure:"min-experience" validate:"min=0"`
	MinScore       float64  `mapstructure:"min-score" validate:"min=0"`
	RequiredSkills []string `mapstructure:"required-skills"`
}

// Options converts the configured filters for the ranking stage
func (f FilterConfig) Options() models.FilterOptions {
	return models.FilterOptions{
		MinExperience:  f.MinExperience,
		MinScore:       f.MinScore,
		RequiredSkills: f.RequiredSkills,
	}
}

// OutputConfig lists the report files written after a run. Empty paths are skipped.
type OutputConfig struct {
	Excel    string `mapstructure:"excel"`
	PDF      string `mapstructure:"pdf"`
	Snapshot string `mapstructure:"snapshot"`
}

// GmailConfig locates the OAuth files used for the Gmail API
type GmailConfig struct {
	CredentialsFile string `mapstructure:"credentials-file"`
	TokenFile       string `mapstructure:"token-file"`
	Subject         string `mapstructure:"subject"`
}

// RedisConfig configures the extracted-text cache
type RedisConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Address      string        `mapstructure:"address" validate:"required_if=Enabled true"`
	Password     string        `mapstructure:"password"`
	PasswordFile string        `mapstructure:"password-file"`
	DB           int           `mapstructure:"db" validate:"min=0"`
	TTL          time.Duration `mapstructure:"ttl" validate:"min=0"`
}

// MinIOConfig configures the document archive
type MinIOConfig struct {
	Enabled             bool   `mapstructure:"enabled"`
	Endpoint            string `mapstructure:"endpoint" validate:"required_if=Enabled true"`
	AccessKeyID         string `mapstructure:"access-key-id"`
	SecretAccessKey     string `mapstructure:"secret-access-key"`
	SecretAccessKeyFile string `mapstructure:"secret-access-key-file"`
	UseSSL              bool   `mapstructure:"use-ssl"`
	Bucket              string `mapstructure:"bucket" validate:"required_if=Enabled true"`
}

// InviteConfig configures interview invitations
type InviteConfig struct {
	Transport string     `mapstructure:"transport" validate:"oneof=smtp gmail amqp"`
	Subject   string     `mapstructure:"subject" validate:"required"`
	Body      string     `mapstructure:"body" validate:"required"`
	SMTP      SMTPConfig `mapstructure:"smtp"`
	AMQP      AMQPConfig `mapstructure:"amqp"`
}

// SMTPConfig holds the mail server address and sender credentials
type SMTPConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port" validate:"min=0,max=65535"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	PasswordFile string `mapstructure:"password-file"`
}

// AMQPConfig configures invitation publishing to a message broker
type AMQPConfig struct {
	URL        string `mapstructure:"url"`
	Exchange   string `mapstructure:"exchange"`
	RoutingKey string `mapstructure:"routing-key"`
}

// ServerConfig configures the HTTP API
type ServerConfig struct {
	Address string `mapstructure:"address" validate:"required"`
}

// DefaultInviteBody is the invitation template used when none is configured
const DefaultInviteBody = `Dear {name},

We are pleased to invite you to an interview on {date} at {time}.

Please confirm your availability by replying to this email.

Best regards,
Recruitment Team`

// SetDefaults registers every key with its default value.
// Keys must be known to viper for environment overrides to reach Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("uploads-dir", "uploads")
	v.SetDefault("workers", 1)
	v.SetDefault("job-description", "")
	v.SetDefault("job-description-file", "")

	v.SetDefault("ocr.tesseract", "tesseract")
	v.SetDefault("ocr.pdftoppm", "pdftoppm")
	v.SetDefault("ocr.language", "")

	v.SetDefault("ner.provider", "prose")
	v.SetDefault("ner.vertex.project", "")
	v.SetDefault("ner.vertex.location", "us-central1")
	v.SetDefault("ner.vertex.model", "gemini-1.5-flash")
	v.SetDefault("ner.vertex.credentials-file", "")

	v.SetDefault("filters.min-experience", 0)
	v.SetDefault("filters.min-score", 0.0)
	v.SetDefault("filters.required-skills", []string{})

	v.SetDefault("output.excel", "")
	v.SetDefault("output.pdf", "")
	v.SetDefault("output.snapshot", "")

	v.SetDefault("gmail.credentials-file", "credentials.json")
	v.SetDefault("gmail.token-file", "token.json")
	v.SetDefault("gmail.subject", "")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.password-file", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", 24*time.Hour)

	v.SetDefault("minio.enabled", false)
	v.SetDefault("minio.endpoint", "")
	v.SetDefault("minio.access-key-id", "")
	v.SetDefault("minio.secret-access-key", "")
	v.SetDefault("minio.secret-access-key-file", "")
	v.SetDefault("minio.use-ssl", false)
	v.SetDefault("minio.bucket", "cv-documents")

	v.SetDefault("invite.transport", "smtp")
	v.SetDefault("invite.subject", "Interview Invitation")
	v.SetDefault("invite.body", DefaultInviteBody)
	v.SetDefault("invite.smtp.host", "smtp.gmail.com")
	v.SetDefault("invite.smtp.port", 587)
	v.SetDefault("invite.smtp.username", "")
	v.SetDefault("invite.smtp.password", "")
	v.SetDefault("invite.smtp.password-file", "")
	v.SetDefault("invite.amqp.url", "")
	v.SetDefault("invite.amqp.exchange", "")
	v.SetDefault("invite.amqp.routing-key", "cv.invitations")

	v.SetDefault("server.address", ":8080")
}

// GetConfigDir returns the user configuration directory
// On Windows: %APPDATA%/CVRanker
// On Unix: ~/.config/CVRanker
func GetConfigDir() (string, error) {
	if appData := os.Getenv("APPDATA"); appData != "" {
		return filepath.Join(appData, configDirName), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", configDirName), nil
}

// Load reads the configuration into v and decodes it.
// A .env file in the working directory is loaded first; a missing config file is not an error
// unless cfgFile names it explicitly.
func Load(v *viper.Viper, cfgFile string) (*Config, error) {
	_ = godotenv.Load()

	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(AppName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if dir, err := GetConfigDir(); err == nil {
			v.AddConfigPath(dir)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return Decode(v)
}

// Decode unmarshals the settings held by v and validates them
func Decode(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	err := v.Unmarshal(cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed on %s", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}

	if c.NER.Provider == "vertexai" && c.NER.Vertex.Project == "" {
		return fmt.Errorf("ner.vertex.project is required for the vertexai provider")
	}

	if c.JobDescriptionFile != "" {
		if _, err := os.Stat(c.JobDescriptionFile); err != nil {
			return fmt.Errorf("job description file not found: %w", err)
		}
	}

	return nil
}

// ResolveJobDescription returns the inline job description, or the content of the job
// description file when one is configured
func (c *Config) ResolveJobDescription() (string, error) {
	if c.JobDescriptionFile == "" {
		return c.JobDescription, nil
	}

	data, err := os.ReadFile(c.JobDescriptionFile)
	if err != nil {
		return "", fmt.Errorf("failed to read job description file: %w", err)
	}
	return string(data), nil
}

// RedisPassword resolves the Redis password from file or value. An empty password is allowed.
func (c *Config) RedisPassword() (string, error) {
	if c.Redis.Password == "" && c.Redis.PasswordFile == "" {
		return "", nil
	}
	return secrets.Load(secrets.Source{Name: "redis password", Value: c.Redis.Password, File: c.Redis.PasswordFile})
}

// MinIOSecret resolves the MinIO secret access key
func (c *Config) MinIOSecret() (string, error) {
	return secrets.Load(secrets.Source{Name: "minio secret access key", Value: c.MinIO.SecretAccessKey, File: c.MinIO.SecretAccessKeyFile})
}

// SMTPPassword resolves the SMTP sender password
func (c *Config) SMTPPassword() (string, error) {
	return secrets.Load(secrets.Source{Name: "smtp password", Value: c.Invite.SMTP.Password, File: c.Invite.SMTP.PasswordFile})
}

// ApplyToEnv exports the Google settings for client libraries that read the environment
func (c *Config) ApplyToEnv() {
	if c.NER.Vertex.Project != "" {
		os.Setenv("GOOGLE_CLOUD_PROJECT", c.NER.Vertex.Project)
	}
	if c.NER.Vertex.Location != "" {
		os.Setenv("GOOGLE_CLOUD_LOCATION", c.NER.Vertex.Location)
	}
	if c.NER.Vertex.CredentialsFile != "" {
		os.Setenv("GOOGLE_APPLICATION_CREDENTIALS", c.NER.Vertex.CredentialsFile)
	}
}
