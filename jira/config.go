package jira

import "time"

// AuthType selects how requests are authenticated.
type AuthType string

const (
	AuthAPIToken AuthType = "api_token" // Cloud: email + API token
	AuthBasic    AuthType = "basic"     // Server: username + password
	AuthPAT      AuthType = "pat"       // Server/DC: personal access token
)

// APIVersion is the REST API generation.
type APIVersion string

const (
	APIVersionV2 APIVersion = "v2" // Server/DC, wiki markup
	APIVersionV3 APIVersion = "v3" // Cloud, ADF
)

// Config configures a Client.
type Config struct {
	URL        string     `yaml:"url"`
	APIVersion APIVersion `yaml:"api_version,omitempty"`
	AuthType   AuthType   `yaml:"auth_type"`

	Email    string `yaml:"email,omitempty"`
	Token    string `yaml:"-"`
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"-"`

	Timeout    time.Duration `yaml:"timeout,omitempty"`
	MaxRetries int           `yaml:"max_retries,omitempty"`
}

// Validate checks that the fields the auth type needs are present.
func (c *Config) Validate() error {
	if c.URL == "" {
		return ErrConfigURLRequired
	}

	switch c.AuthType {
	case "":
		return ErrConfigAuthTypeRequired
	case AuthAPIToken:
		if c.Email == "" || c.Token == "" {
			return ErrConfigAPITokenAuth
		}
	case AuthBasic:
		if c.Username == "" || c.Password == "" {
			return ErrConfigBasicAuth
		}
	case AuthPAT:
		if c.Token == "" {
			return ErrConfigPATAuth
		}
	default:
		return ErrConfigAuthTypeInvalid
	}

	switch c.APIVersion {
	case "", APIVersionV2, APIVersionV3:
		return nil
	default:
		return ErrConfigAPIVersionInvalid
	}
}

// Version returns the configured API version, v3 when unset.
func (c *Config) Version() APIVersion {
	if c.APIVersion == "" {
		return APIVersionV3
	}
	return c.APIVersion
}
