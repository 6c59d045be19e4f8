package ghfs

import (
	"log/slog"

	"github.com/google/go-github/v67/github"

	"github.com/jmgilman/go/fspath/errors"
)

// DefaultScheme is the scheme a device serves when Config.Scheme is empty.
const DefaultScheme = "github"

// Config holds GitHub device configuration.
type Config struct {
	// Scheme is the scheme served by the device (default "github").
	Scheme string `yaml:"scheme" json:"scheme"`

	// Token authenticates API requests. Anonymous clients can only read
	// public repositories.
	Token string `yaml:"token" json:"token"`

	// BaseURL selects a GitHub Enterprise server, e.g.
	// "https://github.example.com/api/v3/". Empty means github.com.
	BaseURL string `yaml:"baseURL" json:"baseURL"`

	// CommitPrefix starts the message of every commit the device creates.
	CommitPrefix string `yaml:"commitPrefix" json:"commitPrefix"`

	// Client is an optional pre-configured client. Token and BaseURL are
	// ignored when it is set.
	Client *github.Client `yaml:"-" json:"-"`

	// Logger receives debug diagnostics. Nil discards them.
	Logger *slog.Logger `yaml:"-" json:"-"`
}

func (c *Config) client() (*github.Client, error) {
	if c.Client != nil {
		return c.Client, nil
	}
	client := github.NewClient(nil)
	if c.Token != "" {
		client = client.WithAuthToken(c.Token)
	}
	if c.BaseURL != "" {
		var err error
		client, err = client.WithEnterpriseURLs(c.BaseURL, c.BaseURL)
		if err != nil {
			return nil, errors.WithContext(errors.Wrap(err, errors.CodeInvalidConfig, "invalid base URL"), "baseURL", c.BaseURL)
		}
	}
	return client, nil
}
