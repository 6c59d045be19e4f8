package sftpfs

import (
	"log/slog"
	"time"

	"github.com/jmgilman/go/fspath/errors"
)

const (
	// DefaultScheme is the scheme a device serves when Config.Scheme is empty.
	DefaultScheme = "sftp"

	defaultPort        = 22
	defaultTimeout     = 30 * time.Second
	defaultConcurrency = 8
)

// Config holds SFTP device configuration. The remote server is not part of
// the configuration: it is the host of each path, as in
// "sftp://user@example.com:2222/srv/data". User and port in the host take
// precedence over User and Port.
type Config struct {
	// Scheme is the scheme served by the device (default "sftp").
	Scheme string `yaml:"scheme" json:"scheme"`

	// User is the login name used when a host does not name one.
	User string `yaml:"user" json:"user"`

	// Password enables password authentication.
	Password string `yaml:"password" json:"password"`

	// PrivateKey is a PEM encoded private key.
	PrivateKey string `yaml:"privateKey" json:"privateKey"`

	// PrivateKeyPath points to a PEM encoded private key. A leading "~" is
	// expanded to the home directory.
	PrivateKeyPath string `yaml:"privateKeyPath" json:"privateKeyPath"`

	// Passphrase decrypts PrivateKey or PrivateKeyPath.
	Passphrase string `yaml:"passphrase" json:"passphrase"`

	// Port is used when a host does not name one (default 22).
	Port int `yaml:"port" json:"port"`

	// Timeout bounds connection setup (default 30s).
	Timeout time.Duration `yaml:"timeout" json:"timeout"`

	// KnownHostsPath is an OpenSSH known_hosts file used to verify servers
	// (default "~/.ssh/known_hosts").
	KnownHostsPath string `yaml:"knownHostsPath" json:"knownHostsPath"`

	// InsecureIgnoreHostKey disables server verification.
	InsecureIgnoreHostKey bool `yaml:"insecureIgnoreHostKey" json:"insecureIgnoreHostKey"`

	// MaxConcurrency bounds concurrent removals during recursive deletes.
	// Zero means 8.
	MaxConcurrency int `yaml:"maxConcurrency" json:"maxConcurrency"`

	// Logger receives debug diagnostics. Nil discards them.
	Logger *slog.Logger `yaml:"-" json:"-"`
}

func (c *Config) validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return errors.WithContext(errors.New(errors.CodeInvalidConfig, "port out of range"), "port", c.Port)
	}
	if c.MaxConcurrency < 0 {
		return errors.New(errors.CodeInvalidConfig, "max concurrency must not be negative")
	}
	if c.Timeout < 0 {
		return errors.New(errors.CodeInvalidConfig, "timeout must not be negative")
	}
	return nil
}

func (c *Config) setDefaults() {
	if c.Scheme == "" {
		c.Scheme = DefaultScheme
	}
	if c.Port == 0 {
		c.Port = defaultPort
	}
	if c.Timeout == 0 {
		c.Timeout = defaultTimeout
	}
	if c.MaxConcurrency == 0 {
		c.MaxConcurrency = defaultConcurrency
	}
	if c.KnownHostsPath == "" && !c.InsecureIgnoreHostKey {
		c.KnownHostsPath = "~/.ssh/known_hosts"
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.DiscardHandler)
	}
}
