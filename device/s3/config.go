package s3

import (
	"log/slog"

	"github.com/minio/minio-go/v7"

	"github.com/jmgilman/go/fspath/errors"
)

const (
	// DefaultScheme is the scheme a device serves when Config.Scheme is empty.
	DefaultScheme = "s3"

	defaultPartSize    = 5 * 1024 * 1024
	defaultConcurrency = 10
)

// Config holds S3 device configuration. The bucket is not part of the
// configuration: it is the host of each path, as in "s3://bucket/key".
type Config struct {
	// Scheme is the scheme served by the device (default "s3").
	Scheme string `yaml:"scheme" json:"scheme"`

	// Endpoint is the server address (e.g., "localhost:9000").
	Endpoint string `yaml:"endpoint" json:"endpoint"`

	// AccessKey is the access key ID for authentication.
	AccessKey string `yaml:"accessKey" json:"accessKey"`

	// SecretKey is the secret access key for authentication.
	SecretKey string `yaml:"secretKey" json:"secretKey"`

	// UseSSL enables HTTPS connections.
	UseSSL bool `yaml:"useSSL" json:"useSSL"`

	// Region is the bucket region; empty lets the client discover it.
	Region string `yaml:"region" json:"region"`

	// Prefix is an optional key prefix applied in every bucket.
	Prefix string `yaml:"prefix" json:"prefix"`

	// PartSize is the multipart upload part size. Zero means 5MB.
	PartSize uint64 `yaml:"partSize" json:"partSize"`

	// MaxConcurrency bounds concurrent object operations during directory
	// renames and asynchronous transfers. Zero means 10.
	MaxConcurrency int `yaml:"maxConcurrency" json:"maxConcurrency"`

	// Client is an optional pre-configured client.
	// If provided, Endpoint, AccessKey, SecretKey and Region are ignored.
	Client *minio.Client `yaml:"-" json:"-"`

	// Logger receives debug diagnostics. Nil discards them.
	Logger *slog.Logger `yaml:"-" json:"-"`
}

// validate checks that either Client or Endpoint with credentials is set.
func (c *Config) validate() error {
	if c.MaxConcurrency < 0 {
		return errors.New(errors.CodeInvalidConfig, "max concurrency must not be negative")
	}
	if c.Client != nil {
		return nil
	}
	if c.Endpoint == "" {
		return errors.New(errors.CodeInvalidConfig, "endpoint is required when client is not provided")
	}
	if c.AccessKey == "" {
		return errors.New(errors.CodeInvalidConfig, "access key is required when client is not provided")
	}
	if c.SecretKey == "" {
		return errors.New(errors.CodeInvalidConfig, "secret key is required when client is not provided")
	}
	return nil
}
