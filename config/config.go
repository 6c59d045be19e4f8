package config

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jmgilman/go/fspath"
	"github.com/jmgilman/go/fspath/errors"
)

// Device types understood by Build.
const (
	TypeMemory = "memory"
	TypeDisk   = "disk"
	TypeS3     = "s3"
	TypeSFTP   = "sftp"
	TypeDocker = "docker"
	TypeGit    = "git"
	TypeGitHub = "github"
)

// File is a device configuration document:
//
//	devices:
//	  - scheme: mem
//	    type: memory
//	  - scheme: s3
//	    type: s3
//	    s3:
//	      endpoint: localhost:9000
//	      accessKey: minioadmin
//	      secretKey: minioadmin
type File struct {
	Devices []DeviceSpec `yaml:"devices" json:"devices"`
}

// DeviceSpec describes one device. Only the block matching Type is used.
type DeviceSpec struct {
	Scheme string `yaml:"scheme" json:"scheme"`
	Type   string `yaml:"type" json:"type"`

	// BaseDir is the directory holding one subdirectory per host (disk) or
	// one repository per host (git).
	BaseDir string `yaml:"baseDir,omitempty" json:"baseDir,omitempty"`

	S3     *S3Spec     `yaml:"s3,omitempty" json:"s3,omitempty"`
	SFTP   *SFTPSpec   `yaml:"sftp,omitempty" json:"sftp,omitempty"`
	Docker *DockerSpec `yaml:"docker,omitempty" json:"docker,omitempty"`
	GitHub *GitHubSpec `yaml:"github,omitempty" json:"github,omitempty"`
}

// S3Spec configures an s3 device.
type S3Spec struct {
	Endpoint       string `yaml:"endpoint,omitempty" json:"endpoint,omitempty"`
	AccessKey      string `yaml:"accessKey,omitempty" json:"accessKey,omitempty"`
	SecretKey      string `yaml:"secretKey,omitempty" json:"secretKey,omitempty"`
	UseSSL         bool   `yaml:"useSSL,omitempty" json:"useSSL,omitempty"`
	Region         string `yaml:"region,omitempty" json:"region,omitempty"`
	Prefix         string `yaml:"prefix,omitempty" json:"prefix,omitempty"`
	PartSize       uint64 `yaml:"partSize,omitempty" json:"partSize,omitempty"`
	MaxConcurrency int    `yaml:"maxConcurrency,omitempty" json:"maxConcurrency,omitempty"`
}

// SFTPSpec configures an sftp device. Timeout is a Go duration string.
type SFTPSpec struct {
	User                  string `yaml:"user,omitempty" json:"user,omitempty"`
	Password              string `yaml:"password,omitempty" json:"password,omitempty"`
	PrivateKey            string `yaml:"privateKey,omitempty" json:"privateKey,omitempty"`
	PrivateKeyPath        string `yaml:"privateKeyPath,omitempty" json:"privateKeyPath,omitempty"`
	Passphrase            string `yaml:"passphrase,omitempty" json:"passphrase,omitempty"`
	Port                  int    `yaml:"port,omitempty" json:"port,omitempty"`
	Timeout               string `yaml:"timeout,omitempty" json:"timeout,omitempty"`
	KnownHostsPath        string `yaml:"knownHostsPath,omitempty" json:"knownHostsPath,omitempty"`
	InsecureIgnoreHostKey bool   `yaml:"insecureIgnoreHostKey,omitempty" json:"insecureIgnoreHostKey,omitempty"`
	MaxConcurrency        int    `yaml:"maxConcurrency,omitempty" json:"maxConcurrency,omitempty"`
}

// DockerSpec configures a docker device. Timeout is a Go duration string.
type DockerSpec struct {
	Binary  string `yaml:"binary,omitempty" json:"binary,omitempty"`
	User    string `yaml:"user,omitempty" json:"user,omitempty"`
	Timeout string `yaml:"timeout,omitempty" json:"timeout,omitempty"`
}

// GitHubSpec configures a github device.
type GitHubSpec struct {
	Token        string `yaml:"token,omitempty" json:"token,omitempty"`
	BaseURL      string `yaml:"baseURL,omitempty" json:"baseURL,omitempty"`
	CommitPrefix string `yaml:"commitPrefix,omitempty" json:"commitPrefix,omitempty"`
}

// ParseYAML decodes and validates a YAML (or JSON) document. Unknown keys
// are rejected.
func ParseYAML(ctx context.Context, data []byte) (*File, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !stderrors.Is(err, io.EOF) {
		return nil, errors.Wrap(err, errors.CodeInvalidConfig, "failed to parse device configuration")
	}
	if err := f.Validate(ctx); err != nil {
		return nil, err
	}
	return &f, nil
}

// Load reads a configuration file from any device. Files ending in ".cue"
// are evaluated as CUE; everything else is parsed as YAML.
func Load(ctx context.Context, p fspath.FilePath) (*File, error) {
	data, err := p.ReadContents(ctx)
	if err != nil {
		return nil, errors.WithContext(err, "config", p.ToUserOutput())
	}
	if strings.EqualFold(p.Suffix(), "cue") {
		return ParseCUE(ctx, data, p.FileName())
	}
	return ParseYAML(ctx, data)
}

// EncodeYAML renders f as YAML.
func (f *File) EncodeYAML() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(f); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to encode device configuration")
	}
	if err := enc.Close(); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to encode device configuration")
	}
	return buf.Bytes(), nil
}
