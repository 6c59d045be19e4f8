package sftpfs

import (
	"context"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/mitchellh/go-homedir"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/jmgilman/go/fspath/errors"
)

// endpoint is a parsed path host of the form "[user@]host[:port]".
type endpoint struct {
	user string
	addr string
}

func parseHost(host string, cfg *Config) (endpoint, error) {
	if host == "" {
		return endpoint{}, errors.New(errors.CodeInvalidInput, "sftp path has no host")
	}
	ep := endpoint{user: cfg.User}
	if at := strings.LastIndexByte(host, '@'); at >= 0 {
		ep.user, host = host[:at], host[at+1:]
	}

	name, port := host, strconv.Itoa(cfg.Port)
	if h, p, err := net.SplitHostPort(host); err == nil {
		name, port = h, p
	}
	if name == "" {
		return endpoint{}, errors.WithContext(errors.New(errors.CodeInvalidInput, "sftp host has no server name"), "host", host)
	}
	if ep.user == "" {
		return endpoint{}, errors.WithContext(errors.New(errors.CodeInvalidConfig, "no user configured for host"), "host", host)
	}
	ep.addr = net.JoinHostPort(name, port)
	return ep, nil
}

func clientConfig(cfg *Config, user string) (*ssh.ClientConfig, error) {
	sc := &ssh.ClientConfig{
		User:    user,
		Timeout: cfg.Timeout,
	}

	if cfg.InsecureIgnoreHostKey {
		sc.HostKeyCallback = ssh.InsecureIgnoreHostKey()
	} else {
		file, err := homedir.Expand(cfg.KnownHostsPath)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeInvalidConfig, "failed to expand known hosts path")
		}
		callback, err := knownhosts.New(file)
		if err != nil {
			return nil, errors.WithContext(errors.Wrap(err, errors.CodeInvalidConfig, "failed to load known hosts"), "path", file)
		}
		sc.HostKeyCallback = callback
	}

	if cfg.Password != "" {
		sc.Auth = append(sc.Auth, ssh.Password(cfg.Password))
	}
	if cfg.PrivateKeyPath != "" {
		file, err := homedir.Expand(cfg.PrivateKeyPath)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeInvalidConfig, "failed to expand private key path")
		}
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, errors.WithContext(errors.FromFS(err, "failed to read private key"), "path", file)
		}
		signer, err := parsePrivateKey(data, cfg.Passphrase)
		if err != nil {
			return nil, err
		}
		sc.Auth = append(sc.Auth, ssh.PublicKeys(signer))
	}
	if cfg.PrivateKey != "" {
		signer, err := parsePrivateKey([]byte(cfg.PrivateKey), cfg.Passphrase)
		if err != nil {
			return nil, err
		}
		sc.Auth = append(sc.Auth, ssh.PublicKeys(signer))
	}
	if len(sc.Auth) == 0 {
		return nil, errors.New(errors.CodeInvalidConfig, "no authentication method configured")
	}
	return sc, nil
}

func parsePrivateKey(data []byte, passphrase string) (ssh.Signer, error) {
	var (
		signer ssh.Signer
		err    error
	)
	if passphrase == "" {
		signer, err = ssh.ParsePrivateKey(data)
	} else {
		signer, err = ssh.ParsePrivateKeyWithPassphrase(data, []byte(passphrase))
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidConfig, "failed to parse private key")
	}
	return signer, nil
}

// dialSSH opens an authenticated SSH connection to ep.
func dialSSH(ctx context.Context, cfg *Config, ep endpoint) (*ssh.Client, error) {
	sc, err := clientConfig(cfg, ep.user)
	if err != nil {
		return nil, err
	}

	dialer := &net.Dialer{Timeout: cfg.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", ep.addr)
	if err != nil {
		return nil, errors.WithContext(errors.FromFS(err, "failed to dial ssh server"), "addr", ep.addr)
	}
	c, chans, reqs, err := ssh.NewClientConn(conn, ep.addr, sc)
	if err != nil {
		_ = conn.Close()
		return nil, errors.WithContext(errors.Wrap(err, errors.CodeNetwork, "ssh handshake failed"), "addr", ep.addr)
	}
	return ssh.NewClient(c, chans, reqs), nil
}
