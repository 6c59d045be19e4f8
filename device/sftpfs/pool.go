package sftpfs

import (
	"context"
	"strings"
	"sync"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"

	"github.com/jmgilman/go/fspath"
	"github.com/jmgilman/go/fspath/errors"
)

// conn is one pooled connection. ssh is nil for clients supplied with
// WithClient, which disables remote commands.
type conn struct {
	ssh  *ssh.Client
	sftp *sftp.Client

	once   sync.Once
	osType fspath.OSType
	home   string
}

func (c *conn) close() {
	_ = c.sftp.Close()
	if c.ssh != nil {
		_ = c.ssh.Close()
	}
}

// alive sends an OpenSSH keepalive. Injected clients are assumed alive.
func (c *conn) alive() bool {
	if c.ssh == nil {
		return true
	}
	_, _, err := c.ssh.SendRequest("keepalive@openssh.com", true, nil)
	return err == nil
}

// run executes cmd in a new session and returns its standard output.
func (c *conn) run(cmd string) ([]byte, error) {
	if c.ssh == nil {
		return nil, fspath.ErrNotSupported
	}
	session, err := c.ssh.NewSession()
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeNetwork, "failed to open ssh session")
	}
	defer func() { _ = session.Close() }()

	out, err := session.Output(cmd)
	if err != nil {
		return nil, errors.WithContext(errors.Wrap(err, errors.CodeExecutionFailed, "remote command failed"), "command", cmd)
	}
	return out, nil
}

// probe caches the remote OS type and home directory on first use.
func (c *conn) probe() {
	c.once.Do(func() {
		c.osType = fspath.OSTypeOtherUnix
		if out, err := c.run("uname -s"); err == nil {
			switch strings.TrimSpace(string(out)) {
			case "Linux":
				c.osType = fspath.OSTypeLinux
			case "Darwin":
				c.osType = fspath.OSTypeMac
			}
		}
		if wd, err := c.sftp.Getwd(); err == nil {
			c.home = wd
		}
	})
}

// connect returns the pooled connection for host, dialing when none is
// cached or the cached one no longer answers keepalives.
func (d *Device) connect(ctx context.Context, host string) (*conn, error) {
	d.mu.Lock()
	if c, ok := d.conns[host]; ok {
		if c.alive() {
			d.mu.Unlock()
			return c, nil
		}
		d.logger.Debug("dropping dead sftp connection", "host", host)
		c.close()
		delete(d.conns, host)
	}
	d.mu.Unlock()

	ep, err := parseHost(host, &d.cfg)
	if err != nil {
		return nil, err
	}
	sshClient, err := dialSSH(ctx, &d.cfg, ep)
	if err != nil {
		return nil, err
	}
	sftpClient, err := sftp.NewClient(sshClient)
	if err != nil {
		_ = sshClient.Close()
		return nil, errors.WithContext(errors.Wrap(err, errors.CodeNetwork, "failed to start sftp subsystem"), "host", host)
	}
	d.logger.Debug("opened sftp connection", "host", host, "addr", ep.addr)

	c := &conn{ssh: sshClient, sftp: sftpClient}
	d.mu.Lock()
	defer d.mu.Unlock()
	if existing, ok := d.conns[host]; ok {
		c.close()
		return existing, nil
	}
	d.conns[host] = c
	return c, nil
}

// Close closes every pooled connection.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for host, c := range d.conns {
		c.close()
		delete(d.conns, host)
	}
	return nil
}
