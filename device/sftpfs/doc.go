// Package sftpfs provides an fspath.Device for remote hosts reachable over
// SSH and SFTP.
//
// The host of a path selects the server and, optionally, the login and port:
//
//	sftp://deploy@build.example.com:2222/srv/artifacts/app.tar.gz
//
// Missing parts fall back to Config.User and Config.Port. Servers are
// verified against an OpenSSH known_hosts file unless
// Config.InsecureIgnoreHostKey is set.
//
// # Usage
//
//	dev, err := sftpfs.New(sftpfs.Config{
//	    User:           "deploy",
//	    PrivateKeyPath: "~/.ssh/id_ed25519",
//	})
//	if err != nil {
//	    return err
//	}
//	defer dev.Close()
//
//	if err := fspath.Default().Register(dev); err != nil {
//	    return err
//	}
//	data, err := fspath.FromString("sftp://build.example.com/etc/hostname").ReadContents(ctx)
//
// # Connections
//
// One SSH connection is kept per host and checked with an OpenSSH keepalive
// before reuse. Close closes all of them. The same connection runs "env" and
// "uname -s" for Environment and OSType.
//
// # Writes
//
// WriteContents and CopyFile write to a hidden temporary file next to the
// target and rename it into place, using the posix-rename@openssh.com
// extension when the server offers it.
package sftpfs
