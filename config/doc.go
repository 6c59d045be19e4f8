// Package config builds fspath devices from a configuration file.
//
// A configuration lists devices by scheme and type. The same document can
// be written in YAML (or JSON) or in CUE; both are checked against the CUE
// schema in Schema, so typos in keys and out-of-range values are reported
// before any device is created.
//
//	devices:
//	  - scheme: scratch
//	    type: memory
//	  - scheme: artifacts
//	    type: s3
//	    s3:
//	      endpoint: minio.internal:9000
//	      accessKey: ci
//	      secretKey: minio-secret
//	  - scheme: build
//	    type: sftp
//	    sftp:
//	      user: deploy
//	      privateKeyPath: ~/.ssh/id_ed25519
//	      timeout: 10s
//	  - scheme: docker
//	    type: docker
//
// The file itself may live on any device:
//
//	f, err := config.Load(ctx, fspath.FromUserInput("~/.config/fspath/devices.cue"))
//	if err != nil {
//	    return err
//	}
//	if err := f.Install(fspath.Default()); err != nil {
//	    return err
//	}
//
// Device types are "memory" and "disk" (go-billy memfs and osfs), "s3",
// "sftp", "docker", "git" and "github". A git device serves the
// repositories found below its baseDir.
package config
