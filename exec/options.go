package exec

import (
	"maps"
	"time"
)

// config distinguishes settings given to New (global) from settings for
// the next run (local). Local settings win and are cleared after each run.
type config struct {
	globalEnv        map[string]string
	globalDir        string
	globalInheritEnv bool
	globalTimeout    time.Duration

	localEnv        map[string]string
	localDir        string
	localInheritEnv *bool
	localTimeout    *time.Duration
}

func newConfig() *config {
	return &config{
		globalEnv: make(map[string]string),
		localEnv:  make(map[string]string),
	}
}

func (c *config) clone() *config {
	clone := &config{
		globalEnv:        maps.Clone(c.globalEnv),
		globalDir:        c.globalDir,
		globalInheritEnv: c.globalInheritEnv,
		globalTimeout:    c.globalTimeout,
		localEnv:         maps.Clone(c.localEnv),
		localDir:         c.localDir,
	}
	if c.localInheritEnv != nil {
		v := *c.localInheritEnv
		clone.localInheritEnv = &v
	}
	if c.localTimeout != nil {
		v := *c.localTimeout
		clone.localTimeout = &v
	}
	return clone
}

// effectiveEnv merges global and local variables, local winning.
func (c *config) effectiveEnv() map[string]string {
	env := maps.Clone(c.globalEnv)
	maps.Copy(env, c.localEnv)
	return env
}

func (c *config) effectiveDir() string {
	if c.localDir != "" {
		return c.localDir
	}
	return c.globalDir
}

func (c *config) effectiveInheritEnv() bool {
	if c.localInheritEnv != nil {
		return *c.localInheritEnv
	}
	return c.globalInheritEnv
}

func (c *config) effectiveTimeout() time.Duration {
	if c.localTimeout != nil {
		return *c.localTimeout
	}
	return c.globalTimeout
}

// resetLocal is called after every Run.
func (c *config) resetLocal() {
	c.localEnv = make(map[string]string)
	c.localDir = ""
	c.localInheritEnv = nil
	c.localTimeout = nil
}
