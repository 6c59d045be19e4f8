package fspath

import (
	"context"
	"os"
	"slices"
	"strings"
)

// Environment is an immutable snapshot of a device's environment variables.
// Variable names are case-insensitive on Windows.
type Environment struct {
	osType OSType
	vars   map[string]string
}

// NewEnvironment returns an environment for osType holding a copy of vars.
func NewEnvironment(osType OSType, vars map[string]string) Environment {
	env := Environment{osType: osType, vars: make(map[string]string, len(vars))}
	for k, v := range vars {
		env.vars[env.key(k)] = v
	}
	return env
}

// ParseEnvironment builds an environment from "NAME=value" lines.
func ParseEnvironment(osType OSType, lines []string) Environment {
	vars := make(map[string]string, len(lines))
	for _, line := range lines {
		name, value, ok := strings.Cut(line, "=")
		if !ok || name == "" {
			continue
		}
		vars[name] = value
	}
	return NewEnvironment(osType, vars)
}

// SystemEnvironment returns the environment of the running process.
func SystemEnvironment() Environment {
	return ParseEnvironment(HostOS(), os.Environ())
}

func (e Environment) key(name string) string {
	if e.osType == OSTypeWindows {
		return strings.ToUpper(name)
	}
	return name
}

// OSType returns the OS family the environment belongs to.
func (e Environment) OSType() OSType { return e.osType }

// Len returns the number of variables.
func (e Environment) Len() int { return len(e.vars) }

// Get returns the value of name and whether it is set.
func (e Environment) Get(name string) (string, bool) {
	v, ok := e.vars[e.key(name)]
	return v, ok
}

// Value returns the value of name, or "" when unset.
func (e Environment) Value(name string) string {
	v, _ := e.Get(name)
	return v
}

// Has reports whether name is set.
func (e Environment) Has(name string) bool {
	_, ok := e.Get(name)
	return ok
}

// Set returns a copy of e with name set to value.
func (e Environment) Set(name, value string) Environment {
	next := NewEnvironment(e.osType, e.vars)
	next.vars[next.key(name)] = value
	return next
}

// Names returns the sorted variable names.
func (e Environment) Names() []string {
	names := make([]string, 0, len(e.vars))
	for k := range e.vars {
		names = append(names, k)
	}
	slices.Sort(names)
	return names
}

// PathEntries splits PATH with the OS list separator, skipping empty entries.
func (e Environment) PathEntries() []string {
	var entries []string
	for _, entry := range strings.Split(e.Value("PATH"), e.osType.PathListSeparator()) {
		if entry != "" {
			entries = append(entries, entry)
		}
	}
	return entries
}

// SearchInDirectories looks for an executable called name in dirs and then
// in the PATH of env. Candidates are paths on the device of template and
// are checked with IsExecutableFile. On Windows the ".exe" suffix is tried
// when name has none. Returns the empty path if nothing is found.
//
// Devices without a faster lookup can implement SearchInPath with it.
func SearchInDirectories(ctx context.Context, template FilePath, name string, env Environment, dirs []FilePath) FilePath {
	if name == "" {
		return FilePath{}
	}
	candidates := []string{name}
	if suffix := env.OSType().ExecutableSuffix(); suffix != "" && !strings.HasSuffix(strings.ToLower(name), suffix) {
		candidates = append(candidates, name+suffix)
	}

	// An absolute name is checked as is.
	if direct := FromString(name).OnDevice(template); direct.IsAbsolutePath() {
		for _, c := range candidates {
			if p := FromString(c).OnDevice(template); p.IsExecutableFile(ctx) {
				return p
			}
		}
		return FilePath{}
	}

	searchDirs := slices.Clone(dirs)
	for _, entry := range env.PathEntries() {
		searchDirs = append(searchDirs, Parse(entry, env.OSType()).OnDevice(template))
	}
	for _, dir := range searchDirs {
		for _, c := range candidates {
			if p := dir.PathAppended(c); p.IsExecutableFile(ctx) {
				return p
			}
		}
	}
	return FilePath{}
}
