package config

import (
	"cmp"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// ResolverConfig says where configuration comes from.
type ResolverConfig struct {
	// EnvPrefix is prepended to upper-cased keys for environment lookup.
	EnvPrefix string

	// GlobalConfigDir names the directory under ~/.config holding
	// GlobalConfigFile, which defaults to config.yaml.
	GlobalConfigDir  string
	GlobalConfigFile string

	// LocalConfigName is the file looked up in the git root.
	LocalConfigName string

	Defaults map[string]string

	// ValidKeys restricts which file keys are honoured. Nil allows all.
	ValidKeys []string

	// GitRootFinder locates the repository root. Nil walks up from the
	// working directory looking for .git.
	GitRootFinder func(startDir string) (string, error)

	// ErrWriter receives warnings. Defaults to os.Stderr.
	ErrWriter io.Writer
}

// Default returns the agdt resolver configuration.
func Default() ResolverConfig {
	return ResolverConfig{
		EnvPrefix:       "AGDT_",
		GlobalConfigDir: "agdt",
		LocalConfigName: ".agdt.yaml",
		Defaults:        maps.Clone(defaults),
		ValidKeys:       Keys(),
	}
}

// Resolver merges, lowest priority first: defaults, the global file, the
// local file, the environment and flags.
type Resolver struct {
	cfg        ResolverConfig
	globalPath string
	localPath  string
	gitRoot    string

	// Warnings collects non-fatal problems such as unparseable files.
	Warnings []string
}

// NewResolver locates the global and local files for cfg.
func NewResolver(cfg ResolverConfig) *Resolver {
	find := cfg.GitRootFinder
	if find == nil {
		find = walkUpToGit
	}
	root, err := find(".")
	if err != nil {
		root = ""
	}

	var global, local string
	if root != "" && cfg.LocalConfigName != "" {
		local = filepath.Join(root, cfg.LocalConfigName)
	}
	if cfg.GlobalConfigDir != "" {
		if home, err := os.UserHomeDir(); err == nil {
			file := cmp.Or(cfg.GlobalConfigFile, "config.yaml")
			global = filepath.Join(home, ".config", cfg.GlobalConfigDir, file)
		}
	}

	r := NewResolverWithPaths(cfg, global, local)
	r.gitRoot = root
	return r
}

// NewResolverWithPaths uses explicit file paths. Either may be empty. The
// git root is taken to be the local file's directory.
func NewResolverWithPaths(cfg ResolverConfig, globalPath, localPath string) *Resolver {
	if cfg.ErrWriter == nil {
		cfg.ErrWriter = os.Stderr
	}
	r := &Resolver{cfg: cfg, globalPath: globalPath, localPath: localPath}
	if localPath != "" {
		r.gitRoot = filepath.Dir(localPath)
	}
	return r
}

func (r *Resolver) GitRoot() string    { return r.gitRoot }
func (r *Resolver) GlobalPath() string { return r.globalPath }
func (r *Resolver) LocalPath() string  { return r.localPath }

func (r *Resolver) warnf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	r.Warnings = append(r.Warnings, msg)
	fmt.Fprintf(r.cfg.ErrWriter, "Warning: %s\n", msg)
}

// Resolve merges every layer except flags.
func (r *Resolver) Resolve() *Resolved {
	out := &Resolved{values: map[string]string{}, sources: map[string]Source{}}
	out.merge(r.cfg.Defaults, SourceDefault)
	out.merge(r.readFile(r.globalPath), SourceGlobal)
	out.merge(r.readFile(r.localPath), SourceLocal)
	out.merge(r.readEnv(out), SourceEnv)
	return out
}

// ResolveWithFlags resolves and then applies the non-empty flag values.
func (r *Resolver) ResolveWithFlags(flags map[string]string) *Resolved {
	out := r.Resolve()
	out.merge(flags, SourceFlag)
	return out
}

// readFile returns the scalar keys of a YAML file. A missing file is not
// an error; anything else unusable is reported as a warning.
func (r *Resolver) readFile(path string) map[string]string {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	var doc map[string]yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		r.warnf("could not parse %s: %v", path, err)
		return nil
	}

	values := make(map[string]string, len(doc))
	for _, key := range slices.Sorted(maps.Keys(doc)) {
		node := doc[key]
		switch {
		case r.cfg.ValidKeys != nil && !slices.Contains(r.cfg.ValidKeys, key):
			r.warnf("%s: unknown key %q ignored", path, key)
		case node.Tag == "!!null":
		case node.Kind != yaml.ScalarNode:
			r.warnf("%s: %s must be a single value", path, key)
		default:
			values[key] = node.Value
		}
	}
	return values
}

// readEnv looks up every key any layer or the key list knows about, plus
// NO_COLOR (https://no-color.org) under its own name.
func (r *Resolver) readEnv(sofar *Resolved) map[string]string {
	values := map[string]string{}
	if r.cfg.EnvPrefix != "" {
		keys := slices.Concat(slices.Collect(maps.Keys(r.cfg.Defaults)), r.cfg.ValidKeys, sofar.Keys())
		for _, key := range keys {
			name := r.cfg.EnvPrefix + strings.ToUpper(strings.ReplaceAll(key, "-", "_"))
			values[key] = os.Getenv(name)
		}
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		values[KeyNoColor] = "true"
	}
	return values
}

// Resolved is the merged configuration.
type Resolved struct {
	values  map[string]string
	sources map[string]Source
}

// merge applies the non-empty values of a layer.
func (c *Resolved) merge(layer map[string]string, source Source) {
	for key, value := range layer {
		if value != "" {
			c.values[key] = value
			c.sources[key] = source
		}
	}
}

// Get returns the value for key, or "" when unset.
func (c *Resolved) Get(key string) string { return c.values[key] }

// Source returns the layer that supplied key.
func (c *Resolved) Source(key string) Source { return c.sources[key] }

func (c *Resolved) GetWithSource(key string) (string, Source) {
	return c.values[key], c.sources[key]
}

// All returns a copy of every resolved value.
func (c *Resolved) All() map[string]string { return maps.Clone(c.values) }

// Keys returns the resolved keys in sorted order.
func (c *Resolved) Keys() []string { return slices.Sorted(maps.Keys(c.values)) }

func walkUpToGit(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}
