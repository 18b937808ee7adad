// Package config resolves the supervisor's options from flags, the
// environment, and an optional TOML file in the configuration
// directory. Precedence: flags explicitly set > environment > file >
// defaults.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
)

// FileName is the optional per-directory configuration file.
const FileName = "sentmon.toml"

// Environment overrides.
const (
	EnvNoUpdate = "SENTMON_NO_UPDATE"
	EnvWorker   = "SENTMON_WORKER"
)

// Options is the resolved configuration. The supervisor core only
// consumes ConfigDir, Worker and PollInterval; the rest rides along to
// the worker on its command line.
type Options struct {
	ConfigDir string
	Port      int

	NoUpdate         bool
	Debug            bool
	ReleaseUpdate    bool
	Dev              bool
	NoTasks          bool
	NoSignalR        bool
	CreateDBRevision bool

	Worker       string
	WorkerArgs   []string
	PollInterval time.Duration
}

// Defaults returns the built-in option values. The default
// configuration directory lives under the user configuration dir.
func Defaults() *Options {
	var dir string
	if cfg, err := os.UserConfigDir(); err == nil {
		dir = filepath.Join(cfg, "sentmon")
	}

	return &Options{
		ConfigDir:    dir,
		Port:         6767,
		Worker:       "sentmon-worker",
		PollInterval: 5 * time.Second,
	}
}

// fileOptions mirrors Options for the TOML file. Pointer fields tell
// absent keys apart from zero values.
type fileOptions struct {
	Port             *int     `toml:"port"`
	NoUpdate         *bool    `toml:"no_update"`
	Debug            *bool    `toml:"debug"`
	ReleaseUpdate    *bool    `toml:"release_update"`
	Dev              *bool    `toml:"dev"`
	NoTasks          *bool    `toml:"no_tasks"`
	NoSignalR        *bool    `toml:"no_signalr"`
	CreateDBRevision *bool    `toml:"create_db_revision"`
	Worker           *string  `toml:"worker"`
	WorkerArgs       []string `toml:"worker_args"`
	PollInterval     *string  `toml:"poll_interval"`
}

// Load merges the optional TOML file and the environment into o. A flag
// the user set explicitly on fs is never overwritten; fs may be nil.
func Load(o *Options, fs *pflag.FlagSet) error {
	changed := func(name string) bool {
		return fs != nil && fs.Changed(name)
	}

	path := filepath.Join(o.ConfigDir, FileName)
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		var f fileOptions
		if err := toml.Unmarshal(data, &f); err != nil {
			return errors.Wrapf(err, "failed to parse %s", path)
		}
		if err := applyFile(o, &f, changed); err != nil {
			return err
		}
	case os.IsNotExist(err):
		// No file is fine.
	default:
		return errors.Wrapf(err, "failed to read %s", path)
	}

	if v, ok := os.LookupEnv(EnvNoUpdate); ok && !changed("no-update") {
		o.NoUpdate = strings.TrimSpace(v) == "true"
	}
	if v := os.Getenv(EnvWorker); v != "" && !changed("worker") {
		o.Worker = v
	}

	if o.PollInterval <= 0 {
		o.PollInterval = 5 * time.Second
	}

	return nil
}

func applyFile(o *Options, f *fileOptions, changed func(string) bool) error {
	if f.Port != nil && !changed("port") {
		o.Port = *f.Port
	}
	if f.NoUpdate != nil && !changed("no-update") {
		o.NoUpdate = *f.NoUpdate
	}
	if f.Debug != nil && !changed("debug") {
		o.Debug = *f.Debug
	}
	if f.ReleaseUpdate != nil && !changed("release-update") {
		o.ReleaseUpdate = *f.ReleaseUpdate
	}
	if f.Dev != nil && !changed("dev") {
		o.Dev = *f.Dev
	}
	if f.NoTasks != nil && !changed("no-tasks") {
		o.NoTasks = *f.NoTasks
	}
	if f.NoSignalR != nil && !changed("no-signalr") {
		o.NoSignalR = *f.NoSignalR
	}
	if f.CreateDBRevision != nil && !changed("create-db-revision") {
		o.CreateDBRevision = *f.CreateDBRevision
	}
	if f.Worker != nil && !changed("worker") {
		o.Worker = *f.Worker
	}
	if len(f.WorkerArgs) > 0 {
		o.WorkerArgs = f.WorkerArgs
	}
	if f.PollInterval != nil && !changed("poll-interval") {
		d, err := time.ParseDuration(*f.PollInterval)
		if err != nil {
			return errors.Wrap(err, "invalid poll_interval")
		}
		o.PollInterval = d
	}

	return nil
}
