package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/sentmon/sentmon/sentmon"
	"github.com/sentmon/sentmon/sentmon/config"
	"github.com/sentmon/sentmon/sentmon/journal"
)

const journalName = "journal.json"

func main() {
	opts := config.Defaults()

	root := &cobra.Command{
		Use:           "sentmon",
		Short:         "supervise a worker process driven by restart/stop sentinel files",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		Run: func(cmd *cobra.Command, _ []string) {
			code, err := run(opts, cmd)
			if err != nil {
				log.Println(err)
			}
			os.Exit(code)
		},
	}

	root.PersistentFlags().StringVarP(&opts.ConfigDir, "config", "c", opts.ConfigDir,
		"directory containing the configuration")
	bindRunFlags(root, opts)
	root.AddCommand(newLogCmd(opts))

	if err := root.Execute(); err != nil {
		log.Fatalln(err)
	}
}

// bindRunFlags registers the supervisor flags minus --config, which is
// persistent so the log subcommand shares it.
func bindRunFlags(cmd *cobra.Command, opts *config.Options) {
	fs := cmd.Flags()
	fs.IntVarP(&opts.Port, "port", "p", opts.Port, "port number the worker should listen on")
	fs.BoolVar(&opts.NoUpdate, "no-update", opts.NoUpdate, "disable update functionality")
	fs.BoolVar(&opts.Debug, "debug", opts.Debug, "enable console debugging")
	fs.BoolVar(&opts.ReleaseUpdate, "release-update", opts.ReleaseUpdate, "enable file based updater")
	fs.BoolVar(&opts.Dev, "dev", opts.Dev, "enable developer mode")
	fs.BoolVar(&opts.NoTasks, "no-tasks", opts.NoTasks, "disable all tasks")
	fs.BoolVar(&opts.NoSignalR, "no-signalr", opts.NoSignalR, "disable SignalR connections")
	fs.BoolVar(&opts.CreateDBRevision, "create-db-revision", opts.CreateDBRevision, "create a new database revision")
	fs.StringVar(&opts.Worker, "worker", opts.Worker, "worker executable to supervise")
	fs.DurationVar(&opts.PollInterval, "poll-interval", opts.PollInterval, "sentinel poll interval")
}

func run(opts *config.Options, cmd *cobra.Command) (int, error) {
	if err := config.Load(opts, cmd.Flags()); err != nil {
		return 1, err
	}
	if opts.ConfigDir == "" {
		return 1, errors.New("missing -c path to configuration directory")
	}
	if err := os.MkdirAll(opts.ConfigDir, 0750); err != nil {
		return 1, errors.Wrap(err, "failed to create configuration directory")
	}

	// Preflight: the worker executable must resolve before anything is
	// locked or spawned.
	workerPath, err := exec.LookPath(opts.Worker)
	if err != nil {
		fmt.Fprintf(os.Stderr, "worker executable %q not found; install it or point --worker at it\n", opts.Worker)
		fmt.Fprintf(os.Stderr, "sentmon exited with status code %d.\n", sentmon.ExitPreflight)
		return sentmon.ExitPreflight, nil
	}

	j, err := journal.NewFileLockJournaler(filepath.Join(opts.ConfigDir, journalName))
	if err != nil {
		if errors.Is(err, journal.ErrLockedElsewhere) {
			// Non-fatal: another supervisor owns this directory.
			log.Println("sentmon is already running for", opts.ConfigDir)
			return sentmon.ExitNormal, nil
		}

		return 1, errors.Wrap(err, "failed to acquire journal lock")
	}
	defer j.Close()

	sink := journal.MultiWriter(j, journal.NewHumanWriter(os.Stderr))
	sink.Write(&sentmon.EventAcquired{})

	// SIGINT belongs to the interrupt bridge; only SIGTERM tears the
	// loop down through the context.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	// The worker sees every supervisor argument, the same way it would
	// have been invoked directly.
	argv := append([]string{workerPath}, opts.WorkerArgs...)
	argv = append(argv, os.Args[1:]...)

	sup := sentmon.New(opts.ConfigDir, argv, sink)
	sup.Interval = opts.PollInterval

	code, err := sup.Run(ctx)
	if err != nil {
		return 1, err
	}

	return code, nil
}

func newLogCmd(opts *config.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "log",
		Short: "print the supervision journal of a configuration directory",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			r, err := journal.OpenReader(filepath.Join(opts.ConfigDir, journalName))
			if err != nil {
				return err
			}
			defer r.Close()

			for {
				ev, t, err := r.Read()
				if errors.Is(err, io.EOF) {
					return nil
				}
				if err != nil {
					return errors.Wrap(err, "failed to read journal")
				}

				fmt.Println(journal.Format(t, ev))
			}
		},
	}
}
