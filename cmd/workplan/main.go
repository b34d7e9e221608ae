// Package main provides the workplan CLI entrypoint.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/joss/workplan/internal/backup"
	"github.com/joss/workplan/internal/config"
	"github.com/joss/workplan/internal/log"
	"github.com/joss/workplan/internal/planning"
	"github.com/joss/workplan/internal/store"
)

var (
	version   = "0.1.0"
	pretty    = true
	dirFlag   string
	storeFlag string
	lockFlag  bool
)

func main() {
	config.LoadEnvFile()

	rootCmd := &cobra.Command{
		Use:   "workplan",
		Short: "Task-dependency workflow engine with a durable plan store",
		Long: `workplan tracks a multi-phase body of work as a graph of tasks with
dependencies, answers "what should I work on next", and persists every
state change durably.

Use 'workplan init' to create a plan, 'workplan add' to add tasks,
'workplan next' to pick the next eligible task, and 'workplan status'
for progress.`,
	}

	rootCmd.PersistentFlags().BoolVar(&pretty, "pretty", true, "Pretty print output")
	rootCmd.PersistentFlags().StringVar(&dirFlag, "dir", "", "Plan directory (default ./"+config.DefaultDirName+")")
	rootCmd.PersistentFlags().StringVar(&storeFlag, "store", "", "Persistence backend: file or sqlite")
	rootCmd.PersistentFlags().BoolVar(&lockFlag, "lock", false, "Guard mutating commands with an advisory lock file")

	rootCmd.AddGroup(
		&cobra.Group{ID: "plan", Title: "Planning:"},
		&cobra.Group{ID: "task", Title: "Tasks:"},
		&cobra.Group{ID: "data", Title: "Data:"},
	)

	for _, c := range []*cobra.Command{initCmd(), showCmd(), statusCmd(), nextCmd(), validateCmd()} {
		c.GroupID = "plan"
		rootCmd.AddCommand(c)
	}

	for _, c := range []*cobra.Command{startCmd(), doneCmd(), failCmd(), blockCmd(), addCmd()} {
		c.GroupID = "task"
		rootCmd.AddCommand(c)
	}

	for _, c := range []*cobra.Command{backupCmd(), historyCmd(), memoryCmd()} {
		c.GroupID = "data"
		rootCmd.AddCommand(c)
	}

	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newEngine wires the configured store, the optional advisory lock, and the
// backup manager, then loads the persisted plan. The returned release func
// must run before exit.
func newEngine(needLock bool) (*planning.Engine, func(), error) {
	dir := config.ResolveDir(dirFlag)
	if err := config.EnsureDir(dir); err != nil {
		return nil, nil, err
	}

	backend := storeFlag
	if backend == "" {
		backend = config.Env().Store
	}

	release := func() {}
	if needLock && (lockFlag || config.Env().Lock) {
		lk := store.NewFileLock(filepath.Join(dir, ".lock"))
		if err := lk.Acquire(); err != nil {
			return nil, nil, err
		}
		release = func() { lk.Release() }
	}

	var st planning.PlanStore
	switch backend {
	case "sqlite":
		sq, err := store.NewSQLStore(dir)
		if err != nil {
			release()
			return nil, nil, err
		}
		prev := release
		release = func() {
			sq.Close()
			prev()
		}
		st = sq
	case "", "file":
		fs, err := store.NewFileStore(dir)
		if err != nil {
			release()
			return nil, nil, err
		}
		st = fs
	default:
		release()
		return nil, nil, fmt.Errorf("unknown store backend %q", backend)
	}

	mgr := backup.NewManager(dir, filepath.Join(dir, "backups"))
	eng := planning.NewEngine(st,
		planning.WithBackups(mgr),
		planning.WithSessionID(config.Env().SessionID),
	)
	if _, err := eng.Load(); err != nil {
		release()
		return nil, nil, err
	}
	return eng, release, nil
}

// record appends the interaction to the history log. A logging failure
// must not fail the command that already succeeded, so it only warns.
func record(eng *planning.Engine, intent, outcome string) {
	input := strings.Join(os.Args[1:], " ")
	if err := eng.RecordInteraction(input, intent, outcome); err != nil {
		log.GetLogger().WithError(err).Warn("history append failed")
	}
}

// barWidth sizes the progress bar from the terminal, bounded so narrow and
// very wide terminals both stay readable.
func barWidth() int {
	fd := int(os.Stdout.Fd())
	if term.IsTerminal(fd) {
		if w, _, err := term.GetSize(fd); err == nil {
			w /= 3
			if w < 10 {
				return 10
			}
			if w > 60 {
				return 60
			}
			return w
		}
	}
	return 20
}

// osExit is swapped out by tests that assert on exit behavior.
var osExit = os.Exit

func exitErr(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	osExit(1)
}

// exitOnError releases held resources before exiting, since os.Exit
// skips deferred calls and would otherwise leave the lock file behind.
func exitOnError(release func(), err error) {
	release()
	exitErr(err)
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show workplan version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("workplan version %s\n", version)
		},
	}
}
