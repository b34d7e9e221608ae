package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joss/workplan/internal/render"
)

func backupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Snapshot management",
		Long:  "Create and list timestamped snapshots of the persisted plan documents",
	}

	createCmd := &cobra.Command{
		Use:   "create [label]",
		Short: "Snapshot the plan documents",
		Args:  cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			eng, release, err := newEngine(true)
			if err != nil {
				exitErr(err)
			}
			defer release()

			label := ""
			if len(args) > 0 {
				label = args[0]
			}

			dir, err := eng.CreateBackup(label)
			if err != nil {
				record(eng, "backup", "error: "+err.Error())
				exitOnError(release, err)
			}

			record(eng, "backup", "ok")
			fmt.Printf("✓ Backup created: %s\n", dir)
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List existing snapshots",
		Run: func(cmd *cobra.Command, args []string) {
			eng, release, err := newEngine(false)
			if err != nil {
				exitErr(err)
			}
			defer release()

			snaps, err := eng.ListBackups()
			if err != nil {
				exitOnError(release, err)
			}

			r := render.New(pretty)
			fmt.Print(r.Backups(snaps))
		},
	}

	cmd.AddCommand(createCmd, listCmd)
	return cmd
}

func historyCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent interactions",
		Run: func(cmd *cobra.Command, args []string) {
			eng, release, err := newEngine(false)
			if err != nil {
				exitErr(err)
			}
			defer release()

			entries, err := eng.History(limit)
			if err != nil {
				exitOnError(release, err)
			}

			r := render.New(pretty)
			fmt.Print(r.History(entries))
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of entries to show")
	return cmd
}

func memoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "memory",
		Short: "Project memory",
		Long:  "Record and inspect decisions, patterns, and notes kept alongside the plan",
		Run: func(cmd *cobra.Command, args []string) {
			eng, release, err := newEngine(false)
			if err != nil {
				exitErr(err)
			}
			defer release()

			m, err := eng.Memory()
			if err != nil {
				exitOnError(release, err)
			}

			r := render.New(pretty)
			fmt.Print(r.Memory(m))
		},
	}

	noteCmd := &cobra.Command{
		Use:   "note <text...>",
		Short: "Record a note",
		Args:  cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			eng, release, err := newEngine(true)
			if err != nil {
				exitErr(err)
			}
			defer release()

			if err := eng.AddNote(strings.Join(args, " ")); err != nil {
				record(eng, "memory-note", "error: "+err.Error())
				exitOnError(release, err)
			}
			record(eng, "memory-note", "ok")
			fmt.Println("✓ Note recorded")
		},
	}

	patternCmd := &cobra.Command{
		Use:   "pattern <pattern> [context...]",
		Short: "Record a reusable pattern",
		Args:  cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			eng, release, err := newEngine(true)
			if err != nil {
				exitErr(err)
			}
			defer release()

			context := strings.Join(args[1:], " ")
			if err := eng.AddPattern(args[0], context); err != nil {
				record(eng, "memory-pattern", "error: "+err.Error())
				exitOnError(release, err)
			}
			record(eng, "memory-pattern", "ok")
			fmt.Println("✓ Pattern recorded")
		},
	}

	decisionCmd := &cobra.Command{
		Use:   "decision <decision> [reasoning...]",
		Short: "Record a decision",
		Args:  cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			eng, release, err := newEngine(true)
			if err != nil {
				exitErr(err)
			}
			defer release()

			reasoning := strings.Join(args[1:], " ")
			if err := eng.AddDecision(args[0], reasoning); err != nil {
				record(eng, "memory-decision", "error: "+err.Error())
				exitOnError(release, err)
			}
			record(eng, "memory-decision", "ok")
			fmt.Println("✓ Decision recorded")
		},
	}

	cmd.AddCommand(noteCmd, patternCmd, decisionCmd)
	return cmd
}
