package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joss/workplan/internal/planning"
)

func startCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start <task-id>",
		Short: "Mark a task in progress",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			eng, release, err := newEngine(true)
			if err != nil {
				exitErr(err)
			}
			defer release()

			task, err := eng.StartTask(args[0])
			if err != nil {
				record(eng, "start", "error: "+err.Error())
				exitOnError(release, err)
			}
			if task == nil {
				record(eng, "start", "not-found")
				fmt.Printf("Task not found: %s\n", args[0])
				return
			}

			record(eng, "start", "ok")
			fmt.Printf("► Started: %s\n", task.Title)
		},
	}
}

func doneCmd() *cobra.Command {
	var output string
	var files []string

	cmd := &cobra.Command{
		Use:   "done <task-id>",
		Short: "Mark a task completed",
		Long: `Mark a task completed, deriving actual hours from when it was started.

Examples:
  workplan done 01J3...
  workplan done 01J3... --output "Added retry logic" --files api.go,api_test.go`,
		Args: cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			eng, release, err := newEngine(true)
			if err != nil {
				exitErr(err)
			}
			defer release()

			var result *planning.TaskResult
			if output != "" || len(files) > 0 {
				result = &planning.TaskResult{Output: output, FilesModified: files}
			}

			task, err := eng.CompleteTask(args[0], result)
			if err != nil {
				record(eng, "complete", "error: "+err.Error())
				exitOnError(release, err)
			}
			if task == nil {
				record(eng, "complete", "not-found")
				fmt.Printf("Task not found: %s\n", args[0])
				return
			}

			record(eng, "complete", "ok")
			fmt.Printf("✓ Completed: %s %s\n", task.Title, eng.MiniProgress())
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Result summary stored in task notes")
	cmd.Flags().StringSliceVarP(&files, "files", "f", nil, "Files modified while completing the task")
	return cmd
}

func failCmd() *cobra.Command {
	var errDetail string

	cmd := &cobra.Command{
		Use:   "fail <task-id> <reason...>",
		Short: "Mark a task failed",
		Args:  cobra.MinimumNArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			eng, release, err := newEngine(true)
			if err != nil {
				exitErr(err)
			}
			defer release()

			reason := strings.Join(args[1:], " ")
			var taskErr error
			if errDetail != "" {
				taskErr = errors.New(errDetail)
			}

			task, err := eng.FailTask(args[0], reason, taskErr)
			if err != nil {
				record(eng, "fail", "error: "+err.Error())
				exitOnError(release, err)
			}
			if task == nil {
				record(eng, "fail", "not-found")
				fmt.Printf("Task not found: %s\n", args[0])
				return
			}

			record(eng, "fail", "ok")
			fmt.Printf("✗ Failed: %s\n", task.Title)
		},
	}

	cmd.Flags().StringVarP(&errDetail, "error", "e", "", "Error detail appended to the task notes")
	return cmd
}

func blockCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "block <task-id> <reason...>",
		Short: "Mark a task blocked",
		Args:  cobra.MinimumNArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			eng, release, err := newEngine(true)
			if err != nil {
				exitErr(err)
			}
			defer release()

			task, err := eng.BlockTask(args[0], strings.Join(args[1:], " "))
			if err != nil {
				record(eng, "block", "error: "+err.Error())
				exitOnError(release, err)
			}
			if task == nil {
				record(eng, "block", "not-found")
				fmt.Printf("Task not found: %s\n", args[0])
				return
			}

			record(eng, "block", "ok")
			fmt.Printf("⊘ Blocked: %s\n", task.Title)
		},
	}
}

func addCmd() *cobra.Command {
	var (
		desc     string
		phase    string
		category string
		priority string
		deps     []string
		hours    float64
		criteria []string
		files    []string
		notes    string
	)

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a task to a phase",
		Long: `Append a pending task to a phase, creating the phase at the end of the
plan when it does not exist yet.

Examples:
  workplan add "Wire up CI" --phase Setup --category setup
  workplan add "Add caching" --phase Features --deps 01J3ABC,01J3DEF --hours 4`,
		Args: cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			eng, release, err := newEngine(true)
			if err != nil {
				exitErr(err)
			}
			defer release()

			if eng.Plan() == nil {
				exitOnError(release, fmt.Errorf("no plan found, create one with: workplan init <project-name>"))
			}

			task, err := eng.AddTask(args[0], desc, phase, &planning.TaskOptions{
				Category:           planning.TaskCategory(category),
				Priority:           planning.TaskPriority(priority),
				Dependencies:       deps,
				EstimatedHours:     hours,
				AcceptanceCriteria: criteria,
				Files:              files,
				Notes:              notes,
			})
			if err != nil {
				record(eng, "add", "error: "+err.Error())
				exitOnError(release, err)
			}

			record(eng, "add", "ok")
			fmt.Printf("✓ Added to %s: %s\n", phase, task.ID)
		},
	}

	cmd.Flags().StringVarP(&desc, "desc", "d", "", "Task description")
	cmd.Flags().StringVarP(&phase, "phase", "p", "Backlog", "Phase name (created if missing)")
	cmd.Flags().StringVarP(&category, "category", "c", "", "Category: setup|feature|testing|docs|refactor|bugfix|manual")
	cmd.Flags().StringVar(&priority, "priority", "", "Priority: critical|high|medium|low")
	cmd.Flags().StringSliceVar(&deps, "deps", nil, "Dependency task ids")
	cmd.Flags().Float64Var(&hours, "hours", 0, "Estimated hours")
	cmd.Flags().StringSliceVar(&criteria, "criteria", nil, "Acceptance criteria")
	cmd.Flags().StringSliceVar(&files, "files", nil, "Related files")
	cmd.Flags().StringVar(&notes, "notes", "", "Free-form notes")
	return cmd
}
