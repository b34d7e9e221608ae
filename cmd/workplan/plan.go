package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joss/workplan/internal/config"
	"github.com/joss/workplan/internal/planning"
	"github.com/joss/workplan/internal/render"
	wpstrings "github.com/joss/workplan/internal/strings"
)

func initCmd() *cobra.Command {
	var path string
	var goal string
	var force bool

	cmd := &cobra.Command{
		Use:   "init [project-name]",
		Short: "Create a new plan",
		Long: `Create an empty plan for a project in the plan directory.
The project name comes from the argument or WORKPLAN_PROJECT.

Examples:
  workplan init my-service
  workplan init my-service --goal "Ship the v2 API" --path ~/src/my-service`,
		Args: cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			name := config.Env().Project
			if len(args) > 0 {
				name = args[0]
			}
			if name == "" {
				exitErr(fmt.Errorf("project name required (argument or WORKPLAN_PROJECT)"))
			}

			eng, release, err := newEngine(true)
			if err != nil {
				exitErr(err)
			}
			defer release()

			if eng.Plan() != nil && !force {
				exitOnError(release, fmt.Errorf("plan already exists for %q (use --force to overwrite)", eng.Plan().ProjectName))
			}

			if path == "" {
				path = wpstrings.GetCwd()
			}
			eng.SetPlan(planning.NewPlan(name, path, goal))
			if err := eng.Save(); err != nil {
				record(eng, "init", "error: "+err.Error())
				exitOnError(release, err)
			}

			record(eng, "init", "ok")
			fmt.Printf("✓ Plan created: %s\n", name)
			fmt.Println("Add tasks with: workplan add <title> --phase <phase>")
		},
	}

	cmd.Flags().StringVarP(&path, "path", "p", "", "Project path (default current directory)")
	cmd.Flags().StringVarP(&goal, "goal", "g", "", "User goal driving the plan")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing plan")
	return cmd
}

func showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the full plan",
		Run: func(cmd *cobra.Command, args []string) {
			eng, release, err := newEngine(false)
			if err != nil {
				exitErr(err)
			}
			defer release()

			r := render.New(pretty)
			fmt.Print(r.PlanSummary(eng.Plan()))
		},
	}
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show plan progress",
		Run: func(cmd *cobra.Command, args []string) {
			eng, release, err := newEngine(false)
			if err != nil {
				exitErr(err)
			}
			defer release()

			if eng.Plan() == nil {
				render.Stdout().Empty("No plan found. Create one with: workplan init <project-name>")
				return
			}

			r := render.New(pretty)
			fmt.Print(r.Stats(eng.Stats(), barWidth()))
		},
	}
}

func nextCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "next",
		Short: "Show the next eligible task",
		Long: `Pick the first pending task whose dependencies are all completed,
walking phases in order and tasks in insertion order.`,
		Run: func(cmd *cobra.Command, args []string) {
			eng, release, err := newEngine(false)
			if err != nil {
				exitErr(err)
			}
			defer release()

			if eng.Plan() == nil {
				render.Stdout().Empty("No plan found. Create one with: workplan init <project-name>")
				return
			}

			task := eng.NextTask()
			if task == nil {
				render.Stdout().Empty("No eligible tasks")
				return
			}

			r := render.New(pretty)
			fmt.Print(r.TaskDetail(task))
			fmt.Println()
			fmt.Printf("Start with: workplan start %s\n", task.ID)
		},
	}
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the plan for cycles and unresolved dependencies",
		Long: `Run the optional consistency checks over the dependency graph.

The engine itself never rejects a cyclic or dangling plan; such tasks
simply never become eligible. This command makes those situations
visible.`,
		Run: func(cmd *cobra.Command, args []string) {
			eng, release, err := newEngine(false)
			if err != nil {
				exitErr(err)
			}
			defer release()

			w := render.Stdout()
			plan := eng.Plan()
			if plan == nil {
				w.Empty("No plan found. Create one with: workplan init <project-name>")
				return
			}

			problems := 0

			if err := planning.DetectCycles(plan); err != nil {
				w.Println("✗ %v", err)
				problems++
			} else {
				w.Println("✓ no dependency cycles")
			}

			dangling := planning.DanglingDependencies(plan)
			if len(dangling) > 0 {
				w.Println("✗ unresolved dependencies (these tasks can never become eligible):")
				for id, deps := range dangling {
					w.Item("%s", id)
					for _, d := range deps {
						w.Nested("missing: %s", d)
					}
				}
				problems++
			} else {
				w.Println("✓ all dependencies resolve")
			}

			if problems > 0 {
				exitOnError(release, fmt.Errorf("%d problem(s) found", problems))
			}
		},
	}
}
