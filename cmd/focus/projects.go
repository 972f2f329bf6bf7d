package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/baiirun/focusflow/internal/model"
)

func newProjectCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "project",
		Aliases: []string{"proj"},
		Short:   "Manage projects",
		RunE: withApp(opts, func(cmd *cobra.Command, args []string, a *app) error {
			return listProjects(cmd, opts, a)
		}),
	}
	cmd.AddCommand(
		newProjectAddCmd(opts),
		&cobra.Command{
			Use:     "list",
			Aliases: []string{"ls"},
			Short:   "List projects with progress",
			RunE: withApp(opts, func(cmd *cobra.Command, args []string, a *app) error {
				return listProjects(cmd, opts, a)
			}),
		},
		newProjectShowCmd(opts),
		newProjectEditCmd(opts),
		newProjectBreakdownCmd(opts),
		newDissolveCmd(opts, "inbox", "Dissolve a project back into a single inbox task"),
		newDissolveCmd(opts, "complete", "Complete a project and all its tasks"),
		newDissolveCmd(opts, "delete", "Move a project and all its tasks to the trash"),
	)
	return cmd
}

func listProjects(cmd *cobra.Command, opts *rootOptions, a *app) error {
	projects, err := a.repo.ListProjects(cmd.Context())
	if err != nil {
		return err
	}
	if opts.json {
		if projects == nil {
			projects = []model.Project{}
		}
		return printJSON(cmd.OutOrStdout(), projects)
	}
	renderProjects(cmd.OutOrStdout(), projects)
	return nil
}

func newProjectAddCmd(opts *rootOptions) *cobra.Command {
	var description string
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Create a project",
		Args:  cobra.MinimumNArgs(1),
	}
	cmd.Flags().StringVarP(&description, "desc", "d", "", "description")

	cmd.RunE = withApp(opts, func(cmd *cobra.Command, args []string, a *app) error {
		p, err := a.repo.AddProject(cmd.Context(), model.Project{
			Title:       strings.Join(args, " "),
			Description: description,
		})
		if err != nil {
			return err
		}
		if opts.json {
			return printJSON(cmd.OutOrStdout(), p)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created project %s %q\n", p.ID, p.Title)
		return nil
	})
	return cmd
}

func newProjectShowCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a project and its tasks",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(opts, func(cmd *cobra.Command, args []string, a *app) error {
			ctx := cmd.Context()
			p, err := a.repo.GetProject(ctx, args[0])
			if err != nil {
				return err
			}
			tasks, err := a.repo.ProjectTasks(ctx, p.ID)
			if err != nil {
				return err
			}
			if opts.json {
				if tasks == nil {
					tasks = []model.Task{}
				}
				return printJSON(cmd.OutOrStdout(), map[string]any{"project": p, "tasks": tasks})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s  %d%% done\n", p.Title, p.Progress)
			if p.Description != "" {
				fmt.Fprintln(out, p.Description)
			}
			fmt.Fprintln(out)
			renderTasks(out, tasks, map[string]string{p.ID: p.Title})
			return nil
		}),
	}
}

func newProjectEditCmd(opts *rootOptions) *cobra.Command {
	var title, description string
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Rename a project or change its description",
		Args:  cobra.ExactArgs(1),
	}
	cmd.Flags().StringVarP(&title, "title", "t", "", "new title")
	cmd.Flags().StringVarP(&description, "desc", "d", "", "new description")

	cmd.RunE = withApp(opts, func(cmd *cobra.Command, args []string, a *app) error {
		var u model.ProjectUpdate
		if cmd.Flags().Changed("title") {
			u.Title = &title
		}
		if cmd.Flags().Changed("desc") {
			u.Description = &description
		}
		p, err := a.repo.UpdateProject(cmd.Context(), args[0], u)
		if err != nil {
			return err
		}
		if opts.json {
			return printJSON(cmd.OutOrStdout(), p)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Updated project %s %q\n", p.ID, p.Title)
		return nil
	})
	return cmd
}

func newProjectBreakdownCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "breakdown <id> <task title>...",
		Short: "Add next actions to a project, one per title",
		Args:  cobra.MinimumNArgs(2),
		RunE: withApp(opts, func(cmd *cobra.Command, args []string, a *app) error {
			created, err := a.repo.BreakdownProject(cmd.Context(), args[0], args[1:])
			out := cmd.OutOrStdout()
			if opts.json && err == nil {
				if created == nil {
					created = []model.Task{}
				}
				return printJSON(out, created)
			}
			for _, t := range created {
				fmt.Fprintf(out, "Added %s %q\n", t.ID, t.Title)
			}
			return err
		}),
	}
}

// newDissolveCmd builds the inbox, complete and delete subcommands, which
// all end the project and leave one carrier task behind.
func newDissolveCmd(opts *rootOptions, verb, short string) *cobra.Command {
	return &cobra.Command{
		Use:   verb + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: withApp(opts, func(cmd *cobra.Command, args []string, a *app) error {
			ctx := cmd.Context()
			var (
				task *model.Task
				err  error
			)
			switch verb {
			case "inbox":
				task, err = a.repo.MoveProjectToInbox(ctx, args[0])
			case "complete":
				task, err = a.repo.CompleteProject(ctx, args[0])
			default:
				task, err = a.repo.DeleteProject(ctx, args[0])
			}
			if err != nil {
				return err
			}
			return printTask(cmd, opts, task, "Project is now")
		}),
	}
}
