package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/baiirun/focusflow/internal/model"
)

// taskFlags are the editable task fields shared by add and edit.
type taskFlags struct {
	description string
	due         string
	scheduled   string
	priority    int
	estimate    int
	context     string
	energy      string
	project     string
	assign      string
	multiStep   bool
}

func (f *taskFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVarP(&f.description, "desc", "d", "", "description")
	fl.StringVar(&f.due, "due", "", "due date (YYYY-MM-DD)")
	fl.StringVar(&f.scheduled, "scheduled", "", "scheduled date (YYYY-MM-DD)")
	fl.IntVarP(&f.priority, "priority", "p", 0, "priority 0-5")
	fl.IntVarP(&f.estimate, "estimate", "e", 0, "time estimate in minutes")
	fl.StringVar(&f.context, "context", "", "context, e.g. @home")
	fl.StringVar(&f.energy, "energy", "", "energy level")
	fl.StringVar(&f.project, "project", "", "project ID")
	fl.StringVar(&f.assign, "assign", "", "person the task waits on")
	fl.BoolVar(&f.multiStep, "multi-step", false, "mark as needing more than one step")
}

// update builds a TaskUpdate from the flags the user actually set. An empty
// date or project clears the field.
func (f *taskFlags) update(cmd *cobra.Command) (model.TaskUpdate, error) {
	var u model.TaskUpdate
	changed := cmd.Flags().Changed

	if changed("desc") {
		u.Description = &f.description
	}
	if changed("due") {
		if f.due == "" {
			u.ClearDueDate = true
		} else {
			d, err := model.ParseDate(f.due)
			if err != nil {
				return u, err
			}
			u.DueDate = &d
		}
	}
	if changed("scheduled") {
		if f.scheduled == "" {
			u.ClearScheduledDate = true
		} else {
			d, err := model.ParseDate(f.scheduled)
			if err != nil {
				return u, err
			}
			u.ScheduledDate = &d
		}
	}
	if changed("priority") {
		u.Priority = &f.priority
	}
	if changed("estimate") {
		u.TimeEstimate = &f.estimate
	}
	if changed("context") {
		u.Context = &f.context
	}
	if changed("energy") {
		u.EnergyLevel = &f.energy
	}
	if changed("project") {
		if f.project == "" {
			u.ClearProject = true
		} else {
			u.ProjectID = &f.project
		}
	}
	if changed("assign") {
		u.AssignedTo = &f.assign
	}
	if changed("multi-step") {
		u.IsMultiStep = &f.multiStep
	}
	return u, nil
}

// projectTitles maps project IDs to titles for display.
func projectTitles(ctx context.Context, a *app) (map[string]string, error) {
	projects, err := a.repo.ListProjects(ctx)
	if err != nil {
		return nil, err
	}
	titles := make(map[string]string, len(projects))
	for _, p := range projects {
		titles[p.ID] = p.Title
	}
	return titles, nil
}

func printTask(cmd *cobra.Command, opts *rootOptions, task *model.Task, verb string) error {
	if opts.json {
		return printJSON(cmd.OutOrStdout(), task)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s %q (%s)\n", verb, task.ID, task.Title, task.Status)
	return nil
}

func newAddCmd(opts *rootOptions) *cobra.Command {
	var (
		f      taskFlags
		status string
	)
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Capture a task into the inbox",
		Args:  cobra.MinimumNArgs(1),
	}
	f.register(cmd)
	cmd.Flags().StringVarP(&status, "status", "s", "", "start in this status instead of inbox")

	cmd.RunE = withApp(opts, func(cmd *cobra.Command, args []string, a *app) error {
		draft := model.Task{Title: strings.Join(args, " ")}
		if status != "" {
			s, ok := model.ParseStatus(status)
			if !ok {
				return model.InvalidStatef("unknown status %q", status)
			}
			draft.Status = s
		}

		u, err := f.update(cmd)
		if err != nil {
			return err
		}
		applyDraft(&draft, u)

		task, err := a.repo.AddTask(cmd.Context(), draft)
		if err != nil {
			return err
		}
		return printTask(cmd, opts, task, "Captured")
	})
	return cmd
}

// applyDraft copies the set fields of u onto a task that is not stored yet.
func applyDraft(t *model.Task, u model.TaskUpdate) {
	if u.Description != nil {
		t.Description = *u.Description
	}
	t.DueDate = u.DueDate
	t.ScheduledDate = u.ScheduledDate
	t.Priority = u.Priority
	t.TimeEstimate = u.TimeEstimate
	if u.Context != nil {
		t.Context = *u.Context
	}
	if u.EnergyLevel != nil {
		t.EnergyLevel = *u.EnergyLevel
	}
	if u.ProjectID != nil {
		t.ProjectID = *u.ProjectID
	}
	if u.AssignedTo != nil {
		t.AssignedTo = *u.AssignedTo
	}
	if u.IsMultiStep != nil {
		t.IsMultiStep = *u.IsMultiStep
	}
}

// listFlags select which tasks list and search print.
type listFlags struct {
	project  string
	text     string
	priority int
	assignee string
	deadline bool
	from     string
	to       string
}

func (f *listFlags) filter(cmd *cobra.Command, args []string) (model.TaskFilter, error) {
	var filter model.TaskFilter
	for _, arg := range args {
		for _, name := range strings.Split(arg, ",") {
			s, ok := model.ParseStatus(name)
			if !ok {
				return filter, model.InvalidStatef("unknown status %q", name)
			}
			filter.Statuses = append(filter.Statuses, s)
		}
	}
	if len(filter.Statuses) == 0 {
		filter.Statuses = model.ListedStatuses()
	}

	filter.ProjectID = f.project
	filter.Text = f.text
	filter.AssignedTo = f.assignee
	changed := cmd.Flags().Changed
	if changed("priority") {
		filter.Priority = &f.priority
	}
	if changed("deadline") {
		filter.HasDeadline = &f.deadline
	}
	if f.from != "" {
		d, err := model.ParseDate(f.from)
		if err != nil {
			return filter, err
		}
		filter.CreatedFrom = &d
	}
	if f.to != "" {
		end, err := model.ParseDateEnd(f.to)
		if err != nil {
			return filter, err
		}
		filter.CreatedTo = &end
	}
	return filter, nil
}

func runList(cmd *cobra.Command, opts *rootOptions, a *app, filter model.TaskFilter) error {
	if err := a.gate.Plan().CheckSearch(filter); err != nil {
		return err
	}
	ctx := cmd.Context()
	tasks, err := a.repo.SearchTasks(ctx, filter)
	if err != nil {
		return err
	}
	if opts.json {
		if tasks == nil {
			tasks = []model.Task{}
		}
		return printJSON(cmd.OutOrStdout(), tasks)
	}
	titles, err := projectTitles(ctx, a)
	if err != nil {
		return err
	}
	renderTasks(cmd.OutOrStdout(), tasks, titles)
	return nil
}

func (f *listFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.project, "project", "", "only tasks in this project")
	fl.IntVarP(&f.priority, "priority", "p", 0, "exact priority")
	fl.StringVar(&f.assignee, "assignee", "", "assignee contains")
	fl.BoolVar(&f.deadline, "deadline", false, "has a due date (use --deadline=false for none)")
	fl.StringVar(&f.from, "from", "", "created on or after (YYYY-MM-DD)")
	fl.StringVar(&f.to, "to", "", "created on or before (YYYY-MM-DD)")
}

func newListCmd(opts *rootOptions) *cobra.Command {
	var f listFlags
	cmd := &cobra.Command{
		Use:     "list [status...]",
		Aliases: []string{"ls"},
		Short:   "List tasks, optionally limited to some statuses",
		Long: `List tasks. Statuses may be repeated or comma-separated:

  focus list next,waiting
  focus list scheduled --deadline

Without statuses every list except project placeholders is shown.
Filtering by priority, assignee, deadline or creation date needs the pro plan.`,
	}
	f.register(cmd)
	cmd.Flags().StringVarP(&f.text, "search", "q", "", "match title or description")

	cmd.RunE = withApp(opts, func(cmd *cobra.Command, args []string, a *app) error {
		filter, err := f.filter(cmd, args)
		if err != nil {
			return err
		}
		return runList(cmd, opts, a, filter)
	})
	return cmd
}

func newSearchCmd(opts *rootOptions) *cobra.Command {
	var (
		f        listFlags
		statuses []string
	)
	cmd := &cobra.Command{
		Use:   "search <text>",
		Short: "Find tasks whose title or description contains text",
		Args:  cobra.MinimumNArgs(1),
	}
	f.register(cmd)
	cmd.Flags().StringSliceVarP(&statuses, "status", "s", nil, "limit to these statuses")

	cmd.RunE = withApp(opts, func(cmd *cobra.Command, args []string, a *app) error {
		f.text = strings.Join(args, " ")
		filter, err := f.filter(cmd, statuses)
		if err != nil {
			return err
		}
		return runList(cmd, opts, a, filter)
	})
	return cmd
}

func newShowCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show task details",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(opts, func(cmd *cobra.Command, args []string, a *app) error {
			ctx := cmd.Context()
			task, err := a.repo.GetTask(ctx, args[0])
			if err != nil {
				return err
			}
			if opts.json {
				return printJSON(cmd.OutOrStdout(), task)
			}
			var projectTitle string
			if task.ProjectID != "" {
				if p, err := a.repo.GetProject(ctx, task.ProjectID); err == nil {
					projectTitle = p.Title
				}
			}
			renderTask(cmd.OutOrStdout(), task, projectTitle)
			return nil
		}),
	}
}

func newEditCmd(opts *rootOptions) *cobra.Command {
	var (
		f     taskFlags
		title string
	)
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change task fields",
		Long: `Change task fields. Only the flags given are changed; pass an empty value
to clear a date or the project, e.g. --due "".`,
		Args: cobra.ExactArgs(1),
	}
	f.register(cmd)
	cmd.Flags().StringVarP(&title, "title", "t", "", "new title")

	cmd.RunE = withApp(opts, func(cmd *cobra.Command, args []string, a *app) error {
		u, err := f.update(cmd)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("title") {
			u.Title = &title
		}
		task, err := a.repo.UpdateTask(cmd.Context(), args[0], u)
		if err != nil {
			return err
		}
		return printTask(cmd, opts, task, "Updated")
	})
	return cmd
}

func newMoveCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "move <id> <status>",
		Short: "Move a task to another list",
		Long: `Move a task to another list. Moving to scheduled without a date schedules
the task for today; moving to completed stamps the completion time.`,
		Args: cobra.ExactArgs(2),
		RunE: withApp(opts, func(cmd *cobra.Command, args []string, a *app) error {
			status, ok := model.ParseStatus(args[1])
			if !ok {
				return model.InvalidStatef("unknown status %q", args[1])
			}
			task, err := a.repo.MoveTaskToStatus(cmd.Context(), args[0], status)
			if err != nil {
				return err
			}
			return printTask(cmd, opts, task, "Moved")
		}),
	}
}

func newRestoreCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "restore <id>",
		Short: "Move a deleted task back to the inbox",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(opts, func(cmd *cobra.Command, args []string, a *app) error {
			task, err := a.repo.RestoreTask(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printTask(cmd, opts, task, "Restored")
		}),
	}
}

func newRmCmd(opts *rootOptions) *cobra.Command {
	var purge bool
	cmd := &cobra.Command{
		Use:   "rm <id>",
		Short: "Move a task to the trash",
		Args:  cobra.ExactArgs(1),
	}
	cmd.Flags().BoolVar(&purge, "purge", false, "erase a task that is already in the trash")

	cmd.RunE = withApp(opts, func(cmd *cobra.Command, args []string, a *app) error {
		ctx := cmd.Context()
		if purge {
			if err := a.repo.PermanentlyDeleteTask(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Erased %s\n", args[0])
			return nil
		}
		task, err := a.repo.MoveTaskToStatus(ctx, args[0], model.StatusDeleted)
		if err != nil {
			return err
		}
		return printTask(cmd, opts, task, "Trashed")
	})
	return cmd
}

func newTrashCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trash",
		Short: "List, empty or restore the trash",
		RunE: withApp(opts, func(cmd *cobra.Command, args []string, a *app) error {
			return runList(cmd, opts, a, model.TaskFilter{Statuses: []model.Status{model.StatusDeleted}})
		}),
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "empty",
			Short: "Erase every task in the trash",
			RunE: withApp(opts, func(cmd *cobra.Command, args []string, a *app) error {
				n, err := a.repo.PermanentlyDeleteAllTasks(cmd.Context())
				if err != nil {
					return err
				}
				if opts.json {
					return printJSON(cmd.OutOrStdout(), map[string]int{"removed": n})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Erased %d tasks\n", n)
				return nil
			}),
		},
		&cobra.Command{
			Use:   "restore",
			Short: "Move every task in the trash back to the inbox",
			RunE: withApp(opts, func(cmd *cobra.Command, args []string, a *app) error {
				n, err := a.repo.RestoreAllTasks(cmd.Context())
				if err != nil {
					return err
				}
				if opts.json {
					return printJSON(cmd.OutOrStdout(), map[string]int{"restored": n})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Restored %d tasks\n", n)
				return nil
			}),
		},
	)
	return cmd
}

func newConvertCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "convert <id>",
		Short: "Turn a task into a project",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(opts, func(cmd *cobra.Command, args []string, a *app) error {
			project, task, err := a.repo.ConvertToProject(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if opts.json {
				return printJSON(cmd.OutOrStdout(), map[string]any{"project": project, "task": task})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created project %s %q\n", project.ID, project.Title)
			return nil
		}),
	}
}
