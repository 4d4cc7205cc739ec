package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"taskflow/internal/controllers"
	"taskflow/internal/models"
	"taskflow/internal/pdf"
	"taskflow/internal/render"
)

func tasksCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tasks",
		Aliases: []string{"task", "t"},
		Short:   "List, create, edit and delete tasks",
	}
	cmd.AddCommand(taskListCmd(c), taskShowCmd(c), taskCreateCmd(c), taskEditCmd(c), taskDeleteCmd(c), taskExportCmd(c))
	return cmd
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

// listFilter holds the --status and --assignee flags shared by list and export.
type listFilter struct {
	status   string
	assignee int64
}

func (f *listFilter) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.status, "status", "s", "", "todo, in_progress or done")
	cmd.Flags().Int64Var(&f.assignee, "assignee", 0, "assignee user id")
}

func (f *listFilter) apply(l *controllers.TaskList) error {
	if f.status != "" {
		st := models.TaskStatus(f.status)
		if err := l.SetStatusFilter(&st); err != nil {
			return err
		}
	}
	if f.assignee > 0 {
		id := f.assignee
		l.SetAssigneeFilter(&id)
	}
	return nil
}

func (f *listFilter) String() string {
	var parts []string
	if f.status != "" {
		parts = append(parts, "status: "+render.StatusLabel(models.TaskStatus(f.status)))
	}
	if f.assignee > 0 {
		parts = append(parts, "assignee: "+strconv.FormatInt(f.assignee, 10))
	}
	if len(parts) == 0 {
		return "all tasks"
	}
	return strings.Join(parts, ", ")
}

func taskListCmd(c *cli) *cobra.Command {
	var filter listFilter
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tasks",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.authed(cmd.Context())
			if err != nil {
				return err
			}
			list := controllers.NewTaskList(a.API, a.Cache, c.confirmer(), controllers.WithLogger(a.Logger))
			if err := filter.apply(list); err != nil {
				return err
			}
			items, err := list.Load(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), render.TaskTable(items))
			return nil
		},
	}
	filter.bind(cmd)
	return cmd
}

func taskShowCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a task with its attachments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			a, err := c.authed(cmd.Context())
			if err != nil {
				return err
			}
			form, err := controllers.OpenEdit(cmd.Context(), a.API, a.Cache, id, controllers.WithLogger(a.Logger))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), render.TaskDetail(form.Task()))
			return nil
		},
	}
}

// taskFlags are the editable fields. Only flags given on the command line
// are applied to the form.
type taskFlags struct {
	title, description, status, priority, due string
	assignee                                  int64
}

func (f *taskFlags) bind(cmd *cobra.Command, withStatus bool) {
	cmd.Flags().StringVar(&f.title, "title", "", "task title")
	cmd.Flags().StringVarP(&f.description, "description", "d", "", "description")
	cmd.Flags().StringVarP(&f.priority, "priority", "p", "", "low, medium or high")
	cmd.Flags().StringVar(&f.due, "due", "", "due date, YYYY-MM-DD")
	cmd.Flags().Int64Var(&f.assignee, "assignee", 0, "assignee user id")
	if withStatus {
		cmd.Flags().StringVarP(&f.status, "status", "s", "", "todo, in_progress or done")
	}
}

func (f *taskFlags) apply(cmd *cobra.Command, form *controllers.TaskForm) error {
	changed := cmd.Flags().Changed
	if changed("title") {
		form.SetTitle(f.title)
	}
	if changed("description") {
		form.SetDescription(f.description)
	}
	if changed("priority") {
		if err := form.SetPriority(models.TaskPriority(f.priority)); err != nil {
			return err
		}
	}
	if changed("due") {
		if err := form.SetDueDate(f.due); err != nil {
			return err
		}
	}
	if changed("assignee") {
		id := f.assignee
		form.SetAssignee(&id)
	}
	if changed("status") {
		if err := form.SetStatus(models.TaskStatus(f.status)); err != nil {
			return err
		}
	}
	return nil
}

func taskCreateCmd(c *cli) *cobra.Command {
	var flags taskFlags
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a task",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.authed(cmd.Context())
			if err != nil {
				return err
			}
			form := controllers.NewTaskForm(a.API, a.Cache, controllers.WithLogger(a.Logger))
			if err := flags.apply(cmd, form); err != nil {
				return err
			}
			task, err := form.Submit(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created task #%d\n", task.ID)
			return nil
		},
	}
	flags.bind(cmd, false)
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func taskEditCmd(c *cli) *cobra.Command {
	var flags taskFlags
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change fields of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			a, err := c.authed(cmd.Context())
			if err != nil {
				return err
			}
			form, err := controllers.OpenEdit(cmd.Context(), a.API, a.Cache, id, controllers.WithLogger(a.Logger))
			if err != nil {
				return err
			}
			if err := flags.apply(cmd, form); err != nil {
				return err
			}
			task, err := form.Submit(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), render.TaskDetail(task))
			return nil
		},
	}
	flags.bind(cmd, true)
	return cmd
}

func taskDeleteCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a task after confirmation",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			a, err := c.authed(cmd.Context())
			if err != nil {
				return err
			}
			list := controllers.NewTaskList(a.API, a.Cache, c.confirmer(), controllers.WithLogger(a.Logger))
			ok, err := list.Delete(cmd.Context(), id)
			if err != nil {
				return err
			}
			if ok {
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted task #%d\n", id)
			}
			return nil
		},
	}
}

func taskExportCmd(c *cli) *cobra.Command {
	var (
		filter   listFilter
		dir      string
		fontPath string
		output   string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the task list as a PDF report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.authed(cmd.Context())
			if err != nil {
				return err
			}
			list := controllers.NewTaskList(a.API, a.Cache, c.confirmer(), controllers.WithLogger(a.Logger))
			if err := filter.apply(list); err != nil {
				return err
			}
			items, err := list.Load(cmd.Context())
			if err != nil {
				return err
			}

			report := pdf.TaskReport{
				Filter:   filter.String(),
				Owner:    a.Session.User().Username,
				Tasks:    items,
				Filename: output,
			}
			var gen pdf.Generator = pdf.NewReportGenerator(dir, fontPath)
			if output == "-" {
				return gen.WriteTaskReport(os.Stdout, report)
			}
			path, err := gen.GenerateTaskReport(report)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d tasks)\n", path, len(items))
			return nil
		},
	}
	filter.bind(cmd)
	cmd.Flags().StringVar(&dir, "dir", ".", "output directory")
	cmd.Flags().StringVarP(&output, "output", "o", "", "file name, or - for stdout")
	cmd.Flags().StringVar(&fontPath, "font", "", "UTF-8 TTF font to embed")
	return cmd
}
