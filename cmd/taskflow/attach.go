package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"taskflow/internal/controllers"
	"taskflow/internal/render"
)

func attachCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "attach",
		Aliases: []string{"attachments"},
		Short:   "Manage the attachments of a task",
	}
	cmd.AddCommand(attachUploadCmd(c), attachListCmd(c), attachDeleteCmd(c), attachURLCmd(c))
	return cmd
}

// manager opens task id for editing and returns its attachment manager.
func (c *cli) manager(cmd *cobra.Command, rawID string, opts ...controllers.Option) (*controllers.TaskForm, *controllers.AttachmentManager, error) {
	id, err := parseID(rawID)
	if err != nil {
		return nil, nil, err
	}
	a, err := c.authed(cmd.Context())
	if err != nil {
		return nil, nil, err
	}
	opts = append([]controllers.Option{controllers.WithLogger(a.Logger)}, opts...)
	form, err := controllers.OpenEdit(cmd.Context(), a.API, a.Cache, id, opts...)
	if err != nil {
		return nil, nil, err
	}
	m, err := form.AttachmentManager(a.API, c.confirmer())
	if err != nil {
		return nil, nil, err
	}
	return form, m, nil
}

func attachUploadCmd(c *cli) *cobra.Command {
	var keepGoing bool
	cmd := &cobra.Command{
		Use:   "upload <task-id> <file>...",
		Short: "Upload files to a task, in order",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			policy := controllers.StopOnError
			if keepGoing {
				policy = controllers.ContinueOnError
			}
			_, m, err := c.manager(cmd, args[0], controllers.WithUploadPolicy(policy))
			if err != nil {
				return err
			}
			files := make([]controllers.UploadFile, 0, len(args)-1)
			for _, p := range args[1:] {
				files = append(files, controllers.LocalFile(p))
			}
			res, err := m.Upload(cmd.Context(), files)
			fmt.Fprint(cmd.OutOrStdout(), render.UploadSummary(res))
			return err
		},
	}
	cmd.Flags().BoolVar(&keepGoing, "continue", false, "keep uploading after a failed file")
	return cmd
}

func attachListCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:     "ls <task-id>",
		Aliases: []string{"list"},
		Short:   "List the attachments of a task",
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
			list, err := a.API.ListAttachments(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), render.AttachmentTable(list))
			return nil
		},
	}
}

func attachDeleteCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <task-id> <attachment-id>",
		Short: "Delete an attachment after confirmation",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			attID, err := parseID(args[1])
			if err != nil {
				return err
			}
			form, m, err := c.manager(cmd, args[0])
			if err != nil {
				return err
			}
			atts, err := form.Attachments()
			if err != nil {
				return err
			}
			for _, att := range atts {
				if att.ID != attID {
					continue
				}
				ok, err := m.Delete(cmd.Context(), att)
				if err != nil {
					return err
				}
				if ok {
					fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", att.Filename)
				}
				return nil
			}
			return fmt.Errorf("task #%d has no attachment %d", m.TaskID(), attID)
		},
	}
}

func attachURLCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "url <task-id> <attachment-id>",
		Short: "Print a download URL for an attachment",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			taskID, err := parseID(args[0])
			if err != nil {
				return err
			}
			attID, err := parseID(args[1])
			if err != nil {
				return err
			}
			a, err := c.authed(cmd.Context())
			if err != nil {
				return err
			}
			dl, err := a.API.AttachmentDownload(cmd.Context(), taskID, attID)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), dl.URL)
			return nil
		},
	}
}
