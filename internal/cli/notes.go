package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"studynotes-dashboard/internal/api"
	"studynotes-dashboard/internal/content"
	"studynotes-dashboard/internal/poller"
	"studynotes-dashboard/internal/services"
)

func newNoteCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "note",
		Short: "Create and inspect study notes",
	}
	cmd.AddCommand(
		newNoteCreateCommand(app),
		newNoteListCommand(app),
		newNoteShowCommand(app),
		newNoteWatchCommand(app),
	)
	return cmd
}

func newNoteCreateCommand(app *App) *cobra.Command {
	var (
		title  string
		public bool
		wait   bool
	)

	cmd := &cobra.Command{
		Use:   "create <youtube-url>",
		Short: "Generate notes for a video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := app.signedIn()
			if err != nil {
				return err
			}

			svc := services.NewNoteService(c, app.Resolver)
			resp, err := svc.Create(cmd.Context(), services.CreateNoteInput{URL: args[0], Title: title, IsPublic: public})
			if err != nil {
				return describe(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Note %s queued (%s)\n", resp.NoteID, resp.Status)

			if !wait {
				return nil
			}
			return waitForNote(cmd.Context(), cmd.OutOrStdout(), svc, resp.NoteID, app.NoteOptions)
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "title to use when the video metadata is unavailable")
	cmd.Flags().BoolVar(&public, "public", false, "share the note with the community")
	cmd.Flags().BoolVar(&wait, "wait", false, "wait until the notes are generated")
	return cmd
}

func newNoteListCommand(app *App) *cobra.Command {
	var (
		folder string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List your notes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := app.signedIn()
			if err != nil {
				return err
			}
			list, err := services.ListNotes(cmd.Context(), c, api.ListNotesParams{FolderID: folder, Limit: limit})
			if err != nil {
				return describe(err)
			}

			out := cmd.OutOrStdout()
			for _, n := range list.Notes {
				status := content.StatusOf(n.Content)
				state := "ready"
				if !status.IsTerminal() || status.IsFailed() {
					state = status.Status
				}
				fmt.Fprintf(out, "%s\t%-10s\t%s\n", n.ID, state, n.VideoTitle)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&folder, "folder", "", "only notes in this folder")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of notes")
	return cmd
}

func newNoteShowCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <note-id>",
		Short: "Print a note with normalized content",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := app.signedIn()
			if err != nil {
				return err
			}
			view, err := services.NewNoteService(c, app.Resolver).View(cmd.Context(), args[0])
			if err != nil {
				return describe(err)
			}
			return printJSON(cmd.OutOrStdout(), view)
		},
	}
}

func newNoteWatchCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "watch <note-id>",
		Short: "Follow note generation until it finishes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := app.signedIn()
			if err != nil {
				return err
			}
			svc := services.NewNoteService(c, app.Resolver)
			return waitForNote(cmd.Context(), cmd.OutOrStdout(), svc, args[0], app.NoteOptions)
		},
	}
}

// waitForNote prints one line per stage change until the note settles.
func waitForNote(ctx context.Context, out io.Writer, svc *services.NoteService, noteID string, opts poller.Options) error {
	var lastStage string
	view, err := svc.Wait(ctx, noteID, opts, func(v content.NoteView) {
		if !v.Processing.IsActive() {
			return
		}
		stage := v.Processing.Status + "/" + v.Processing.Stage
		if stage != lastStage {
			lastStage = stage
			fmt.Fprintf(out, "  %3d%%  %s\n", v.Progress, describeStage(v.Processing))
		}
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return fmt.Errorf("stopped watching note %s", noteID)
		}
		return describe(err)
	}

	if view.Processing.IsFailed() {
		msg := view.Processing.Error
		if msg == "" {
			msg = "generation failed"
		}
		return fmt.Errorf("note %s failed: %s", noteID, msg)
	}

	fmt.Fprintf(out, "Note %s ready: %s (%d sections)\n", noteID, view.VideoTitle, len(view.Content.Sections))
	return nil
}

func describeStage(s content.ProcessingStatus) string {
	if s.Stage == "" {
		return s.Status
	}
	return s.Stage
}
