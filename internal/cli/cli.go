// Package cli is the thin command dispatch layer over the application
// services. Commands parse arguments and print results; all draft semantics
// live in the application package.
package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ericfisherdev/reviewdraft/internal/application"
	"github.com/ericfisherdev/reviewdraft/internal/domain/model"
)

// App bundles the services the commands dispatch to.
type App struct {
	Drafts *application.DraftService
	Submit *application.SubmitService
}

// NewRootCmd builds the reviewdraft command tree.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "reviewdraft",
		Short:         "Build a pull-request review locally, then publish it to GitHub",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newStartCmd(app),
		newCommentCmd(app),
		newListCmd(app),
		newCommentsCmd(app),
		newRemoteCommentsCmd(app),
		newEditCmd(app),
		newDeleteCmd(app),
		newMoveCmd(app),
		newAbandonCmd(app),
		newClearCmd(app),
		newSubmitCmd(app),
	)

	return root
}

// splitRepo parses "owner/name" into its two components.
func splitRepo(fullName string) (owner, repo string, err error) {
	parts := strings.SplitN(fullName, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repository %q: expected owner/name", fullName)
	}
	return parts[0], parts[1], nil
}

func parsePR(arg string) (int, error) {
	pr, err := strconv.Atoi(arg)
	if err != nil || pr <= 0 {
		return 0, fmt.Errorf("invalid pull request number %q", arg)
	}
	return pr, nil
}

func newStartCmd(app *App) *cobra.Command {
	var commit, body, localFolder string

	cmd := &cobra.Command{
		Use:   "start <owner/repo> <pr>",
		Short: "Start a draft review (no-op if one already exists)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, repo, err := splitRepo(args[0])
			if err != nil {
				return err
			}
			pr, err := parsePR(args[1])
			if err != nil {
				return err
			}

			draft, err := app.Drafts.StartReview(cmd.Context(), owner, repo, pr, commit, body, localFolder)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "draft review for %s at commit %s\n", draft.Key(), draft.CommitID)
			return nil
		},
	}

	cmd.Flags().StringVar(&commit, "commit", "", "head commit the draft anchors to")
	cmd.Flags().StringVar(&body, "body", "", "overall review body")
	cmd.Flags().StringVar(&localFolder, "local-folder", "", "review a local folder instead of a remote PR")
	_ = cmd.MarkFlagRequired("commit")

	return cmd
}

func newCommentCmd(app *App) *cobra.Command {
	var line int
	var side, commit string
	var replyTo int64

	cmd := &cobra.Command{
		Use:   "comment <owner/repo> <pr> <path> <body>",
		Short: "Add a comment to the draft (omit --line for a whole-file comment)",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, repo, err := splitRepo(args[0])
			if err != nil {
				return err
			}
			pr, err := parsePR(args[1])
			if err != nil {
				return err
			}

			var inReplyTo *int64
			if replyTo > 0 {
				inReplyTo = &replyTo
			}

			comment, err := app.Drafts.AddComment(cmd.Context(), owner, repo, pr, args[2], line, model.Side(side), args[3], commit, inReplyTo)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "comment %d added\n", comment.ID)
			return nil
		},
	}

	cmd.Flags().IntVar(&line, "line", model.WholeFileLine, "line number (0 targets the whole file)")
	cmd.Flags().StringVar(&side, "side", string(model.SideRight), "diff side: RIGHT (new) or LEFT (original)")
	cmd.Flags().StringVar(&commit, "commit", "", "head commit the comment anchors to")
	cmd.Flags().Int64Var(&replyTo, "reply-to", 0, "remote comment ID to reply to")
	_ = cmd.MarkFlagRequired("commit")

	return cmd
}

func newListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List pending draft reviews",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			drafts, err := app.Drafts.GetAllReviewMetadata(cmd.Context())
			if err != nil {
				return err
			}

			for _, d := range drafts {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\tcommit %s\tstarted %s\n", d.Key(), d.CommitID, d.CreatedAt.Format("2006-01-02 15:04"))
			}
			return nil
		},
	}
}

func newCommentsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "comments <owner/repo> <pr>",
		Short: "List the draft's active comments",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, repo, err := splitRepo(args[0])
			if err != nil {
				return err
			}
			pr, err := parsePR(args[1])
			if err != nil {
				return err
			}

			comments, err := app.Drafts.GetComments(cmd.Context(), owner, repo, pr)
			if err != nil {
				return err
			}

			for _, c := range comments {
				location := "overall"
				if !c.IsWholeFile() {
					location = fmt.Sprintf("line %d", c.Line)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "[%d] %s %s: %s\n", c.ID, c.FilePath, location, c.Body)
			}
			return nil
		},
	}
}

func newRemoteCommentsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "remote-comments <owner/repo> <pr>",
		Short: "List the review comments already published on the pull request",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, repo, err := splitRepo(args[0])
			if err != nil {
				return err
			}
			pr, err := parsePR(args[1])
			if err != nil {
				return err
			}

			comments, err := app.Drafts.GetRemoteComments(cmd.Context(), owner, repo, pr)
			if err != nil {
				return err
			}

			for _, c := range comments {
				location := "line ?"
				if c.Line > 0 {
					location = fmt.Sprintf("line %d", c.Line)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "[%d] %s %s %s: %s\n", c.ID, c.Author, c.Path, location, c.Body)
			}
			return nil
		},
	}
}

func newEditCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "edit <comment-id> <body>",
		Short: "Replace a comment's body",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid comment id %q", args[0])
			}

			if _, err := app.Drafts.UpdateComment(cmd.Context(), id, args[1]); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "comment %d updated\n", id)
			return nil
		},
	}
}

func newDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <comment-id>",
		Short: "Delete a comment (kept in the log with a DELETED marker)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid comment id %q", args[0])
			}

			if err := app.Drafts.DeleteComment(cmd.Context(), id); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "comment %d deleted\n", id)
			return nil
		},
	}
}

func newMoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "move <owner/repo> <pr> <old-path> <new-path>",
		Short: "Rename the file path on all active comments matching old-path",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, repo, err := splitRepo(args[0])
			if err != nil {
				return err
			}
			pr, err := parsePR(args[1])
			if err != nil {
				return err
			}

			affected, err := app.Drafts.UpdateCommentFilePath(cmd.Context(), owner, repo, pr, args[2], args[3])
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%d comment(s) moved to %s\n", affected, args[3])
			return nil
		},
	}
}

func newAbandonCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "abandon <owner/repo> <pr>",
		Short: "Abandon the draft review, freezing its log",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, repo, err := splitRepo(args[0])
			if err != nil {
				return err
			}
			pr, err := parsePR(args[1])
			if err != nil {
				return err
			}

			return app.Drafts.AbandonReview(cmd.Context(), owner, repo, pr)
		},
	}
}

func newClearCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "clear <owner/repo> <pr>",
		Short: "Discard the draft review without submitting it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, repo, err := splitRepo(args[0])
			if err != nil {
				return err
			}
			pr, err := parsePR(args[1])
			if err != nil {
				return err
			}

			return app.Drafts.ClearReview(cmd.Context(), owner, repo, pr, "")
		},
	}
}

func newSubmitCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "submit <owner/repo> <pr>",
		Short: "Publish the draft's comments to GitHub one by one",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Submit == nil {
				return fmt.Errorf("submission requires REVIEWDRAFT_GITHUB_TOKEN")
			}

			owner, repo, err := splitRepo(args[0])
			if err != nil {
				return err
			}
			pr, err := parsePR(args[1])
			if err != nil {
				return err
			}

			if err := app.Submit.Submit(cmd.Context(), owner, repo, pr); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "review submitted")
			return nil
		},
	}
}
