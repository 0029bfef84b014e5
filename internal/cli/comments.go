package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/dshills/folio/internal/api"
	"github.com/dshills/folio/internal/folioerr"
	"github.com/dshills/folio/internal/optimistic"
	"github.com/dshills/folio/internal/portfolio"
)

func newCommentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "comments",
		Short: "Read, post and moderate comments",
	}
	cmd.AddCommand(
		newCommentsListCmd(),
		newCommentsPostCmd(),
		newCommentsPendingCmd(),
		newCommentsModerateCmd("approve", "Approve a pending comment (admin)", true),
		newCommentsModerateCmd("reject", "Reject a comment (admin)", false),
		newCommentsDeleteCmd(),
	)
	return cmd
}

func printComments(cmd *cobra.Command, comments []portfolio.Comment) error {
	if flagJSON {
		return writeJSON(cmd.OutOrStdout(), comments)
	}
	rows := make([][]string, 0, len(comments))
	var walk func(cs []portfolio.Comment, depth int)
	walk = func(cs []portfolio.Comment, depth int) {
		for _, c := range cs {
			indent := ""
			for range depth {
				indent += "  "
			}
			rows = append(rows, []string{
				strconv.FormatInt(c.ID, 10),
				c.WriteupID,
				c.UserName,
				strconv.FormatBool(c.IsApproved),
				indent + truncate(c.Content, 60),
			})
			walk(c.Replies, depth+1)
		}
	}
	walk(comments, 0)
	return table(cmd.OutOrStdout(), []string{"ID", "WRITEUP", "AUTHOR", "APPROVED", "CONTENT"}, rows)
}

func newCommentsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <writeup-id>",
		Short: "List approved comments on a writeup",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			comments, err := a.api.ListComments(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printComments(cmd, comments)
		}),
	}
}

func newCommentsPostCmd() *cobra.Command {
	var (
		draft   portfolio.Comment
		replyTo int64
	)
	cmd := &cobra.Command{
		Use:   "post <writeup-id>",
		Short: "Post a comment for moderation",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			if draft.UserName == "" || draft.UserEmail == "" || draft.Content == "" {
				return usagef("--name, --email and --content are required")
			}
			draft.WriteupID = args[0]
			if replyTo > 0 {
				draft.ReplyToID = &replyTo
			}
			list, err := api.NewCommentList(a.api, optimistic.Config[portfolio.Comment]{Logger: a.logger})
			if err != nil {
				return err
			}
			created, err := list.Create(cmd.Context(), draft)
			if err != nil {
				return err
			}
			if flagJSON {
				return writeJSON(cmd.OutOrStdout(), created)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Comment %d submitted for moderation.\n", created.ID)
			return nil
		}),
	}
	f := cmd.Flags()
	f.StringVar(&draft.UserName, "name", "", "Your name")
	f.StringVar(&draft.UserEmail, "email", "", "Your email")
	f.StringVar(&draft.Content, "content", "", "Comment text")
	f.Int64Var(&replyTo, "reply-to", 0, "Reply to this comment id")
	return cmd
}

func newCommentsPendingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pending",
		Short: "List comments awaiting moderation (admin)",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			if err := a.requireLogin(); err != nil {
				return err
			}
			comments, err := a.api.PendingComments(cmd.Context())
			if err != nil {
				return err
			}
			return printComments(cmd, comments)
		}),
	}
}

func newCommentsModerateCmd(use, short string, approved bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <comment-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := a.requireLogin(); err != nil {
				return err
			}
			list, err := api.NewCommentList(a.api, optimistic.Config[portfolio.Comment]{Logger: a.logger})
			if err != nil {
				return err
			}
			if err := list.Load(cmd.Context()); err != nil {
				return err
			}
			if pending(list, id) {
				_, err = list.Approve(cmd.Context(), id, approved)
			} else if _, err = a.api.SetCommentApproval(cmd.Context(), id, approved); err != nil {
				err = &folioerr.MutationError{Op: folioerr.OpApprove, ID: id, Err: err}
			}
			if err != nil {
				return err
			}
			verb := "Approved"
			if !approved {
				verb = "Rejected"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s comment %d.\n", verb, id)
			return nil
		}),
	}
}

func newCommentsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <comment-id>",
		Short: "Delete a comment (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := a.requireLogin(); err != nil {
				return err
			}
			list, err := api.NewCommentList(a.api, optimistic.Config[portfolio.Comment]{Logger: a.logger})
			if err != nil {
				return err
			}
			if err := list.Load(cmd.Context()); err != nil {
				return err
			}
			if pending(list, id) {
				err = list.Delete(cmd.Context(), id)
			} else if err = a.api.DeleteComment(cmd.Context(), id); err != nil {
				err = &folioerr.MutationError{Op: folioerr.OpDelete, ID: id, Err: err}
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted comment %d.\n", id)
			return nil
		}),
	}
}

// pending reports whether id is in the loaded moderation queue. Comments
// outside it are moderated directly without an optimistic step.
func pending(list *optimistic.List[portfolio.Comment], id int64) bool {
	for _, c := range list.Items() {
		if c.ID == id {
			return true
		}
	}
	return false
}
