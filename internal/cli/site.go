package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dshills/folio/internal/api"
	"github.com/dshills/folio/internal/portfolio"
)

func newNewsletterCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "newsletter",
		Short: "Manage newsletter subscriptions",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "subscribe <email>",
			Short: "Subscribe an email address",
			Args:  cobra.ExactArgs(1),
			RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
				sub, err := a.api.Subscribe(cmd.Context(), args[0])
				if errors.Is(err, api.ErrConflict) {
					fmt.Fprintf(cmd.OutOrStdout(), "%s is already subscribed.\n", args[0])
					return nil
				}
				if err != nil {
					return err
				}
				if flagJSON {
					return writeJSON(cmd.OutOrStdout(), sub)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Subscribed %s.\n", sub.Email)
				return nil
			}),
		},
		&cobra.Command{
			Use:   "unsubscribe <email>",
			Short: "Unsubscribe an email address",
			Args:  cobra.ExactArgs(1),
			RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
				if err := a.api.Unsubscribe(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Unsubscribed %s.\n", args[0])
				return nil
			}),
		},
		&cobra.Command{
			Use:   "count",
			Short: "Print the number of active subscribers (admin)",
			Args:  cobra.NoArgs,
			RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
				if err := a.requireLogin(); err != nil {
					return err
				}
				n, err := a.api.SubscriberCount(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), n)
				return nil
			}),
		},
		newNewsletterSendCmd(),
	)
	return cmd
}

func newNewsletterSendCmd() *cobra.Command {
	var (
		issue    api.NewsletterIssue
		htmlFile string
	)
	cmd := &cobra.Command{
		Use:   "send",
		Short: "Mail an issue to every active subscriber (admin)",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			if htmlFile != "" {
				if issue.HTMLContent != "" {
					return usagef("--html and --html-file are mutually exclusive")
				}
				data, err := os.ReadFile(htmlFile)
				if err != nil {
					return usagef("reading %s: %v", htmlFile, err)
				}
				issue.HTMLContent = string(data)
			}
			if issue.Subject == "" || issue.HTMLContent == "" {
				return usagef("--subject and one of --html or --html-file are required")
			}
			if err := a.requireLogin(); err != nil {
				return err
			}
			rep, err := a.api.SendNewsletter(cmd.Context(), issue)
			if err != nil {
				return err
			}
			if flagJSON {
				return writeJSON(cmd.OutOrStdout(), rep)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Sent to %d of %d subscribers (%d failed).\n",
				rep.SentCount, rep.TotalSubscribers, rep.FailedCount)
			return nil
		}),
	}
	f := cmd.Flags()
	f.StringVar(&issue.Subject, "subject", "", "Subject line")
	f.StringVar(&issue.HTMLContent, "html", "", "HTML body")
	f.StringVar(&htmlFile, "html-file", "", "Read the HTML body from a file")
	f.StringVar(&issue.TextContent, "text", "", "Plain-text alternative")
	return cmd
}

func newContactCmd() *cobra.Command {
	var msg portfolio.ContactMessage
	cmd := &cobra.Command{
		Use:   "contact",
		Short: "Send a message through the contact form",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			if err := msg.Validate(); err != nil {
				return usagef("%v", err)
			}
			if err := a.api.SubmitContact(cmd.Context(), msg); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Message sent.")
			return nil
		}),
	}
	f := cmd.Flags()
	f.StringVar(&msg.Name, "name", "", "Your name")
	f.StringVar(&msg.Email, "email", "", "Your email")
	f.StringVar(&msg.Subject, "subject", "", "Subject")
	f.StringVar(&msg.Message, "message", "", "Message")
	f.StringVar(&msg.CaptchaToken, "captcha", "", "CAPTCHA response token")
	return cmd
}
