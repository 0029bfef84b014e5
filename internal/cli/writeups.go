package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dshills/folio/internal/api"
	"github.com/dshills/folio/internal/folioerr"
	"github.com/dshills/folio/internal/optimistic"
	"github.com/dshills/folio/internal/portfolio"
)

func newWriteupsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "writeups",
		Short: "Browse and manage CTF writeups",
	}
	cmd.AddCommand(
		newWriteupsListCmd(),
		newWriteupsShowCmd(),
		newWriteupsSearchCmd(),
		newWriteupsCreateCmd(),
		newWriteupsUpdateCmd(),
		newWriteupsUploadCmd(),
		newWriteupsGenerateCmd(),
		newWriteupsDeleteCmd(),
	)
	return cmd
}

func printWriteups(cmd *cobra.Command, writeups []portfolio.Writeup) error {
	if flagJSON {
		return writeJSON(cmd.OutOrStdout(), writeups)
	}
	rows := make([][]string, 0, len(writeups))
	for _, w := range writeups {
		rows = append(rows, []string{
			strconv.FormatInt(w.ID, 10),
			w.Platform,
			w.Difficulty,
			w.Category,
			truncate(w.Title, 48),
		})
	}
	return table(cmd.OutOrStdout(), []string{"ID", "PLATFORM", "DIFFICULTY", "CATEGORY", "TITLE"}, rows)
}

func newWriteupsListCmd() *cobra.Command {
	var (
		refresh    bool
		categories string
		tags       string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List writeups",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			writeups, err := a.api.ListWriteups(cmd.Context(), refresh)
			if err != nil {
				return err
			}
			return printWriteups(cmd, portfolio.FilterWriteups(writeups, splitComma(categories), splitComma(tags)))
		}),
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "Bypass the read cache")
	cmd.Flags().StringVar(&categories, "category", "", "Only these categories (comma-separated)")
	cmd.Flags().StringVar(&tags, "tag", "", "Only writeups with any of these tags (comma-separated)")
	return cmd
}

func newWriteupsShowCmd() *cobra.Command {
	var refresh bool
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one writeup",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			w, err := a.api.GetWriteup(cmd.Context(), id, refresh)
			if err != nil {
				return err
			}
			if flagJSON {
				return writeJSON(cmd.OutOrStdout(), w)
			}
			printWriteup(cmd, w)
			return nil
		}),
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "Bypass the read cache")
	return cmd
}

func printWriteup(cmd *cobra.Command, w portfolio.Writeup) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s\n", w.Title)
	fmt.Fprintf(out, "  Platform:   %s\n", w.Platform)
	fmt.Fprintf(out, "  Difficulty: %s\n", w.Difficulty)
	fmt.Fprintf(out, "  Category:   %s\n", w.Category)
	if w.Date != "" {
		fmt.Fprintf(out, "  Date:       %s\n", w.Date)
	}
	if len(w.Tags) > 0 {
		fmt.Fprintf(out, "  Tags:       %s\n", strings.Join(w.TagNames(), ", "))
	}
	if w.Summary != "" {
		fmt.Fprintf(out, "\n%s\n", w.Summary)
	}
	for _, section := range []struct {
		name  string
		items []string
	}{
		{"Methodology", w.Methodology},
		{"Tools", w.ToolsUsed},
		{"Key findings", w.KeyFindings},
		{"Lessons learned", w.LessonsLearned},
	} {
		if len(section.items) == 0 {
			continue
		}
		fmt.Fprintf(out, "\n%s:\n", section.name)
		for _, item := range section.items {
			fmt.Fprintf(out, "  - %s\n", item)
		}
	}
}

func newWriteupsSearchCmd() *cobra.Command {
	var remote bool
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search writeups by title, platform, category or tag",
		Args:  cobra.MinimumNArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			q := strings.Join(args, " ")
			if remote {
				found, err := a.api.SearchWriteups(cmd.Context(), q)
				if err != nil {
					return err
				}
				return printWriteups(cmd, found)
			}
			writeups, err := a.api.ListWriteups(cmd.Context(), false)
			if err != nil {
				return err
			}
			return printWriteups(cmd, portfolio.SearchWriteups(writeups, q))
		}),
	}
	cmd.Flags().BoolVar(&remote, "remote", false, "Search on the server instead of the cached list")
	return cmd
}

func newWriteupsCreateCmd() *cobra.Command {
	var (
		in   portfolio.Writeup
		file string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a writeup (admin)",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			if in.Title == "" || in.Platform == "" || in.Difficulty == "" || in.Category == "" {
				return usagef("--title, --platform, --difficulty and --category are required")
			}
			if err := a.requireLogin(); err != nil {
				return err
			}
			var created portfolio.Writeup
			if file != "" {
				doc, closeDoc, err := openDocument(file)
				if err != nil {
					return err
				}
				defer closeDoc()
				created, err = a.api.CreateWriteupWithFile(cmd.Context(), api.InputFromWriteup(in), doc)
				if err != nil {
					return &folioerr.MutationError{Op: folioerr.OpCreate, Err: err}
				}
			} else {
				list, err := api.NewWriteupList(a.api, optimistic.Config[portfolio.Writeup]{Logger: a.logger})
				if err != nil {
					return err
				}
				if created, err = list.Create(cmd.Context(), in); err != nil {
					return err
				}
			}
			if flagJSON {
				return writeJSON(cmd.OutOrStdout(), created)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created writeup %d.\n", created.ID)
			return nil
		}),
	}
	cmd.Flags().StringVar(&file, "file", "", "Writeup document to upload (markdown or PDF)")
	writeupFieldFlags(cmd, &in)
	return cmd
}

func newWriteupsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a writeup (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := a.requireLogin(); err != nil {
				return err
			}
			list, err := api.NewWriteupList(a.api, optimistic.Config[portfolio.Writeup]{Logger: a.logger})
			if err != nil {
				return err
			}
			if err := list.Load(cmd.Context()); err != nil {
				return err
			}
			if err := list.Delete(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted writeup %d.\n", id)
			return nil
		}),
	}
}

// openDocument opens path for upload. The returned func closes it.
func openDocument(path string) (api.Document, func(), error) {
	f, err := os.Open(path)
	if err != nil {
		return api.Document{}, nil, usagef("opening %s: %v", path, err)
	}
	return api.Document{Name: filepath.Base(path), Body: f}, func() { f.Close() }, nil
}

// writeupFieldFlags registers the editable writeup fields on cmd.
func writeupFieldFlags(cmd *cobra.Command, w *portfolio.Writeup) {
	f := cmd.Flags()
	f.StringVar(&w.Title, "title", "", "Title")
	f.StringVar(&w.Platform, "platform", "", "Platform (HackTheBox, TryHackMe, ...)")
	f.StringVar(&w.Difficulty, "difficulty", "", "Difficulty")
	f.StringVar(&w.Category, "category", "", "Category")
	f.StringVar(&w.Date, "date", "", "Date solved (YYYY-MM-DD)")
	f.StringVar(&w.TimeSpent, "time-spent", "", "Time spent")
	f.StringVar(&w.WriteupURL, "url", "", "Writeup document URL")
	f.StringVar(&w.Summary, "summary", "", "Summary")
}

// changedFields returns a patch applying every writeup flag set on cmd.
// The API ignores empty fields, so a flag set to "" is rejected.
func changedFields(cmd *cobra.Command, src portfolio.Writeup) (func(portfolio.Writeup) portfolio.Writeup, error) {
	fields := []struct {
		flag string
		val  string
		set  func(*portfolio.Writeup, string)
	}{
		{"title", src.Title, func(w *portfolio.Writeup, v string) { w.Title = v }},
		{"platform", src.Platform, func(w *portfolio.Writeup, v string) { w.Platform = v }},
		{"difficulty", src.Difficulty, func(w *portfolio.Writeup, v string) { w.Difficulty = v }},
		{"category", src.Category, func(w *portfolio.Writeup, v string) { w.Category = v }},
		{"date", src.Date, func(w *portfolio.Writeup, v string) { w.Date = v }},
		{"time-spent", src.TimeSpent, func(w *portfolio.Writeup, v string) { w.TimeSpent = v }},
		{"url", src.WriteupURL, func(w *portfolio.Writeup, v string) { w.WriteupURL = v }},
		{"summary", src.Summary, func(w *portfolio.Writeup, v string) { w.Summary = v }},
	}
	var apply []func(*portfolio.Writeup)
	for _, fld := range fields {
		if !cmd.Flags().Changed(fld.flag) {
			continue
		}
		if strings.TrimSpace(fld.val) == "" {
			return nil, usagef("--%s cannot be empty", fld.flag)
		}
		set, val := fld.set, fld.val
		apply = append(apply, func(w *portfolio.Writeup) { set(w, val) })
	}
	if len(apply) == 0 {
		return nil, usagef("nothing to update")
	}
	return func(w portfolio.Writeup) portfolio.Writeup {
		for _, fn := range apply {
			fn(&w)
		}
		return w
	}, nil
}

func newWriteupsUpdateCmd() *cobra.Command {
	var in portfolio.Writeup
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update fields of a writeup (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			patch, err := changedFields(cmd, in)
			if err != nil {
				return err
			}
			if err := a.requireLogin(); err != nil {
				return err
			}
			list, err := api.NewWriteupList(a.api, optimistic.Config[portfolio.Writeup]{Logger: a.logger})
			if err != nil {
				return err
			}
			if err := list.Load(cmd.Context()); err != nil {
				return err
			}
			updated, err := list.Update(cmd.Context(), id, patch)
			if err != nil {
				return err
			}
			if flagJSON {
				return writeJSON(cmd.OutOrStdout(), updated)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated writeup %d.\n", id)
			return nil
		}),
	}
	writeupFieldFlags(cmd, &in)
	return cmd
}

func newWriteupsUploadCmd() *cobra.Command {
	var (
		in   portfolio.Writeup
		file string
	)
	cmd := &cobra.Command{
		Use:   "upload <id> --file <path>",
		Short: "Replace a writeup's document (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if file == "" {
				return usagef("--file is required")
			}
			if err := a.requireLogin(); err != nil {
				return err
			}
			doc, closeDoc, err := openDocument(file)
			if err != nil {
				return err
			}
			defer closeDoc()
			w, err := a.api.UploadWriteupFile(cmd.Context(), id, api.InputFromWriteup(in), doc)
			if err != nil {
				return &folioerr.MutationError{Op: folioerr.OpUpdate, ID: id, Err: err}
			}
			if flagJSON {
				return writeJSON(cmd.OutOrStdout(), w)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Uploaded %s to writeup %d.\n", doc.Name, id)
			return nil
		}),
	}
	cmd.Flags().StringVar(&file, "file", "", "Document to upload (markdown or PDF)")
	writeupFieldFlags(cmd, &in)
	return cmd
}

func newWriteupsGenerateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "generate <id>",
		Short: "Generate a writeup's analysis sections from its document (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := a.requireLogin(); err != nil {
				return err
			}
			w, err := a.api.GenerateContent(cmd.Context(), id)
			if err != nil {
				return &folioerr.MutationError{Op: folioerr.OpUpdate, ID: id, Err: err}
			}
			if flagJSON {
				return writeJSON(cmd.OutOrStdout(), w)
			}
			printWriteup(cmd, w)
			return nil
		}),
	}
}
