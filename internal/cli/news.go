package cli

import (
	"github.com/spf13/cobra"

	"github.com/dshills/folio/internal/rss"
)

func newNewsCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "news",
		Short: "Show the latest security news from the configured feeds",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			feeds := a.cfg.Feeds
			if len(feeds) == 0 {
				feeds = rss.DefaultFeeds
			}
			posts, err := rss.NewClient(a.cfg.FeedProxyURL, a.logger).Aggregate(cmd.Context(), feeds)
			if err != nil {
				return err
			}
			if limit > 0 && len(posts) > limit {
				posts = posts[:limit]
			}
			if flagJSON {
				return writeJSON(cmd.OutOrStdout(), posts)
			}
			rows := make([][]string, 0, len(posts))
			for _, p := range posts {
				date := ""
				if !p.Date.IsZero() {
					date = p.Date.Format("2006-01-02")
				}
				rows = append(rows, []string{date, p.Category, truncate(p.Author, 20), truncate(p.Title, 70)})
			}
			return table(cmd.OutOrStdout(), []string{"DATE", "TOPIC", "AUTHOR", "TITLE"}, rows)
		}),
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum posts to show (0 for all)")
	return cmd
}
