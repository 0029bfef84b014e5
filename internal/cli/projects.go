package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/dshills/folio/internal/github"
	"github.com/dshills/folio/internal/portfolio"
)

func newProjectsCmd() *cobra.Command {
	var (
		refresh    bool
		categories string
		techs      string
		facets     bool
	)
	cmd := &cobra.Command{
		Use:   "projects",
		Short: "List portfolio projects enriched with GitHub data",
		Long: `List portfolio projects. Cached GitHub data is shown when fresh;
otherwise the cache is revalidated before printing. --refresh always revalidates.`,
		Args: cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			gh := github.NewClient(a.cfg.GitHubToken, a.cfg.GitHubAPIURL)
			cache, err := portfolio.NewProjectCache(portfolio.ProjectCacheConfig{
				Store:  a.store,
				Source: gh,
				TTL:    a.cfg.ProjectsTTL.Std(),
				Logger: a.logger,
			})
			if err != nil {
				return err
			}
			defer cache.Close()

			state := cache.Init()
			a.logger.Info("Project cache loaded", "state", state.String())
			if refresh {
				cache.Refresh(cmd.Context())
			} else if cache.Start(cmd.Context()) {
				cache.Wait()
			}

			all := cache.Items()
			if facets {
				return printFacets(cmd, all)
			}
			projects := portfolio.FilterProjects(all, splitComma(categories), splitComma(techs))
			if flagJSON {
				return writeJSON(cmd.OutOrStdout(), projects)
			}
			rows := make([][]string, 0, len(projects))
			for _, p := range projects {
				updated := ""
				if !p.UpdatedAt.IsZero() {
					updated = p.UpdatedAt.Format("2006-01-02")
				}
				stars := ""
				if p.Stars > 0 {
					stars = strconv.Itoa(p.Stars)
				}
				rows = append(rows, []string{p.Slug, p.Category, stars, updated, truncate(p.Title, 48)})
			}
			return table(cmd.OutOrStdout(), []string{"SLUG", "CATEGORY", "STARS", "UPDATED", "TITLE"}, rows)
		}),
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "Revalidate GitHub data even when the cache is fresh")
	cmd.Flags().StringVar(&categories, "category", "", "Only these categories (comma-separated)")
	cmd.Flags().StringVar(&techs, "tech", "", "Only projects using any of these technologies (comma-separated)")
	cmd.Flags().BoolVar(&facets, "facets", false, "Print the available categories and technologies")
	return cmd
}

func printFacets(cmd *cobra.Command, projects []portfolio.Project) error {
	cats := portfolio.ProjectCategories(projects)
	techs := portfolio.ProjectTechnologies(projects)
	if flagJSON {
		return writeJSON(cmd.OutOrStdout(), map[string][]string{"categories": cats, "technologies": techs})
	}
	w := cmd.OutOrStdout()
	fmt.Fprintln(w, "Categories:")
	for _, c := range cats {
		fmt.Fprintf(w, "  %s\n", c)
	}
	fmt.Fprintln(w, "Technologies:")
	for _, t := range techs {
		fmt.Fprintf(w, "  %s\n", t)
	}
	return nil
}
