package portfolio

import (
	"slices"
	"strings"
)

// FilterProjects keeps projects whose category is one of categories and that
// use at least one of technologies. An empty selector matches everything.
func FilterProjects(projects []Project, categories, technologies []string) []Project {
	var out []Project
	for _, p := range projects {
		if len(categories) > 0 && !slices.Contains(categories, p.Category) {
			continue
		}
		if len(technologies) > 0 && !containsAny(p.Technologies, technologies) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// ProjectCategories returns the distinct categories in first-seen order.
func ProjectCategories(projects []Project) []string {
	var out []string
	for _, p := range projects {
		if p.Category != "" && !slices.Contains(out, p.Category) {
			out = append(out, p.Category)
		}
	}
	return out
}

// ProjectTechnologies returns the distinct technologies, sorted.
func ProjectTechnologies(projects []Project) []string {
	var out []string
	for _, p := range projects {
		for _, t := range p.Technologies {
			if !slices.Contains(out, t) {
				out = append(out, t)
			}
		}
	}
	slices.Sort(out)
	return out
}

// FilterWriteups keeps writeups in one of categories that carry one of tags.
func FilterWriteups(writeups []Writeup, categories, tags []string) []Writeup {
	var out []Writeup
	for _, w := range writeups {
		if len(categories) > 0 && !slices.Contains(categories, w.Category) {
			continue
		}
		if len(tags) > 0 && !containsAny(w.TagNames(), tags) {
			continue
		}
		out = append(out, w)
	}
	return out
}

// SearchWriteups matches query case-insensitively against title, platform,
// category, difficulty and tag names. A blank query returns every writeup.
func SearchWriteups(writeups []Writeup, query string) []Writeup {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return slices.Clone(writeups)
	}
	var out []Writeup
	for _, w := range writeups {
		fields := append([]string{w.Title, w.Platform, w.Category, w.Difficulty}, w.TagNames()...)
		for _, f := range fields {
			if strings.Contains(strings.ToLower(f), q) {
				out = append(out, w)
				break
			}
		}
	}
	return out
}

// WriteupCategories returns the distinct non-empty categories, sorted.
func WriteupCategories(writeups []Writeup) []string {
	var out []string
	for _, w := range writeups {
		if w.Category != "" && !slices.Contains(out, w.Category) {
			out = append(out, w.Category)
		}
	}
	slices.Sort(out)
	return out
}

func containsAny(have, want []string) bool {
	for _, w := range want {
		if slices.Contains(have, w) {
			return true
		}
	}
	return false
}
