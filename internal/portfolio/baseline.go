package portfolio

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed projects.yaml
var baselineYAML []byte

// SentinelSlug must be present in any complete project cache.
const SentinelSlug = "port-cyber-scanner"

// BaselineProjects returns the embedded project list.
func BaselineProjects() []Project {
	projects, err := parseProjects(baselineYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded projects.yaml: %v", err))
	}
	return projects
}

// LoadProjects reads a project list from a YAML file.
func LoadProjects(path string) ([]Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading projects file: %w", err)
	}
	projects, err := parseProjects(data)
	if err != nil {
		return nil, fmt.Errorf("parsing projects file %s: %w", path, err)
	}
	return projects, nil
}

func parseProjects(data []byte) ([]Project, error) {
	var projects []Project
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&projects); err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(projects))
	for i, p := range projects {
		if p.Slug == "" {
			return nil, fmt.Errorf("project %d has no slug", i)
		}
		if seen[p.Slug] {
			return nil, fmt.Errorf("duplicate project slug %q", p.Slug)
		}
		seen[p.Slug] = true
	}
	return projects, nil
}
