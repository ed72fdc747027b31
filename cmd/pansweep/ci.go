package pansweep

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

type ciTemplate struct {
	path    string
	content string
}

var ciTemplates = map[string]ciTemplate{
	"github": {
		path: ".github/workflows/pansweep.yml",
		content: `name: pansweep
on: [push, pull_request]
jobs:
  scan:
    runs-on: ubuntu-latest
    permissions:
      contents: read
      security-events: write
    steps:
      - uses: actions/checkout@v4
      - uses: actions/setup-go@v5
        with:
          go-version: stable
      - run: go install github.com/pansweep/pansweep@latest
      - run: pansweep scan --no-audit --no-cache --format sarif -o pansweep.sarif
      - uses: github/codeql-action/upload-sarif@v3
        if: always()
        with:
          sarif_file: pansweep.sarif
`,
	},
	"gitlab": {
		path: ".gitlab-ci.yml",
		content: `stages: [scan]
pansweep:
  stage: scan
  image: golang:1.25
  script:
    - go install github.com/pansweep/pansweep@latest
    - pansweep scan --no-audit --no-cache --format sarif -o pansweep.sarif
  artifacts:
    when: always
    paths:
      - pansweep.sarif
`,
	},
	"bitbucket": {
		path: "bitbucket-pipelines.yml",
		content: `pipelines:
  default:
    - step:
        name: pansweep
        image: golang:1.25
        script:
          - go install github.com/pansweep/pansweep@latest
          - pansweep scan --no-audit --no-cache --format sarif -o pansweep.sarif
        artifacts:
          - pansweep.sarif
`,
	},
	"azure": {
		path: "azure-pipelines.yml",
		content: `trigger:
- main

pool:
  vmImage: 'ubuntu-latest'

steps:
- task: GoTool@0
  inputs:
    version: '1.25.x'
- script: |
    go install github.com/pansweep/pansweep@latest
    $(go env GOPATH)/bin/pansweep scan --no-audit --no-cache --format sarif -o pansweep.sarif
  displayName: 'pansweep scan'
- publish: pansweep.sarif
  artifact: pansweep-sarif
  condition: succeededOrFailed()
`,
	},
}

func ciProviders() []string {
	names := make([]string, 0, len(ciTemplates))
	for k := range ciTemplates {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func init() {
	ci := &cobra.Command{Use: "ci", Short: "CI template helpers for multiple providers"}
	rootCmd.AddCommand(ci)

	var provider string
	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a CI pipeline template for your provider",
		RunE: func(cmd *cobra.Command, _ []string) error {
			tpl, ok := ciTemplates[provider]
			if !ok {
				return fmt.Errorf("unknown --provider %q. Supported: %s", provider, strings.Join(ciProviders(), ", "))
			}
			if _, err := os.Stat(tpl.path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", tpl.path)
			}
			if err := os.MkdirAll(filepath.Dir(tpl.path), 0o755); err != nil {
				return err
			}
			if err := os.WriteFile(tpl.path, []byte(tpl.content), 0o644); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Wrote", tpl.path)
			return nil
		},
	}
	initCmd.Flags().StringVar(&provider, "provider", "", "CI provider: "+strings.Join(ciProviders(), " | "))
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	if err := initCmd.MarkFlagRequired("provider"); err != nil {
		fmt.Fprintln(os.Stderr, "warning: could not mark --provider as required:", err)
	}
	ci.AddCommand(initCmd)
}
