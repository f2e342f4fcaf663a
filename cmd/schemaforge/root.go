package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	sf "github.com/reoring/schemaforge"
	"github.com/reoring/schemaforge/i18n"
	"github.com/reoring/schemaforge/internal/config"
)

type rootOptions struct {
	configPath string
	lang       string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "schemaforge",
		Short:         "Compile schema grammars and extract structured data with generative models",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.lang != "" {
				i18n.SetLanguage(opts.lang)
			}
		},
	}
	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "YAML configuration file")
	cmd.PersistentFlags().StringVar(&opts.lang, "lang", "", "language of issue messages (en, ja)")

	cmd.AddCommand(
		newServeCmd(opts),
		newCompileCmd(),
		newValidateCmd(),
		newExtractCmd(opts, "define"),
		newExtractCmd(opts, "parse"),
	)
	return cmd
}

// readValue loads a JSON or YAML document, chosen by extension, into the
// generic value tree.
func readValue(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return sf.DecodeYAML(data)
	default:
		return sf.DecodeJSON(data)
	}
}

// printValue writes v as one line of JSON.
func printValue(w io.Writer, v any) error {
	b, err := sf.MarshalValue(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

// reportIssues prints issues one per line and returns an error summarising
// them, or returns err unchanged when it carries none.
func reportIssues(w io.Writer, err error) error {
	iss, ok := sf.AsIssues(err)
	if !ok {
		return err
	}
	for _, it := range iss {
		fmt.Fprintf(w, "%s\t%s\t%s\n", it.Path, it.Code, it.Message)
	}
	return fmt.Errorf("%d issue(s)", len(iss))
}

func loadConfig(opts *rootOptions) (config.Config, error) {
	return config.Load(opts.configPath)
}
