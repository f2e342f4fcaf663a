package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/reoring/schemaforge/compiler"
	"github.com/reoring/schemaforge/descriptor"
	"github.com/reoring/schemaforge/extract"
	"github.com/reoring/schemaforge/grammar"
	"github.com/reoring/schemaforge/provider/openai"
)

type extractOptions struct {
	prompt      string
	schema      string
	model       string
	temperature float64
	maxTokens   int
	maxAttempts int
}

// newExtractCmd builds "define" (design a schema) or "parse" (fill one).
func newExtractCmd(root *rootOptions, flow string) *cobra.Command {
	opts := &extractOptions{}
	cmd := &cobra.Command{
		Use:   flow,
		Short: "Design a schema from a description",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(root)
			if err != nil {
				return err
			}
			if cfg.APIKey == "" {
				return errors.New("SCHEMAFORGE_API_KEY is not set")
			}
			var target *descriptor.Descriptor
			if flow == "parse" {
				m, err := grammar.LoadModelFile(opts.schema)
				if err != nil {
					return reportIssues(cmd.ErrOrStderr(), err)
				}
				if target, err = compiler.Compile(m); err != nil {
					return reportIssues(cmd.ErrOrStderr(), err)
				}
			} else {
				target = compiler.ModelTypeTarget()
			}

			req := extract.Request{
				Messages:    []extract.Message{extract.Text(extract.RoleUser, opts.prompt)},
				Model:       opts.model,
				Credential:  cfg.APIKey,
				Temperature: opts.temperature,
				MaxAttempts: &opts.maxAttempts,
			}
			if opts.maxTokens > 0 {
				req.MaxTokens = &opts.maxTokens
			}

			log := cfg.Logger(os.Stderr)
			client := extract.New(openai.New(cfg.ProviderBaseURL, openai.WithTimeout(cfg.ProviderTimeout)), extract.WithLogger(log))
			res, err := client.Extract(cmd.Context(), target, req)
			if err != nil {
				var ex *extract.RetriesExhaustedError
				if errors.As(err, &ex) {
					fmt.Fprintf(cmd.ErrOrStderr(), "gave up after %d attempts, %d tokens used\n", ex.Attempts, ex.TotalUsage.TotalTokens)
				}
				return reportIssues(cmd.ErrOrStderr(), err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "%d attempt(s), %d tokens\n", res.Attempts, res.Usage.TotalTokens)
			return printValue(cmd.OutOrStdout(), res.Value)
		},
	}
	if flow == "parse" {
		cmd.Short = "Extract data conforming to a schema from a prompt"
		cmd.Flags().StringVarP(&opts.schema, "schema", "s", "", "grammar file of the target model")
		_ = cmd.MarkFlagRequired("schema")
	}
	cmd.Flags().StringVarP(&opts.prompt, "prompt", "p", "", "user message")
	cmd.Flags().StringVarP(&opts.model, "model", "m", "gpt-4o-mini", "model identifier")
	cmd.Flags().Float64Var(&opts.temperature, "temperature", 0, "sampling temperature in [0, 1]")
	cmd.Flags().IntVar(&opts.maxTokens, "max-tokens", 0, "completion token cap (0 leaves it to the provider)")
	cmd.Flags().IntVar(&opts.maxAttempts, "max-attempts", extract.DefaultMaxAttempts, "attempts before giving up")
	_ = cmd.MarkFlagRequired("prompt")
	return cmd
}
