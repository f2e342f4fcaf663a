package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/reoring/schemaforge/compiler"
	"github.com/reoring/schemaforge/grammar"
	js "github.com/reoring/schemaforge/jsonschema"
)

func newCompileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compile <grammar.(json|yaml)>",
		Short: "Compile a grammar and print the JSON Schema of the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ft, err := grammar.LoadFile(args[0])
			if err != nil {
				return reportIssues(cmd.ErrOrStderr(), err)
			}
			target, err := compiler.Compile(ft)
			if err != nil {
				return reportIssues(cmd.ErrOrStderr(), err)
			}
			b, err := js.Marshal(target.JSONSchema())
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(b))
			return err
		},
	}
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <grammar.(json|yaml)> <data.(json|yaml)>",
		Short: "Validate a document against a grammar and print the normalized instance",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ft, err := grammar.LoadFile(args[0])
			if err != nil {
				return reportIssues(cmd.ErrOrStderr(), err)
			}
			target, err := compiler.Compile(ft)
			if err != nil {
				return reportIssues(cmd.ErrOrStderr(), err)
			}
			v, err := readValue(args[1])
			if err != nil {
				return reportIssues(cmd.ErrOrStderr(), err)
			}
			out, err := target.Parse(cmd.Context(), v)
			if err != nil {
				return reportIssues(cmd.ErrOrStderr(), err)
			}
			return printValue(cmd.OutOrStdout(), out)
		},
	}
}
