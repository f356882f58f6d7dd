package main

import (
	"fmt"
	"os"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/goliatone/go-formstate/pkg/config"
	"github.com/goliatone/go-formstate/pkg/form"
	"github.com/goliatone/go-formstate/pkg/model"
	"github.com/goliatone/go-formstate/pkg/tui"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:           "formstate",
		Short:         "Drive declaratively-configured form state from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(newLintCmd())
	root.AddCommand(newInspectCmd())
	root.AddCommand(newFillCmd(&verbose))
	return root
}

func newLintCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lint <config>",
		Short: "Validate a form config document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := config.LoadFile(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", args[0])
			return nil
		},
	}
}

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <config>",
		Short: "Print the flattened field registry as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFile(args[0])
			if err != nil {
				return err
			}
			fields, err := model.OrderedFields(cfg)
			if err != nil {
				return err
			}
			out, err := json.MarshalIndent(fields, "", "  ")
			if err != nil {
				return fmt.Errorf("encode fields: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
}

func newFillCmd(verbose *bool) *cobra.Command {
	var mode string

	cmd := &cobra.Command{
		Use:   "fill <config>",
		Short: "Fill the form interactively and print the submitted payload",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFile(args[0])
			if err != nil {
				return err
			}

			logger := zap.NewNop()
			if *verbose {
				if logger, err = zap.NewDevelopment(); err != nil {
					return fmt.Errorf("init logger: %w", err)
				}
				defer logger.Sync()
			}

			f, err := form.New(cfg,
				form.WithMode(form.Mode(mode)),
				form.WithDependencyRevalidation(),
				form.WithLogger(logger),
			)
			if err != nil {
				return err
			}

			payload, err := tui.NewFiller(f, nil).Run(cmd.Context())
			if err != nil {
				return err
			}
			out, err := json.MarshalIndent(payload, "", "  ")
			if err != nil {
				return fmt.Errorf("encode payload: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
	cmd.Flags().StringVar(&mode, "mode", string(form.ModeOnChange), "validation trigger mode")
	return cmd
}
