package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bfhl/bfhl/internal/ailink"
	"github.com/bfhl/bfhl/internal/config"
	"github.com/bfhl/bfhl/internal/dispatch"
	errwrap "github.com/bfhl/bfhl/internal/errors"
	"github.com/bfhl/bfhl/internal/output"
)

var (
	askFormat string
	askRaw    bool
)

var askCmd = &cobra.Command{
	Use:   "ask <question>...",
	Short: "Ask the AI provider a question",
	Long: `Send a question to the configured AI provider and print the cleaned
answer, exactly as the AI operation of POST /bfhl would return it.

Use --raw to print the provider's unprocessed text instead.`,
	Example: `  bfhl ask What is the capital of France?
  GEMINI_API_KEY=... bfhl ask --raw "Largest planet?"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		question := strings.Join(args, " ")

		cfg := config.GetConfig()
		if cfg == nil {
			return errwrap.NewConfigInvalidError("configuration not loaded")
		}

		svc, err := ailink.New(ctx, cfg.AI)
		if err != nil {
			return errwrap.WrapConfigInvalid(ctx, err, "ai provider initialization failed")
		}

		if askRaw {
			text, err := svc.Ask(ctx, question)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), text)
			return err
		}

		format, err := output.ParseFormat(askFormat)
		if err != nil {
			return err
		}
		return runOperation(ctx, cmd.OutOrStdout(), dispatch.New(svc), dispatch.KindAI, question, format)
	},
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().StringVarP(&askFormat, "format", "f", "table", "output format: table, json, yaml, markdown")
	askCmd.Flags().BoolVar(&askRaw, "raw", false, "print the provider response without cleanup")
}
