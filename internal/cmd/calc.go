package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/bfhl/bfhl/internal/dispatch"
	errwrap "github.com/bfhl/bfhl/internal/errors"
	"github.com/bfhl/bfhl/internal/output"
)

var calcFormat string

var calcCmd = &cobra.Command{
	Use:   "calc",
	Short: "Run a BFHL operation locally",
	Long: `Run fibonacci, prime, lcm or hcf without starting the server.

Arguments go through the same validation as POST /bfhl, so a value the API
would reject is rejected here with the same message.`,
}

func init() {
	rootCmd.AddCommand(calcCmd)
	calcCmd.PersistentFlags().StringVarP(&calcFormat, "format", "f", "table", "output format: table, json, yaml, markdown")

	calcCmd.AddCommand(&cobra.Command{
		Use:     "fibonacci <n>",
		Short:   "First n Fibonacci numbers (1-1000)",
		Example: "  bfhl calc fibonacci 7",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCalc(cmd, dispatch.KindFibonacci, argValue(args[0]))
		},
	})

	for _, op := range []struct {
		kind    dispatch.Kind
		short   string
		example string
	}{
		{dispatch.KindPrime, "Primes among the given integers, in input order", "  bfhl calc prime 2 4 7 9 11"},
		{dispatch.KindLCM, "Least common multiple of the given integers", "  bfhl calc lcm 12 18 24"},
		{dispatch.KindHCF, "Highest common factor of the given integers", "  bfhl calc hcf 24 36 60"},
	} {
		kind := op.kind
		calcCmd.AddCommand(&cobra.Command{
			Use:     string(kind) + " <int>...",
			Short:   op.short,
			Example: op.example,
			Args:    cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runCalc(cmd, kind, argValues(args))
			},
		})
	}
}

func runCalc(cmd *cobra.Command, kind dispatch.Kind, value any) error {
	format, err := output.ParseFormat(calcFormat)
	if err != nil {
		return err
	}
	return runOperation(cmd.Context(), cmd.OutOrStdout(), dispatch.New(nil), kind, value, format)
}

// runOperation builds the request body for kind, validates and executes it,
// then renders the outcome. A rendered failure is still returned so the
// process exits non-zero.
func runOperation(ctx context.Context, w io.Writer, d *dispatch.Dispatcher, kind dispatch.Kind, value any, format output.Format) error {
	if ctx == nil {
		ctx = context.Background()
	}

	result := &output.Result{Operation: string(kind), Input: value}

	body, err := json.Marshal(map[string]any{string(kind): value})
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	data, runErr := d.Handle(ctx, body)
	if runErr != nil {
		result.Error = errwrap.EnsureEnvelope(runErr).Message
	} else {
		result.Data = data
	}

	rendered, err := output.NewFormatter(format).Format(result)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, rendered); err != nil {
		return err
	}
	return runErr
}

// argValue passes numeric arguments through as JSON numbers and everything
// else as strings, leaving rejection to request validation.
func argValue(arg string) any {
	if _, err := strconv.ParseFloat(arg, 64); err == nil && json.Valid([]byte(arg)) {
		return json.Number(arg)
	}
	return arg
}

func argValues(args []string) []any {
	values := make([]any, 0, len(args))
	for _, arg := range args {
		values = append(values, argValue(arg))
	}
	return values
}
