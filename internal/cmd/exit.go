package cmd

import (
	stderrors "errors"
	"fmt"
	"os"

	"github.com/fulmenhq/gofulmen/errors"
	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/fulmenhq/gofulmen/logging"
	"go.uber.org/zap"

	"github.com/bfhl/bfhl/internal/ailink"
	errwrap "github.com/bfhl/bfhl/internal/errors"
)

// ExitCodeFor picks the foundry exit code for a failed command: provider
// failures and configuration problems get their own codes, everything else
// is a plain failure.
func ExitCodeFor(err error) foundry.ExitCode {
	var aerr *ailink.Error
	if stderrors.As(err, &aerr) {
		if aerr.Kind == ailink.KindNotConfigured {
			return foundry.ExitConfigInvalid
		}
		return foundry.ExitExternalServiceUnavailable
	}

	var env *errors.ErrorEnvelope
	if stderrors.As(err, &env) && env.Code == errwrap.CodeConfigInvalid {
		return foundry.ExitConfigInvalid
	}
	return foundry.ExitFailure
}

// ExitWithCode logs err with the exit code's catalog metadata and exits.
// A nil logger falls back to stderr.
func ExitWithCode(logger *logging.Logger, exitCode foundry.ExitCode, msg string, err error) {
	if logger == nil {
		ExitWithCodeStderr(exitCode, msg, err)
		return
	}

	info, ok := foundry.GetExitCodeInfo(exitCode)
	if !ok {
		fmt.Fprintf(os.Stderr, "FATAL: %s: %v (exit code: %d)\n", msg, err, exitCode)
		os.Exit(int(exitCode))
	}

	fields := []zap.Field{
		zap.Int("exit_code", info.Code),
		zap.String("exit_name", info.Name),
		zap.String("exit_category", info.Category),
	}
	if env, ok := err.(*errors.ErrorEnvelope); ok {
		fields = append(fields,
			zap.String("error_code", env.Code),
			zap.String("correlation_id", env.CorrelationID),
		)
		if env.Context != nil {
			fields = append(fields, zap.Any("error_context", env.Context))
		}
	}
	fields = append(fields, zap.Error(err))
	logger.Error(msg, fields...)

	os.Exit(info.Code)
}

// ExitWithCodeStderr writes msg and err to stderr and exits. Used before a
// logger exists and by main.
func ExitWithCodeStderr(exitCode foundry.ExitCode, msg string, err error) {
	code := int(exitCode)
	info, ok := foundry.GetExitCodeInfo(exitCode)
	if ok {
		code = info.Code
	}

	switch env, isEnvelope := err.(*errors.ErrorEnvelope); {
	case isEnvelope:
		fmt.Fprintf(os.Stderr, "FATAL: %s [%s]: %s\n", msg, env.Code, env.Message)
		if original, ok := env.Original.(error); ok && original != nil {
			fmt.Fprintf(os.Stderr, "Underlying error: %v\n", original)
		}
	case err != nil:
		fmt.Fprintf(os.Stderr, "FATAL: %s: %v\n", msg, err)
	default:
		fmt.Fprintf(os.Stderr, "FATAL: %s\n", msg)
	}
	if ok {
		fmt.Fprintf(os.Stderr, "Exit Code: %d (%s) - %s\n", info.Code, info.Name, info.Description)
	}

	os.Exit(code)
}
