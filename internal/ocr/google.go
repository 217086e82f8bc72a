package ocr

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/api/option"
)

// googleClientOptions builds credential and endpoint options for Google clients.
// Inline JSON wins over a credentials file; with neither, application default
// credentials are used.
func googleClientOptions(cfg Config) []option.ClientOption {
	var opts []option.ClientOption
	if cfg.CredentialsJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
	} else if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	return opts
}

func hasExplicitCredentials(cfg Config) bool {
	return cfg.CredentialsJSON != "" || cfg.CredentialsFile != ""
}

// callError maps a failed engine call, keeping cancellation distinguishable.
func callError(op string, ctx context.Context, err error, service string) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return WrapOCRError(op, ErrContextCanceled, ctxErr.Error())
	}
	if errors.Is(err, context.Canceled) {
		return WrapOCRError(op, ErrContextCanceled, err.Error())
	}
	return WrapOCRError(op, ErrOCRFailed, fmt.Sprintf("%s call failed: %v", service, err))
}
