package transfer

import (
	"context"
	"fmt"
	"net/http"

	"github.com/meigma/paramstore/core"
)

// classifyStatus maps an HTTP response status to the transfer error
// taxonomy. Missing objects and rejected sessions are permanent; anything
// else (rate limits, proxy hiccups, server errors) is worth retrying.
func classifyStatus(code int) error {
	switch code {
	case http.StatusNotFound, http.StatusGone:
		return fmt.Errorf("%w (status %d)", core.ErrNotFound, code)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w (status %d)", core.ErrUnauthorized, code)
	default:
		return fmt.Errorf("%w: status %d %s", core.ErrTransientTransfer, code, http.StatusText(code))
	}
}

// classifyNetErr maps a transport-level error. Caller-initiated
// cancellation passes through so orchestrators can distinguish an aborted
// run from a flaky network.
func classifyNetErr(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return fmt.Errorf("%w: %v", core.ErrTransientTransfer, err)
}
