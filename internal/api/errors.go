package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/RowanDark/cryptolab/internal/analysis"
	"github.com/RowanDark/cryptolab/internal/bytecodec"
	"github.com/RowanDark/cryptolab/internal/cipher"
	"github.com/RowanDark/cryptolab/internal/engine"
)

// statusFor maps engine and pipeline errors onto HTTP status codes.
func statusFor(ctx context.Context, err error) int {
	switch {
	case errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled):
		return http.StatusRequestTimeout
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, cipher.ErrOperationNotFound), errors.Is(err, cipher.ErrRecipeNotFound):
		return http.StatusNotFound
	case errors.Is(err, cipher.ErrUnknownScheme),
		errors.Is(err, bytecodec.ErrUnrepresentable),
		errors.Is(err, analysis.ErrNotBreakable),
		errors.Is(err, engine.ErrHybridNeedsIV):
		return http.StatusBadRequest
	default:
		return http.StatusUnprocessableEntity
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(r.Context(), err)
	switch status {
	case http.StatusRequestTimeout:
		s.writeError(w, status, "request canceled")
	case http.StatusGatewayTimeout:
		s.writeError(w, status, "request timeout")
	default:
		s.writeError(w, status, err.Error())
	}
}
