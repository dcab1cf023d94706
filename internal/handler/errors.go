package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/templui/spaces/internal/ctxkeys"
	"github.com/templui/spaces/internal/service"
	"github.com/templui/spaces/internal/validation"
)

// fail answers a service error. Validation errors are not handled here,
// callers re-render their form for those.
func fail(w http.ResponseWriter, r *http.Request, err error, msg string) {
	switch {
	case errors.Is(err, service.ErrForbidden):
		http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
	case errors.Is(err, service.ErrNotFound):
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	default:
		attrs := []any{"error", err, "path", r.URL.Path}
		if user := ctxkeys.User(r.Context()); user != nil {
			attrs = append(attrs, "user_id", user.ID)
		}
		slog.Error(msg, attrs...)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

func formErrors(err error) (validation.Errors, bool) {
	var errs validation.Errors
	if errors.As(err, &errs) {
		return errs, true
	}
	return nil, false
}

// scope assembles the tenant the middleware resolved for this request
func scope(r *http.Request) service.Scope {
	ctx := r.Context()
	return service.Scope{
		User:        ctxkeys.User(ctx),
		Member:      ctxkeys.Member(ctx),
		Space:       ctxkeys.Space(ctx),
		FileManager: ctxkeys.FileManager(ctx),
	}
}
