package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/templui/spaces/internal/authz"
	"github.com/templui/spaces/internal/ctxkeys"
	"github.com/templui/spaces/internal/service"
)

func forbidden(w http.ResponseWriter) {
	http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
}

func notFound(w http.ResponseWriter) {
	http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
}

// RequireSpaceAccess resolves the {space} slug and the caller's membership.
// Anonymous callers get 403 whether or not the space exists.
func RequireSpaceAccess(spaceService *service.SpaceService) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			user := ctxkeys.User(r.Context())
			if user == nil {
				forbidden(w)
				return
			}

			space, err := spaceService.BySlug(r.PathValue("space"))
			if errors.Is(err, service.ErrNotFound) {
				notFound(w)
				return
			}
			if err != nil {
				slog.Error("failed to resolve space", "error", err, "slug", r.PathValue("space"))
				http.Error(w, "internal server error", http.StatusInternalServerError)
				return
			}

			member, err := spaceService.Membership(space, user)
			if err != nil {
				slog.Error("failed to resolve membership", "error", err, "space_id", space.ID, "user_id", user.ID)
				http.Error(w, "internal server error", http.StatusInternalServerError)
				return
			}

			if authz.CanAccessSpace(authz.Subject{User: user, Member: member}) == authz.Deny {
				slog.Warn("space access denied", "space_id", space.ID, "user_id", user.ID)
				forbidden(w)
				return
			}

			ctx := ctxkeys.WithSpace(r.Context(), space)
			ctx = ctxkeys.WithMember(ctx, member)
			next(w, r.WithContext(ctx))
		}
	}
}

// RequirePlugin resolves the active instance of kind for the space already on
// the context. Missing or disabled plugins answer 404.
func RequirePlugin(pluginService *service.PluginService, kind string) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			space := ctxkeys.Space(r.Context())
			if space == nil {
				notFound(w)
				return
			}

			instance, err := pluginService.Instance(space.ID, kind)
			if errors.Is(err, service.ErrNotFound) {
				notFound(w)
				return
			}
			if err != nil {
				slog.Error("failed to resolve plugin", "error", err, "space_id", space.ID, "kind", kind)
				http.Error(w, "internal server error", http.StatusInternalServerError)
				return
			}

			next(w, r.WithContext(ctxkeys.WithFileManager(r.Context(), instance)))
		}
	}
}

// RequireSpaceAdmin gates plugin management
func RequireSpaceAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		subject := authz.Subject{User: ctxkeys.User(r.Context()), Member: ctxkeys.Member(r.Context())}
		if authz.CanAdminSpace(subject) == authz.Deny {
			forbidden(w)
			return
		}
		next(w, r)
	}
}
