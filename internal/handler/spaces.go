package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/templui/spaces/internal/authz"
	"github.com/templui/spaces/internal/ctxkeys"
	"github.com/templui/spaces/internal/service"
	"github.com/templui/spaces/internal/ui"
	"github.com/templui/spaces/internal/ui/pages"
)

type SpacesHandler struct {
	spaceService  *service.SpaceService
	pluginService *service.PluginService
}

func NewSpacesHandler(spaceService *service.SpaceService, pluginService *service.PluginService) *SpacesHandler {
	return &SpacesHandler{
		spaceService:  spaceService,
		pluginService: pluginService,
	}
}

// List shows the spaces the user belongs to; superusers see all of them.
// Space admins also get the plugin switches of each space.
func (h *SpacesHandler) List(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	spaces, err := h.spaceService.SpacesFor(user)
	if err != nil {
		fail(w, r, err, "failed to list spaces")
		return
	}

	entries := make([]pages.SpaceEntry, 0, len(spaces))
	for _, space := range spaces {
		entry := pages.SpaceEntry{Space: space}

		member, err := h.spaceService.Membership(space, user)
		if err != nil {
			fail(w, r, err, "failed to resolve membership")
			return
		}
		if authz.CanAdminSpace(authz.Subject{User: user, Member: member}) == authz.Allow {
			entry.Plugins, err = h.pluginService.States(space.ID)
			if err != nil {
				fail(w, r, err, "failed to list plugins")
				return
			}
		}

		entries = append(entries, entry)
	}

	ui.Render(w, r, pages.Spaces(pages.SpacesPage{
		Layout: layout(w, r, "Spaces"),
		Spaces: entries,
	}))
}

func (h *SpacesHandler) EnablePlugin(w http.ResponseWriter, r *http.Request) {
	space := ctxkeys.Space(r.Context())
	kind := r.PathValue("kind")

	_, err := h.pluginService.Enable(space.ID, kind)
	if errors.Is(err, service.ErrUnknownPlugin) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		fail(w, r, err, "failed to enable plugin")
		return
	}

	d, _ := h.pluginService.Descriptor(kind)
	slog.Info("plugin enabled", "space_id", space.ID, "kind", kind)
	ui.SetFlash(w, d.Title+" enabled.")
	http.Redirect(w, r, "/spaces/"+space.Slug+"/files/", http.StatusFound)
}

func (h *SpacesHandler) DisablePlugin(w http.ResponseWriter, r *http.Request) {
	space := ctxkeys.Space(r.Context())
	kind := r.PathValue("kind")

	d, ok := h.pluginService.Descriptor(kind)
	if !ok {
		http.NotFound(w, r)
		return
	}

	err := h.pluginService.Disable(space.ID, kind)
	if err != nil {
		fail(w, r, err, "failed to disable plugin")
		return
	}

	slog.Info("plugin disabled", "space_id", space.ID, "kind", kind)
	ui.SetFlash(w, d.Title+" disabled.")
	http.Redirect(w, r, "/spaces", http.StatusFound)
}

// Home sends visitors to their spaces or to the login page
func (h *SpacesHandler) Home(w http.ResponseWriter, r *http.Request) {
	if ctxkeys.User(r.Context()) == nil {
		http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/spaces", http.StatusSeeOther)
}
