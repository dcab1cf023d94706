package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/templui/spaces/internal/app"
	"github.com/templui/spaces/internal/handler"
	"github.com/templui/spaces/internal/middleware"
	"github.com/templui/spaces/internal/model"
)

// multipart framing and form fields on top of the payload itself
const formOverhead = 1 << 20

func SetupRoutes(app *app.App) http.Handler {
	// Handlers
	auth := handler.NewAuthHandler(app.AuthService)
	spaces := handler.NewSpacesHandler(app.SpaceService, app.PluginService)
	files := handler.NewFilesHandler(app.FolderService, app.FileService, app.SpaceService, app.ActivityService)
	media := handler.NewMediaHandler(app.SpaceService, app.Storage)

	// Gates
	rateLimiter := middleware.NewRateLimiter(10, time.Minute, app.Done())
	spaceAccess := middleware.RequireSpaceAccess(app.SpaceService)
	filesPlugin := middleware.RequirePlugin(app.PluginService, model.PluginFiles)
	inFiles := func(h http.HandlerFunc) http.HandlerFunc {
		return spaceAccess(filesPlugin(h))
	}

	mux := http.NewServeMux()

	// ============================================================================
	// PUBLIC ROUTES
	// ============================================================================

	mux.HandleFunc("GET /{$}", spaces.Home)

	// Auth
	mux.HandleFunc("GET /auth/login", middleware.RequireGuest(auth.LoginPage))
	mux.HandleFunc("POST /auth/login", rateLimiter.Limit(middleware.RequireGuest(auth.Login)))
	mux.HandleFunc("POST /auth/logout", auth.Logout)

	// Media (permission checked per path)
	mediaURL := strings.TrimSuffix(app.Cfg.MediaURL, "/")
	mux.HandleFunc("GET "+mediaURL+"/{path...}", media.Serve)

	// ============================================================================
	// SPACES
	// ============================================================================

	mux.HandleFunc("GET /spaces", middleware.RequireAuth(spaces.List))

	// Plugin management
	mux.HandleFunc("POST /spaces/{space}/plugins/{kind}/enable", spaceAccess(middleware.RequireSpaceAdmin(spaces.EnablePlugin)))
	mux.HandleFunc("POST /spaces/{space}/plugins/{kind}/disable", spaceAccess(middleware.RequireSpaceAdmin(spaces.DisablePlugin)))

	// ============================================================================
	// FILES PLUGIN (/spaces/{space}/files/*)
	// ============================================================================

	mux.HandleFunc("GET /spaces/{space}/files/{$}", inFiles(files.Index))
	mux.HandleFunc("GET /spaces/{space}/files/folder/{id}", inFiles(files.FolderPage))
	mux.HandleFunc("GET /spaces/{space}/files/file/{id}", inFiles(files.FilePage))
	mux.HandleFunc("GET /spaces/{space}/files/search", inFiles(files.Search))

	// Create
	mux.HandleFunc("GET /spaces/{space}/files/add_folder", inFiles(files.AddFolderPage))
	mux.HandleFunc("GET /spaces/{space}/files/add_folder/{parent}", inFiles(files.AddFolderPage))
	mux.HandleFunc("POST /spaces/{space}/files/add_folder", inFiles(files.AddFolder))
	mux.HandleFunc("POST /spaces/{space}/files/add_folder/{parent}", inFiles(files.AddFolder))
	mux.HandleFunc("GET /spaces/{space}/files/add_file", inFiles(files.AddFilePage))
	mux.HandleFunc("GET /spaces/{space}/files/add_file/{parent}", inFiles(files.AddFilePage))
	mux.HandleFunc("POST /spaces/{space}/files/add_file", inFiles(files.AddFile))
	mux.HandleFunc("POST /spaces/{space}/files/add_file/{parent}", inFiles(files.AddFile))

	// Edit
	mux.HandleFunc("GET /spaces/{space}/files/folder/edit/{id}", inFiles(files.EditFolderPage))
	mux.HandleFunc("POST /spaces/{space}/files/folder/edit/{id}", inFiles(files.EditFolder))
	mux.HandleFunc("GET /spaces/{space}/files/file/edit/{id}", inFiles(files.EditFilePage))
	mux.HandleFunc("POST /spaces/{space}/files/file/edit/{id}", inFiles(files.EditFile))

	// Delete
	mux.HandleFunc("GET /spaces/{space}/files/folder/delete/{id}", inFiles(files.DeleteFolderPage))
	mux.HandleFunc("POST /spaces/{space}/files/folder/delete/{id}", inFiles(files.DeleteFolder))
	mux.HandleFunc("GET /spaces/{space}/files/file/delete/{id}", inFiles(files.DeleteFilePage))
	mux.HandleFunc("POST /spaces/{space}/files/file/delete/{id}", inFiles(files.DeleteFile))

	// Global middleware - executed in order (top to bottom)
	handler := middleware.Chain(
		mux,
		middleware.Config(app.Cfg), // Config must be first (needed by SecurityHeaders for S3 endpoint)
		middleware.NonceMiddleware,
		middleware.SecurityHeaders,
		middleware.RequestLogging(mediaURL+"/", "/favicon.ico"),
		middleware.MaxBodySize(app.Cfg.MaxUploadSize+formOverhead),
		middleware.CSRFProtection,
		middleware.AuthMiddleware(app.AuthService, app.UserService),
		middleware.WithURLPath,
	)

	return handler
}
