package app

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/templui/spaces/internal/config"
	"github.com/templui/spaces/internal/db"
	"github.com/templui/spaces/internal/repository"
	"github.com/templui/spaces/internal/service"
	"github.com/templui/spaces/internal/storage"
)

type App struct {
	Cfg                 *config.Config
	DB                  *sqlx.DB
	Storage             storage.Storage
	AuthService         *service.AuthService
	UserService         *service.UserService
	SpaceService        *service.SpaceService
	PluginService       *service.PluginService
	ActivityService     *service.ActivityService
	NotificationService *service.NotificationService
	FolderService       *service.FolderService
	FileService         *service.FileService

	done chan struct{}
}

func New(cfg *config.Config) (*App, error) {
	// Initialize database
	database, err := db.Open(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Run database migrations
	err = db.Migrate(database.DB, cfg.DBDriver)
	if err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	// Storage
	fileStorage, err := storage.New(cfg)
	if err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	return Wire(cfg, database, fileStorage, service.NewEmailService(cfg.ResendAPIKey, cfg.EmailFrom, cfg.IsDevelopment()))
}

// Wire builds the services on top of an open database and storage backend.
// Tests call it with a temp database, an in-memory filesystem and a fake mailer.
func Wire(cfg *config.Config, database *sqlx.DB, fileStorage storage.Storage, mailer service.Mailer) (*App, error) {
	// Repositories
	userRepository := repository.NewUserRepository(database)
	spaceRepository := repository.NewSpaceRepository(database)
	pluginRepository := repository.NewPluginRepository(database)
	folderRepository := repository.NewFolderRepository(database)
	fileRepository := repository.NewFileRepository(database)
	activityRepository := repository.NewActivityRepository(database)
	notificationTypeRepository := repository.NewNotificationTypeRepository(database)

	// Services
	userService := service.NewUserService(userRepository)
	authService := service.NewAuthService(userRepository, cfg.JWTSecret, cfg.JWTExpiry, cfg.SecureCookies())
	spaceService := service.NewSpaceService(spaceRepository)
	pluginService := service.NewPluginService(pluginRepository, service.FilesPlugin)
	activityService := service.NewActivityService(activityRepository)
	notificationService := service.NewNotificationService(notificationTypeRepository, spaceRepository, mailer, cfg.AppName)
	folderService := service.NewFolderService(folderRepository, fileStorage, activityService)
	fileService := service.NewFileService(
		fileRepository,
		folderRepository,
		fileStorage,
		activityService,
		notificationService,
		cfg.MaxUploadSize,
		cfg.AppURL,
	)

	err := notificationService.RegisterFileNotices()
	if err != nil {
		return nil, fmt.Errorf("failed to register notification types: %w", err)
	}

	return &App{
		Cfg:                 cfg,
		DB:                  database,
		Storage:             fileStorage,
		AuthService:         authService,
		UserService:         userService,
		SpaceService:        spaceService,
		PluginService:       pluginService,
		ActivityService:     activityService,
		NotificationService: notificationService,
		FolderService:       folderService,
		FileService:         fileService,
		done:                make(chan struct{}),
	}, nil
}

// Done is closed when the app shuts down; background loops stop on it
func (a *App) Done() <-chan struct{} {
	return a.done
}

func (a *App) Close() error {
	select {
	case <-a.done:
	default:
		close(a.done)
	}
	if a.DB != nil {
		return db.Close(a.DB)
	}
	return nil
}
