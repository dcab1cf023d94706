package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/templui/spaces/internal/app"
	"github.com/templui/spaces/internal/config"
	"github.com/templui/spaces/internal/model"
	"github.com/templui/spaces/internal/repository"
	"github.com/templui/spaces/internal/service"
	"github.com/templui/spaces/internal/validation"
)

type seedOptions struct {
	email     string
	name      string
	password  string
	superuser bool
	space     string
	folder    string
}

func (o *seedOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.email, "email", "admin@example.com", "user email")
	cmd.Flags().StringVar(&o.name, "name", "Admin", "user display name")
	cmd.Flags().StringVar(&o.password, "password", "change-me-please", "user password")
	cmd.Flags().BoolVar(&o.superuser, "superuser", true, "grant superuser")
	cmd.Flags().StringVar(&o.space, "space", "Demo Space", "space name")
	cmd.Flags().StringVar(&o.folder, "folder", "Documents", "root folder name")
}

func SeedCmd() *cobra.Command {
	opts := &seedOptions{}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create a user, a space with the files plugin and a root folder",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(opts)
		},
	}
	opts.bind(cmd)

	return cmd
}

func runSeed(opts *seedOptions) error {
	a, err := app.New(config.Load())
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	res, err := seed(a, opts)
	if err != nil {
		return err
	}

	fmt.Printf("user %s (%s)\n", res.user.Email, res.user.ID)
	fmt.Printf("space %s at /spaces/%s/files/\n", res.space.Name, res.space.Slug)
	fmt.Printf("folder %s (%s)\n", res.folder.Name, res.folder.ID)
	return nil
}

type seeded struct {
	user   *model.User
	space  *model.Space
	folder *model.Folder
}

// seed reuses an existing user with the same email; the space is always new
func seed(a *app.App, opts *seedOptions) (*seeded, error) {
	user, err := a.UserService.ByEmail(opts.email)
	if errors.Is(err, repository.ErrUserNotFound) {
		user, err = a.UserService.Create(opts.email, opts.name, opts.password, opts.superuser)
	}
	if err != nil {
		return nil, fmt.Errorf("user: %w", err)
	}

	space, err := a.SpaceService.Create(opts.space, user)
	if err != nil {
		return nil, fmt.Errorf("space: %w", err)
	}

	fm, err := a.PluginService.Enable(space.ID, model.PluginFiles)
	if err != nil {
		return nil, fmt.Errorf("plugin: %w", err)
	}

	member, err := a.SpaceService.Membership(space, user)
	if err != nil {
		return nil, fmt.Errorf("membership: %w", err)
	}

	folder, err := a.FolderService.Create(service.Scope{
		User:        user,
		Member:      member,
		Space:       space,
		FileManager: fm,
	}, validation.FolderForm{Name: opts.folder})
	if err != nil {
		return nil, fmt.Errorf("folder: %w", err)
	}

	return &seeded{user: user, space: space, folder: folder}, nil
}
