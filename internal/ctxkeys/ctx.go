package ctxkeys

import (
	"context"

	"github.com/templui/spaces/internal/config"
	"github.com/templui/spaces/internal/model"
)

// contextKey is a type for context keys to avoid collisions
type contextKey string

const (
	UserKey        contextKey = "user"
	SpaceKey       contextKey = "space"
	MemberKey      contextKey = "space_member"
	FileManagerKey contextKey = "file_manager"
	URLPathKey     contextKey = "url_path"
	ConfigKey      contextKey = "config"
	CSRFTokenKey   contextKey = "csrf_token"
)

func User(ctx context.Context) *model.User {
	user, _ := ctx.Value(UserKey).(*model.User)
	return user
}

func WithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, UserKey, user)
}

func Space(ctx context.Context) *model.Space {
	space, _ := ctx.Value(SpaceKey).(*model.Space)
	return space
}

func WithSpace(ctx context.Context, space *model.Space) context.Context {
	return context.WithValue(ctx, SpaceKey, space)
}

// Member is nil for superusers browsing a space they do not belong to
func Member(ctx context.Context) *model.SpaceMember {
	member, _ := ctx.Value(MemberKey).(*model.SpaceMember)
	return member
}

func WithMember(ctx context.Context, member *model.SpaceMember) context.Context {
	return context.WithValue(ctx, MemberKey, member)
}

func FileManager(ctx context.Context) *model.FileManager {
	fm, _ := ctx.Value(FileManagerKey).(*model.FileManager)
	return fm
}

func WithFileManager(ctx context.Context, fm *model.FileManager) context.Context {
	return context.WithValue(ctx, FileManagerKey, fm)
}

func URLPath(ctx context.Context) string {
	path, _ := ctx.Value(URLPathKey).(string)
	return path
}

func WithURLPath(ctx context.Context, path string) context.Context {
	return context.WithValue(ctx, URLPathKey, path)
}

func Config(ctx context.Context) *config.Config {
	cfg, _ := ctx.Value(ConfigKey).(*config.Config)
	return cfg
}

func WithConfig(ctx context.Context, cfg *config.Config) context.Context {
	return context.WithValue(ctx, ConfigKey, cfg)
}

func CSRFToken(ctx context.Context) string {
	token, _ := ctx.Value(CSRFTokenKey).(string)
	return token
}

func WithCSRFToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, CSRFTokenKey, token)
}
