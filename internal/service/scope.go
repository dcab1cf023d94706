package service

import (
	"github.com/templui/spaces/internal/authz"
	"github.com/templui/spaces/internal/model"
)

// Scope is the request's tenant: who is acting, in which space, through
// which file manager instance. Middleware resolves it once per request.
type Scope struct {
	User        *model.User
	Member      *model.SpaceMember
	Space       *model.Space
	FileManager *model.FileManager
}

func (s Scope) Subject() authz.Subject {
	return authz.Subject{User: s.User, Member: s.Member}
}

func (s Scope) Allows(p authz.Predicate) bool {
	return p(s.Subject()) == authz.Allow
}
