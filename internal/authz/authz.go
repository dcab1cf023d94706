// Package authz holds the typed authorization predicates applied before
// a handler mutates anything in a space.
package authz

import (
	"github.com/templui/spaces/internal/model"
)

type Decision bool

const (
	Allow Decision = true
	Deny  Decision = false
)

// Subject is the acting user within the current space. Member is nil when
// the user does not belong to the space.
type Subject struct {
	User   *model.User
	Member *model.SpaceMember
}

type Predicate func(s Subject) Decision

// All allows only when every predicate allows. Evaluation stops at the first deny.
func All(predicates ...Predicate) Predicate {
	return func(s Subject) Decision {
		for _, p := range predicates {
			if p(s) == Deny {
				return Deny
			}
		}
		return Allow
	}
}

func Authenticated(s Subject) Decision {
	return Decision(s.User != nil)
}

// CanAccessSpace is the coarse read/write gate for every files endpoint
func CanAccessSpace(s Subject) Decision {
	if s.User == nil {
		return Deny
	}
	return Decision(s.User.IsSuperuser || s.Member != nil)
}

// CanAdminSpace gates plugin management
func CanAdminSpace(s Subject) Decision {
	if s.User == nil {
		return Deny
	}
	return Decision(s.User.IsSuperuser || (s.Member != nil && s.Member.Role == model.RoleAdmin))
}

// OwnerOrAdmin allows the resource's creator and space administrators or managers
func OwnerOrAdmin(ownerID string) Predicate {
	return func(s Subject) Decision {
		return Decision(IsOwnerOrAdmin(s.User, ownerID, s.Member))
	}
}

// CanModify is the predicate chain for editing and deleting folders and files
func CanModify(ownerID string) Predicate {
	return All(Authenticated, OwnerOrAdmin(ownerID), CanAccessSpace)
}

func IsOwnerOrAdmin(user *model.User, ownerID string, member *model.SpaceMember) bool {
	if user == nil {
		return false
	}
	if user.ID == ownerID || user.IsSuperuser {
		return true
	}
	return member.IsAdmin()
}
