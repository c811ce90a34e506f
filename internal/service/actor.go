package service

import "github.com/quillpost/internal/db"

// Actor is the already-authenticated caller of a service operation.
type Actor struct {
	UserID uint
	Role   db.Role
	Active bool
}

// ActorFromUser builds an Actor from a stored user.
func ActorFromUser(u db.User) Actor {
	return Actor{UserID: u.ID, Role: u.Role, Active: u.Active}
}

// IsAdmin reports whether the actor holds the admin role.
func (a Actor) IsAdmin() bool {
	return a.Role == db.RoleAdmin
}

// CanModify is the owner-or-admin capability check used by every mutating operation.
func CanModify(actor Actor, ownerID uint) bool {
	if !actor.Active || actor.UserID == 0 {
		return false
	}
	return actor.IsAdmin() || actor.UserID == ownerID
}

func requireActive(actor Actor) error {
	if actor.UserID == 0 || !actor.Active {
		return ErrInactiveUser
	}
	return nil
}

func requireOwnerOrAdmin(actor Actor, ownerID uint) error {
	if err := requireActive(actor); err != nil {
		return err
	}
	if !CanModify(actor, ownerID) {
		return ErrNotOwner
	}
	return nil
}

func requireAdmin(actor Actor) error {
	if err := requireActive(actor); err != nil {
		return err
	}
	if !actor.IsAdmin() {
		return ErrAdminOnly
	}
	return nil
}
