package services

import (
	"github.com/23f2003700/padosi-politics/internal/models"
	"github.com/google/uuid"
)

// Actor is the authenticated caller of a service operation.
type Actor struct {
	UserID    uuid.UUID
	SocietyID uuid.UUID
	Role      models.Role
}

func ActorFromUser(u *models.User) Actor {
	return Actor{UserID: u.ID, SocietyID: u.SocietyID, Role: u.Role}
}

func (a Actor) IsCommitteeOrAbove() bool {
	return a.Role.IsCommitteeOrAbove()
}

func (a Actor) IsSecretaryOrAbove() bool {
	return a.Role.AtLeast(models.RoleSecretary)
}

func (a Actor) IsAdmin() bool {
	return a.Role.AtLeast(models.RoleAdmin)
}
