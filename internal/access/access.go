// Package access maps roles to the capabilities the core operations require.
package access

import (
	"lab-maintenance-backend/internal/apperr"
	"lab-maintenance-backend/internal/models"
)

// Capability names one class of operation.
type Capability string

const (
	Read            Capability = "read"
	WriteLab        Capability = "write-lab"
	WriteComputer   Capability = "write-computer"
	WriteStatus     Capability = "write-status"
	WriteReport     Capability = "write-report"
	ManageUsers     Capability = "manage-users"
	ReadReports     Capability = "read-reports"
	DispatchReports Capability = "dispatch-reports"
)

var roleCapabilities = map[models.Role][]Capability{
	models.RoleAdmin: {
		Read, WriteLab, WriteComputer, WriteStatus, WriteReport, ManageUsers, ReadReports, DispatchReports,
	},
	models.RoleTechnician: {Read, WriteStatus, WriteReport, ReadReports},
	models.RoleDean:       {Read, ManageUsers, ReadReports},
	models.RoleITSD:       {Read, ManageUsers, ReadReports, DispatchReports},
}

// roles each managing role may create, edit or delete
var manageableRoles = map[models.Role][]models.Role{
	models.RoleAdmin:      {models.RoleAdmin, models.RoleTechnician, models.RoleDean, models.RoleITSD},
	models.RoleDean:       {models.RoleTechnician, models.RoleITSD, models.RoleDean},
	models.RoleITSD:       {models.RoleTechnician},
	models.RoleTechnician: nil,
}

// Actor is the authenticated identity calling a core operation.
type Actor struct {
	UserID uint
	Role   models.Role
	Name   string
	Email  string
}

// Can reports whether the actor's role grants c.
func (a Actor) Can(c Capability) bool {
	for _, granted := range roleCapabilities[a.Role] {
		if granted == c {
			return true
		}
	}
	return false
}

// Require fails with a ForbiddenError when the actor lacks c.
func (a Actor) Require(c Capability) error {
	if a.Can(c) {
		return nil
	}
	return apperr.Forbidden("role %q is not allowed to %s", a.Role, c)
}

// CanManage reports whether the actor may administer accounts of the target role.
func (a Actor) CanManage(target models.Role) bool {
	if !a.Can(ManageUsers) {
		return false
	}
	for _, r := range manageableRoles[a.Role] {
		if r == target {
			return true
		}
	}
	return false
}

// RequireManage combines the manage-users check with the role restriction.
func (a Actor) RequireManage(target models.Role) error {
	if err := a.Require(ManageUsers); err != nil {
		return err
	}
	if !a.CanManage(target) {
		return apperr.Forbidden("role %q cannot manage %q accounts", a.Role, target)
	}
	return nil
}

// ManageableRoles lists the roles the actor may administer.
func (a Actor) ManageableRoles() []models.Role {
	if !a.Can(ManageUsers) {
		return nil
	}
	return append([]models.Role(nil), manageableRoles[a.Role]...)
}

// Capabilities returns the capability list of a role.
func Capabilities(role models.Role) []Capability {
	return append([]Capability(nil), roleCapabilities[role]...)
}
