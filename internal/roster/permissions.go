// internal/roster/permissions.go
package roster

func isStaff(role Role) bool {
	return role == RoleCoach || role == RoleDirector
}

func CanEditTeamEvents(role Role) bool { return isStaff(role) }

func CanEditRoster(role Role) bool { return isStaff(role) }

