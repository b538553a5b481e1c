package service

import (
	"github.com/campussports/sportsdesk-api/internal/models"
)

// CanAccessSport reports whether the caller may act on records of the given
// sport. Admins see everything, coaches only their own sport.
func CanAccessSport(claims *models.JWTClaims, sport string) bool {
	if claims == nil {
		return false
	}
	switch claims.Role {
	case models.RoleAdmin:
		return true
	case models.RoleCoach:
		return claims.Sport == sport
	}
	return false
}

// CanAccessStudent reports whether the caller may act on the given student's
// records. Students may only access themselves; coaches are scoped to their
// sport; admins are unrestricted.
func CanAccessStudent(claims *models.JWTClaims, student *models.Student) bool {
	if claims == nil || student == nil {
		return false
	}
	switch claims.Role {
	case models.RoleAdmin:
		return true
	case models.RoleCoach:
		return claims.Sport == student.Sport
	case models.RoleStudent:
		return claims.UserID == student.ID
	}
	return false
}
