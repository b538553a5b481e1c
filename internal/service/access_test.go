package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/campussports/sportsdesk-api/internal/models"
)

func TestCanAccessSport(t *testing.T) {
	cases := []struct {
		name   string
		claims *models.JWTClaims
		sport  string
		want   bool
	}{
		{"admin any sport", &models.JWTClaims{Role: models.RoleAdmin}, "Basketball", true},
		{"coach own sport", &models.JWTClaims{Role: models.RoleCoach, Sport: "Tennis"}, "Tennis", true},
		{"coach other sport", &models.JWTClaims{Role: models.RoleCoach, Sport: "Tennis"}, "Basketball", false},
		{"student never", &models.JWTClaims{Role: models.RoleStudent, UserID: "s1"}, "Tennis", false},
		{"nil claims", nil, "Tennis", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CanAccessSport(tc.claims, tc.sport))
		})
	}
}

func TestCanAccessStudent(t *testing.T) {
	student := &models.Student{ID: "s1", Sport: "Tennis"}
	cases := []struct {
		name   string
		claims *models.JWTClaims
		want   bool
	}{
		{"admin", &models.JWTClaims{Role: models.RoleAdmin}, true},
		{"coach same sport", &models.JWTClaims{Role: models.RoleCoach, Sport: "Tennis"}, true},
		{"coach other sport", &models.JWTClaims{Role: models.RoleCoach, Sport: "Golf"}, false},
		{"student self", &models.JWTClaims{Role: models.RoleStudent, UserID: "s1"}, true},
		{"student other", &models.JWTClaims{Role: models.RoleStudent, UserID: "s2"}, false},
		{"nil claims", nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CanAccessStudent(tc.claims, student))
		})
	}
	assert.False(t, CanAccessStudent(&models.JWTClaims{Role: models.RoleAdmin}, nil))
}
