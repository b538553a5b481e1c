package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractRollNumber(t *testing.T) {
	cases := []struct {
		name  string
		email string
		want  string
	}{
		{"leading digits", "210405@college.edu", "210405"},
		{"after dot", "john.210405@college.edu", "210405"},
		{"digits then dot", "210405.john@college.edu", "210405"},
		{"after underscore", "john_210405@college.edu", "210405"},
		{"digits then underscore", "210405_john@college.edu", "210405"},
		{"uppercase and whitespace", "  JOHN.210405@College.EDU ", "210405"},
		{"too short", "123@college.edu", ""},
		{"no digits", "john.doe@college.edu", ""},
		{"empty", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ExtractRollNumber(tc.email))
		})
	}
}

func TestInferSport(t *testing.T) {
	cases := []struct {
		name   string
		fields []string
		want   string
	}{
		{"job title", []string{"Basketball Team Member", "", ""}, "Basketball"},
		{"department", []string{"", "Department of Cricket", ""}, "Cricket"},
		{"office location", []string{"", "", "Swimming Pool Complex"}, "Swimming"},
		{"track maps to athletics", []string{"Track Team", "", ""}, "Athletics"},
		{"field maps to athletics", []string{"", "Field Events", ""}, "Athletics"},
		{"case insensitive", []string{"TENNIS", "", ""}, "Tennis"},
		{"no match falls back", []string{"Computer Science", "Engineering", "Block A"}, "General"},
		{"empty fields", []string{"", "", ""}, "General"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, InferSport(tc.fields...))
		})
	}
}
