package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUser_IsAdmin(t *testing.T) {
	assert.True(t, (&User{Role: RoleAdmin}).IsAdmin())
	assert.False(t, (&User{Role: RoleAgency}).IsAdmin())
	assert.False(t, (&User{Role: RoleContractor}).IsAdmin())
}

func TestUser_BelongsToAgency(t *testing.T) {
	agencyID := uint(5)

	tests := []struct {
		name string
		user User
		want bool
	}{
		{
			name: "agency user linked to the agency",
			user: User{Role: RoleAgency, AgencyID: &agencyID},
			want: true,
		},
		{
			name: "agency user linked to a different agency",
			user: User{Role: RoleAgency, AgencyID: func() *uint { v := uint(6); return &v }()},
			want: false,
		},
		{
			name: "agency user with no agency yet",
			user: User{Role: RoleAgency},
			want: false,
		},
		{
			name: "contractor linked to the agency id",
			user: User{Role: RoleContractor, AgencyID: &agencyID},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.user.BelongsToAgency(5))
		})
	}
}
