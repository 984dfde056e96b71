package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserTableName(t *testing.T) {
	user := User{}
	assert.Equal(t, "users", user.TableName(), "Table name should be 'users'")
}

func TestUserStructFields(t *testing.T) {
	user := User{
		Email: "test@example.com",
		Role:  "student",
	}

	assert.Equal(t, "test@example.com", user.Email, "Email should be set correctly")
	assert.Equal(t, "student", user.Role, "Role should be set correctly")
}

func TestUserRoleValues(t *testing.T) {
	tests := []struct {
		name string
		role string
	}{
		{"student role", "student"},
		{"admin role", "admin"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user := User{
				Email: "test@example.com",
				Role:  tt.role,
			}
			assert.Equal(t, tt.role, user.Role, "Role should be set correctly")
		})
	}
}
