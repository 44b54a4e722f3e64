package models

import (
	"testing"
)

func TestIsValidRole(t *testing.T) {
	tests := []struct {
		name     string
		role     Role
		expected bool
	}{
		{"admin role", RoleAdmin, true},
		{"dispatcher role", RoleDispatcher, true},
		{"driver role", RoleDriver, true},
		{"viewer role", RoleViewer, true},
		{"invalid role", "invalid", false},
		{"empty role", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := IsValidRole(tt.role)
			if result != tt.expected {
				t.Errorf("IsValidRole(%s) = %v, want %v", tt.role, result, tt.expected)
			}
		})
	}
}

func TestUser_HasPermission(t *testing.T) {
	admin := &User{Role: RoleAdmin}
	dispatcher := &User{Role: RoleDispatcher}
	driver := &User{Role: RoleDriver}
	viewer := &User{Role: RoleViewer}

	tests := []struct {
		name     string
		user     *User
		action   string
		expected bool
	}{
		{"admin can manage users", admin, ActionManageUsers, true},
		{"admin can dispatch", admin, ActionDispatch, true},

		{"dispatcher cannot manage users", dispatcher, ActionManageUsers, false},
		{"dispatcher can dispatch", dispatcher, ActionDispatch, true},
		{"dispatcher can manage vehicles", dispatcher, ActionManageVehicles, true},

		{"driver can update trip", driver, ActionUpdateTrip, true},
		{"driver can view board", driver, ActionViewBoard, true},
		{"driver cannot dispatch", driver, ActionDispatch, false},
		{"driver cannot manage vehicles", driver, ActionManageVehicles, false},

		{"viewer can view board", viewer, ActionViewBoard, true},
		{"viewer cannot update trip", viewer, ActionUpdateTrip, false},
		{"viewer cannot dispatch", viewer, ActionDispatch, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.user.HasPermission(tt.action)
			if result != tt.expected {
				t.Errorf("User with role %s HasPermission(%s) = %v, want %v",
					tt.user.Role, tt.action, result, tt.expected)
			}
		})
	}
}
