// Package models defines the payloads exchanged with the parking backend and
// the profile cached on the device.
package models

import (
	"fmt"
)

// Role selects which of the two client apps is running. It picks the API
// path prefix and must match the role claim of the session token.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleDriver Role = "driver"
)

func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleOwner, RoleDriver:
		return r, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// UserProfile mirrors the backend's user record. Address is only filled in
// for owners.
type UserProfile struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	PhoneNumber string    `json:"phone_number,omitempty"`
	Address     string    `json:"address,omitempty"`
	Role        Role      `json:"role,omitempty"`
	CreatedAt   Timestamp `json:"created_at"`
}

// DisplayName is what the prompt shows for a signed-in user.
func (u *UserProfile) DisplayName() string {
	if u == nil {
		return ""
	}
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}

// Clone returns a copy of u, or nil for a nil profile.
func (u *UserProfile) Clone() *UserProfile {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}
