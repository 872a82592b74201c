package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/dmitrijs2005/parkclient/internal/client/models"
)

// Login exchanges credentials for a session token and the user's profile.
// Credentials are validated locally first.
func (c *HTTPClient) Login(ctx context.Context, creds models.Credentials) (*models.LoginResponse, error) {
	if err := models.Validate(creds); err != nil {
		return nil, err
	}

	var resp models.LoginResponse
	if err := c.do(ctx, http.MethodPost, c.roleURL("login/"), creds, &resp); err != nil {
		return nil, err
	}
	if resp.AccessToken == "" {
		return nil, fmt.Errorf("%w: login response has no access token", ErrInvalidResponse)
	}
	return &resp, nil
}

// Register creates an account. It never returns a token.
func (c *HTTPClient) Register(ctx context.Context, nu models.NewUser) (*models.UserProfile, error) {
	if err := models.Validate(nu); err != nil {
		return nil, err
	}

	var user models.UserProfile
	if err := c.do(ctx, http.MethodPost, c.roleURL("register/"), nu, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Me returns the profile behind the current token.
func (c *HTTPClient) Me(ctx context.Context) (*models.UserProfile, error) {
	var user models.UserProfile
	if err := c.do(ctx, http.MethodGet, c.roleURL("me/"), nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *HTTPClient) UpdateProfile(ctx context.Context, upd models.ProfileUpdate) (*models.UserProfile, error) {
	if c.role != models.RoleOwner {
		return nil, ErrNotSupported
	}
	if err := models.Validate(upd); err != nil {
		return nil, err
	}

	var user models.UserProfile
	if err := c.do(ctx, http.MethodPut, c.roleURL("profile/"), upd, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// SendOTP asks the backend to send a one-time code to the new contact.
func (c *HTTPClient) SendOTP(ctx context.Context, change models.ContactChange) (*models.Message, error) {
	if c.role != models.RoleOwner {
		return nil, ErrNotSupported
	}
	if err := models.Validate(change); err != nil {
		return nil, err
	}

	var msg models.Message
	if err := c.do(ctx, http.MethodPost, c.roleURL("send-otp/"), change, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// VerifyOTP confirms the contact change with the code the user received.
func (c *HTTPClient) VerifyOTP(ctx context.Context, v models.ContactVerification) (*models.Message, error) {
	if c.role != models.RoleOwner {
		return nil, ErrNotSupported
	}
	if err := models.Validate(v); err != nil {
		return nil, err
	}

	var msg models.Message
	if err := c.do(ctx, http.MethodPost, c.roleURL("verify-otp/"), v, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// Bookings lists the user's bookings, optionally filtered by status.
func (c *HTTPClient) Bookings(ctx context.Context, status string) ([]models.Booking, error) {
	target := c.roleURL("bookings")
	if status != "" {
		target += "?" + url.Values{"status": {status}}.Encode()
	}

	var out []models.Booking
	if err := c.do(ctx, http.MethodGet, target, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ActiveSessions lists the driver's running parking sessions.
func (c *HTTPClient) ActiveSessions(ctx context.Context) ([]models.ParkingSession, error) {
	if c.role != models.RoleDriver {
		return nil, ErrNotSupported
	}

	var out []models.ParkingSession
	if err := c.do(ctx, http.MethodGet, c.roleURL("sessions/active"), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetRaw performs a GET on a path under the role prefix and returns the raw
// JSON body.
func (c *HTTPClient) GetRaw(ctx context.Context, path string) (json.RawMessage, error) {
	if strings.Contains(path, "://") {
		return nil, fmt.Errorf("path %q must be relative", path)
	}

	var out json.RawMessage
	if err := c.do(ctx, http.MethodGet, c.roleURL(path), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Ping checks that the backend is reachable and healthy.
func (c *HTTPClient) Ping(ctx context.Context) error {
	var h models.Health
	if err := c.do(ctx, http.MethodGet, c.rootURL("health"), nil, &h); err != nil {
		return err
	}
	if h.Status != "ok" {
		return fmt.Errorf("%w: health status %q", ErrInvalidResponse, h.Status)
	}
	return nil
}
