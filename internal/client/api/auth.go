package api

import (
	"context"

	"noodlemap/pkg/models"
)

// Auth endpoints

// Login authenticates a user and returns the signed token.
func (c *Client) Login(ctx context.Context, username, password string) (*models.LoginResponse, error) {
	body := models.LoginRequest{
		Username: username,
		Password: password,
	}

	resp, err := c.doRequest(ctx, "POST", "/auth/login", nil, body)
	if err != nil {
		return nil, err
	}

	var loginResp models.LoginResponse
	if err := decodeEnvelope(resp, &loginResp); err != nil {
		return nil, err
	}

	return &loginResp, nil
}

// Register creates a new account. The backend logs the account in on
// success, so the response carries a token like Login does.
func (c *Client) Register(ctx context.Context, req models.RegisterRequest) (*models.LoginResponse, error) {
	resp, err := c.doRequest(ctx, "POST", "/auth/register", nil, req)
	if err != nil {
		return nil, err
	}

	var loginResp models.LoginResponse
	if err := decodeEnvelope(resp, &loginResp); err != nil {
		return nil, err
	}

	return &loginResp, nil
}

// Admin endpoints

// ListUsers retrieves a page of registered users. Admin only.
func (c *Client) ListUsers(ctx context.Context, page, size int) (*models.Page[models.UserAccount], error) {
	query := pageQuery(page, size, models.DefaultSort)

	resp, err := c.doRequest(ctx, "GET", "/admin/users", query, nil)
	if err != nil {
		return nil, err
	}

	var result models.Page[models.UserAccount]
	if err := decodeEnvelope(resp, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

// UpdateUserRole changes a user's role. Admin only.
func (c *Client) UpdateUserRole(ctx context.Context, userID int64, role models.Role) error {
	body := models.UpdateUserRoleRequest{Role: role}

	resp, err := c.doRequest(ctx, "PUT", adminUserRolePath(userID), nil, body)
	if err != nil {
		return err
	}

	return decodeEnvelope(resp, nil)
}
