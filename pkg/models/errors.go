package models

import "errors"

// Common errors shared by the client controllers and the reference server.
var (
	ErrNotFound           = errors.New("resource not found")
	ErrShopNotFound       = errors.New("shop not found")
	ErrReviewNotFound     = errors.New("review not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUsernameExists     = errors.New("username already exists")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrUnauthorized       = errors.New("unauthorized access")
	ErrForbidden          = errors.New("forbidden access")
	ErrInvalidInput       = errors.New("invalid input")
)
