package app

import "errors"

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrPasswordMismatch  = errors.New("passwords do not match")
	ErrPasswordTooShort  = errors.New("password must be at least 6 characters")
	ErrEmailExists       = errors.New("email already registered")
	ErrInvalidCredential = errors.New("invalid credentials")
	ErrEmailMismatch     = errors.New("email does not match account")
	ErrUserNotFound      = errors.New("user not found")
	ErrBoardNotFound     = errors.New("board not found")
)

const (
	MinPasswordLength = 6
	NewBoardName      = "New Board"
)
