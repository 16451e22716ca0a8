package services

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrEmailExists        = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrArticleNotFound    = errors.New("article not found")

	ErrInvalidUsername = fmt.Errorf("%w: username cannot be empty", ErrInvalidInput)
	ErrInvalidSymbol   = fmt.Errorf("%w: symbol cannot be empty", ErrInvalidInput)
)
