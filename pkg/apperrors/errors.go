package apperrors

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrInactiveMedication = errors.New("user medication is inactive")
	ErrOutOfStock         = errors.New("medication stock is empty")
)
