package handlers

import (
	"errors"
	"regexp"
)

var (
	ErrInvalidName     = errors.New("invalid name")
	ErrInvalidPassword = errors.New("invalid password")
	ErrInvalidAmount   = errors.New("amount must be a non-negative integer")
)

var nameRegex = regexp.MustCompile(`^[a-zA-Z0-9_.-]{2,64}$`)

func validateName(name string) error {
	if !nameRegex.MatchString(name) {
		return ErrInvalidName
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < 8 {
		return ErrInvalidPassword
	}
	return nil
}

func validateAmount(amount int64) error {
	if amount < 0 {
		return ErrInvalidAmount
	}
	return nil
}
