package validation

import (
	"strings"

	"github.com/Segevolp/AlgoTrade/internal/api/request"
	"github.com/Segevolp/AlgoTrade/internal/model"
)

// ValidateLogin checks the login form before it is submitted.
func ValidateLogin(req request.LoginRequest) error {
	errors := make(map[string]string)
	if strings.TrimSpace(req.Username) == "" {
		errors["username"] = "username is required"
	}
	if req.Password == "" {
		errors["password"] = "password is required"
	}
	return result(errors)
}

// ValidateRegistration checks the sign-up form, including the password
// confirmation that never leaves the client.
func ValidateRegistration(reg model.Registration) (request.RegisterRequest, error) {
	req := request.RegisterRequest{
		Username: strings.TrimSpace(reg.Username),
		Email:    strings.TrimSpace(reg.Email),
		Password: reg.Password,
	}

	errors := make(map[string]string)
	if reg.Password != reg.ConfirmPassword {
		errors["confirmPassword"] = "Passwords do not match"
	}
	if err := structFields(req, errors); err != nil {
		return request.RegisterRequest{}, err
	}
	if err := result(errors); err != nil {
		return request.RegisterRequest{}, err
	}
	return req, nil
}
