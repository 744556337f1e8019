package dto

import "github.com/hugh/finza/internal/api/validation"

type CreateUserRequest struct {
	Email                string `json:"email"`
	Password             string `json:"password"`
	AutoGeneratePassword bool   `json:"auto_generate_password,omitempty"`
	Name                 string `json:"name"`
	LastName             string `json:"last_name,omitempty"`
	Phone                string `json:"phone,omitempty"`
	Image                string `json:"image,omitempty"`
	RoleID               *uint  `json:"role_id,omitempty"`
}

func (r CreateUserRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.Email == "" {
		errors["email"] = "Email is required"
	} else if !validation.IsValidEmail(r.Email) {
		errors["email"] = "Invalid email format"
	}
	if !r.AutoGeneratePassword {
		if r.Password == "" {
			errors["password"] = "Password is required"
		} else if len(r.Password) < 8 {
			errors["password"] = "Password must be at least 8 characters"
		}
	}
	if r.Name == "" {
		errors["name"] = "Name is required"
	}

	return errors
}

// UpdateUserRequest is a partial update; nil fields are left untouched.
type UpdateUserRequest struct {
	Email    *string `json:"email,omitempty"`
	Name     *string `json:"name,omitempty"`
	LastName *string `json:"last_name,omitempty"`
	Phone    *string `json:"phone,omitempty"`
	Image    *string `json:"image,omitempty"`
	RoleID   *uint   `json:"role_id,omitempty"`
}

func (r UpdateUserRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.Email != nil {
		if *r.Email == "" {
			errors["email"] = "Email must not be empty"
		} else if !validation.IsValidEmail(*r.Email) {
			errors["email"] = "Invalid email format"
		}
	}
	if r.Name != nil && *r.Name == "" {
		errors["name"] = "Name must not be empty"
	}

	return errors
}
