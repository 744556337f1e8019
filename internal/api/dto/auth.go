package dto

import "github.com/hugh/finza/internal/api/validation"

type RegisterRequest struct {
	Email                string `json:"email"`
	Password             string `json:"password"`
	AutoGeneratePassword bool   `json:"auto_generate_password,omitempty"`
	Name                 string `json:"name"`
	LastName             string `json:"last_name,omitempty"`
	Phone                string `json:"phone,omitempty"`
}

func (r RegisterRequest) Validate() map[string]string {
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

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r LoginRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.Email == "" {
		errors["email"] = "Email is required"
	}
	if r.Password == "" {
		errors["password"] = "Password is required"
	}

	return errors
}

type RequestResetRequest struct {
	Email string `json:"email"`
}

func (r RequestResetRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.Email == "" {
		errors["email"] = "Email is required"
	} else if !validation.IsValidEmail(r.Email) {
		errors["email"] = "Invalid email format"
	}

	return errors
}

type ResetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

func (r ResetPasswordRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.Token == "" {
		errors["token"] = "Token is required"
	}
	if r.NewPassword == "" {
		errors["new_password"] = "New password is required"
	} else if ok, msg := validation.IsValidPassword(r.NewPassword); !ok {
		errors["new_password"] = msg
	}

	return errors
}

type AuthResponse struct {
	Token string  `json:"token"`
	User  UserDTO `json:"user"`
	// GeneratedPassword is present only when the server generated the
	// password; the client shows it once and it is never retrievable again.
	GeneratedPassword string `json:"generated_password,omitempty"`
}

type UserDTO struct {
	ID       uint     `json:"id"`
	Email    string   `json:"email"`
	Name     string   `json:"name"`
	LastName string   `json:"last_name,omitempty"`
	Phone    string   `json:"phone,omitempty"`
	Image    string   `json:"image,omitempty"`
	RoleID   *uint    `json:"role_id"`
	Role     *RoleDTO `json:"role,omitempty"`
}

type MeResponse struct {
	User        UserDTO         `json:"user"`
	Role        *RoleDTO        `json:"role"`
	Permissions []PermissionDTO `json:"permissions"`
}

type VerifyTokenResponse struct {
	Valid   bool   `json:"valid"`
	Email   string `json:"email,omitempty"`
	Message string `json:"message,omitempty"`
}
