package user

import "time"

// CreateUserRequest represents the request payload for creating a new user.
// All four fields are required; email must be a syntactically valid address.
type CreateUserRequest struct {
	Name     string `json:"name" validate:"required"`
	Surname  string `json:"surname" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	JobTitle string `json:"jobTitle" validate:"required"`
}

// CreateUserResponse represents the response payload after creating a user.
type CreateUserResponse struct {
	User User
}

// UpdateUserRequest represents the request payload for updating an existing
// user. The update is a full replacement of the four editable fields, so the
// same rules apply as for create.
type UpdateUserRequest struct {
	ID       string `json:"-"`
	Name     string `json:"name" validate:"required"`
	Surname  string `json:"surname" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	JobTitle string `json:"jobTitle" validate:"required"`
}

// UpdateUserResponse represents the response payload after updating a user.
type UpdateUserResponse struct {
	User User
}

// DeleteUserRequest represents the request payload for deleting a user.
type DeleteUserRequest struct {
	ID string
}

// DeleteUserResponse represents the response payload after deleting a user.
type DeleteUserResponse struct {
	ID string
}

// GetUserRequest represents the request payload for retrieving a user.
type GetUserRequest struct {
	ID string
}

// GetUserResponse represents the response payload for user details.
type GetUserResponse struct {
	User User
}

// ListUsersRequest represents the request payload for listing users.
type ListUsersRequest struct{}

// ListUsersResponse represents the response payload for user listing.
type ListUsersResponse struct {
	Users []User
}

// User represents a user DTO (Data Transfer Object) for API responses.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Surname   string    `json:"surname"`
	Email     string    `json:"email"`
	JobTitle  string    `json:"jobTitle"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
