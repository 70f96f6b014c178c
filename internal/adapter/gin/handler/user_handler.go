package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"user-service/internal/usecase/user"
	pkgerrors "user-service/pkg/errors"
)

// UserHandler handles HTTP requests for user operations.
type UserHandler struct {
	uc  user.Usecase
	log *zap.Logger
}

// NewUserHandler creates a new UserHandler instance.
func NewUserHandler(uc user.Usecase, log *zap.Logger) *UserHandler {
	return &UserHandler{
		uc:  uc,
		log: log,
	}
}

// userBody is the HTTP request body for create and update. Field rules are
// enforced by the usecase, not by binding tags, so that all failures are
// collected and reported together.
type userBody struct {
	Name     string `json:"name"`
	Surname  string `json:"surname"`
	Email    string `json:"email"`
	JobTitle string `json:"jobTitle"`
}

// ErrorResponse is the JSON body for every failed request. Message is always
// set; Errors carries field detail for validation failures; Error carries
// the raw detail for server errors.
type ErrorResponse struct {
	Message string                 `json:"message"`
	Errors  []pkgerrors.FieldError `json:"errors,omitempty"`
	Error   string                 `json:"error,omitempty"`
}

// MessageResponse is the JSON body for confirmations.
type MessageResponse struct {
	Message string `json:"message"`
}

// SignUp handles POST /sign-up.
func (h *UserHandler) SignUp(c *gin.Context) {
	var body userBody
	if err := c.ShouldBindJSON(&body); err != nil && !errors.Is(err, io.EOF) {
		h.log.Warn("malformed sign-up body", zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid request body"})
		return
	}

	resp, err := h.uc.CreateUser(c.Request.Context(), user.CreateUserRequest{
		Name:     body.Name,
		Surname:  body.Surname,
		Email:    body.Email,
		JobTitle: body.JobTitle,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp.User)
}

// ListUsers handles GET /users.
func (h *UserHandler) ListUsers(c *gin.Context) {
	resp, err := h.uc.ListUsers(c.Request.Context(), user.ListUsersRequest{})
	if err != nil {
		h.respondError(c, err)
		return
	}

	// An empty collection is an empty array, never null
	users := resp.Users
	if users == nil {
		users = []user.User{}
	}

	c.JSON(http.StatusOK, users)
}

// GetUser handles GET /users/:id.
func (h *UserHandler) GetUser(c *gin.Context) {
	resp, err := h.uc.GetUser(c.Request.Context(), user.GetUserRequest{ID: c.Param("id")})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp.User)
}

// UpdateUser handles PUT /users/:id.
func (h *UserHandler) UpdateUser(c *gin.Context) {
	var body userBody
	if err := c.ShouldBindJSON(&body); err != nil && !errors.Is(err, io.EOF) {
		h.log.Warn("malformed update body", zap.String("id", c.Param("id")), zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid request body"})
		return
	}

	resp, err := h.uc.UpdateUser(c.Request.Context(), user.UpdateUserRequest{
		ID:       c.Param("id"),
		Name:     body.Name,
		Surname:  body.Surname,
		Email:    body.Email,
		JobTitle: body.JobTitle,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp.User)
}

// DeleteUser handles DELETE /users/:id.
func (h *UserHandler) DeleteUser(c *gin.Context) {
	if _, err := h.uc.DeleteUser(c.Request.Context(), user.DeleteUserRequest{ID: c.Param("id")}); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "user deleted successfully"})
}

// respondError maps a usecase error to its JSON response. Every error that
// reaches this point yields a well-formed body; anything unrecognized is
// reported as a server error with its raw detail.
func (h *UserHandler) respondError(c *gin.Context, err error) {
	var verr *pkgerrors.ValidationError
	if errors.As(err, &verr) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "validation failed",
			Errors:  verr.Errors,
		})
		return
	}

	var statuser pkgerrors.HTTPStatuser
	if errors.As(err, &statuser) {
		status := statuser.HTTPStatus()
		if status == http.StatusInternalServerError {
			c.JSON(status, ErrorResponse{Message: "internal server error", Error: err.Error()})
			return
		}
		c.JSON(status, ErrorResponse{Message: err.Error()})
		return
	}

	h.log.Error("unmapped handler error", zap.Error(err))
	c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "internal server error", Error: err.Error()})
}
