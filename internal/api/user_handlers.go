package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/photogram/photogram-server/internal/domain"
)

func (s *Server) registerUserRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getCurrentUser",
		Method:      http.MethodGet,
		Path:        "/users/me",
		Summary:     "Get current user",
		Description: "Returns the authenticated user's profile with a fresh upload count",
		Tags:        []string{"Users"},
		Security:    authed,
		Middlewares: huma.Middlewares{s.requireAuth},
	}, s.handleGetCurrentUser)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateCurrentUser",
		Method:      http.MethodPut,
		Path:        "/users/me",
		Summary:     "Update current user",
		Description: "Sets the display name. The profile is created on first update. Other fields in the body are ignored.",
		Tags:        []string{"Users"},
		Security:    authed,
		Middlewares: huma.Middlewares{s.requireAuth},
	}, s.handleUpdateCurrentUser)
}

// UserOutput returns a user profile.
type UserOutput struct {
	Body Envelope[*domain.User]
}

// UpdateUserBody carries the editable profile fields.
type UpdateUserBody struct {
	_    struct{} `json:"-" additionalProperties:"true"`
	Name string   `json:"name" required:"false" label:"Name" validate:"notblank,max=100" doc:"Display name"`
}

// UpdateUserInput is the request for PUT /users/me.
type UpdateUserInput struct {
	Body *UpdateUserBody
}

func (s *Server) handleGetCurrentUser(ctx context.Context, _ *struct{}) (*UserOutput, error) {
	identity, err := requireIdentity(ctx)
	if err != nil {
		return nil, err
	}

	user, err := s.services.Users.GetCurrentUser(ctx, identity.UID)
	if err != nil {
		return nil, s.fail(err, "Failed to get user")
	}
	return &UserOutput{Body: ok("User retrieved successfully", user)}, nil
}

func (s *Server) handleUpdateCurrentUser(ctx context.Context, input *UpdateUserInput) (*UserOutput, error) {
	identity, err := requireIdentity(ctx)
	if err != nil {
		return nil, err
	}

	body := input.Body
	if body == nil {
		body = &UpdateUserBody{}
	}
	update := domain.UpdateProfile{Name: body.Name}
	if err := s.validator.Validate(update); err != nil {
		return nil, s.fail(err, "Invalid profile")
	}

	user, err := s.services.Users.UpdateCurrentUser(ctx, identity.UID, identity.Email, update)
	if err != nil {
		return nil, s.fail(err, "Failed to update user")
	}
	return &UserOutput{Body: ok("User updated successfully", user)}, nil
}
