package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
)

func (s *Server) registerLikeRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "togglePhotoLike",
		Method:      http.MethodPost,
		Path:        "/like/toggle/{photoId}",
		Summary:     "Toggle a photo like",
		Description: "Likes the photo if the caller has not liked it yet, otherwise removes the like. The owner's totalLikes follows.",
		Tags:        []string{"Likes"},
		Security:    authed,
		Middlewares: huma.Middlewares{s.requireAuth},
	}, s.handleTogglePhotoLike)

	huma.Register(s.api, huma.Operation{
		OperationID: "toggleCommentLike",
		Method:      http.MethodPost,
		Path:        "/like/comment/toggle/{commentId}",
		Summary:     "Toggle a comment like",
		Tags:        []string{"Likes"},
		Security:    authed,
		Middlewares: huma.Middlewares{s.requireAuth},
	}, s.handleToggleCommentLike)
}

// ToggleData reports the caller's like state after a toggle.
type ToggleData struct {
	HasLiked bool `json:"hasLiked" doc:"Whether the caller now likes the target"`
}

// ToggleOutput is the toggle response. Data is a pointer so an unliked
// state still serializes as {"hasLiked":false}.
type ToggleOutput struct {
	Body Envelope[*ToggleData]
}

// CommentIDInput identifies a comment by path.
type CommentIDInput struct {
	CommentID string `path:"commentId" doc:"Comment ID"`
}

func (s *Server) handleTogglePhotoLike(ctx context.Context, input *PhotoIDInput) (*ToggleOutput, error) {
	identity, err := requireIdentity(ctx)
	if err != nil {
		return nil, err
	}
	photoID := strings.TrimSpace(input.PhotoID)
	if photoID == "" {
		return nil, fromDomain(errPhotoIDRequired)
	}

	result, err := s.services.Likes.ToggleLike(ctx, identity.UID, photoID)
	if err != nil {
		return nil, s.fail(err, "Failed to toggle like")
	}
	return &ToggleOutput{Body: ok(result.Message, &ToggleData{HasLiked: result.HasLiked})}, nil
}

func (s *Server) handleToggleCommentLike(ctx context.Context, input *CommentIDInput) (*ToggleOutput, error) {
	identity, err := requireIdentity(ctx)
	if err != nil {
		return nil, err
	}
	commentID := strings.TrimSpace(input.CommentID)
	if commentID == "" {
		return nil, fromDomain(errCommentIDRequired)
	}

	result, err := s.services.Likes.ToggleCommentLike(ctx, identity.UID, commentID)
	if err != nil {
		return nil, s.fail(err, "Failed to toggle comment like")
	}
	return &ToggleOutput{Body: ok(result.Message, &ToggleData{HasLiked: result.HasLiked})}, nil
}
