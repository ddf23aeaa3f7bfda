package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/photogram/photogram-server/internal/domain"
	domainerrors "github.com/photogram/photogram-server/internal/errors"
)

var errCommentIDRequired = domainerrors.Validation("Comment ID is required")

// Comment routes share one path parameter. POST and GET address the photo,
// PUT and DELETE address the comment.
func (s *Server) registerCommentRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "createComment",
		Method:        http.MethodPost,
		Path:          "/comments/{id}",
		Summary:       "Comment on a photo",
		Tags:          []string{"Comments"},
		DefaultStatus: http.StatusCreated,
		Security:      authed,
		Middlewares:   huma.Middlewares{s.requireAuth},
	}, s.handleCreateComment)

	huma.Register(s.api, huma.Operation{
		OperationID: "listComments",
		Method:      http.MethodGet,
		Path:        "/comments/{id}",
		Summary:     "List a photo's comments",
		Description: "Newest first, each with its author. A bearer token is optional and only fills hasLiked.",
		Tags:        []string{"Comments"},
		Middlewares: huma.Middlewares{s.optionalAuth},
	}, s.handleListComments)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateComment",
		Method:      http.MethodPut,
		Path:        "/comments/{id}",
		Summary:     "Edit a comment",
		Description: "Only the author may edit. Other callers get 404.",
		Tags:        []string{"Comments"},
		Security:    authed,
		Middlewares: huma.Middlewares{s.requireAuth},
	}, s.handleUpdateComment)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteComment",
		Method:      http.MethodDelete,
		Path:        "/comments/{id}",
		Summary:     "Delete a comment",
		Description: "Removes the comment and every like on it. Only the author may delete. Other callers get 404.",
		Tags:        []string{"Comments"},
		Security:    authed,
		Middlewares: huma.Middlewares{s.requireAuth},
	}, s.handleDeleteComment)
}

// CommentBody is the request body for creating or editing a comment.
type CommentBody struct {
	_    struct{} `json:"-" additionalProperties:"true"`
	Text string   `json:"text" required:"false" label:"Comment text" validate:"notblank,max=1000" doc:"Comment text, 1 to 1000 characters"`
}

// CreateCommentInput is the request for POST /comments/{id}.
type CreateCommentInput struct {
	PhotoID string `path:"id" doc:"Photo ID"`
	Body    *CommentBody
}

// UpdateCommentInput is the request for PUT /comments/{id}.
type UpdateCommentInput struct {
	CommentID string `path:"id" doc:"Comment ID"`
	Body      *CommentBody
}

// CommentPathInput is the request for GET and DELETE.
type CommentPathInput struct {
	ID string `path:"id" doc:"Photo ID for GET, comment ID for DELETE"`
}

// CommentOutput returns a single comment.
type CommentOutput struct {
	Body Envelope[*domain.Comment]
}

// CommentListOutput returns a photo's comments.
type CommentListOutput struct {
	Body Envelope[[]domain.CommentWithUser]
}

// commentText validates the body and returns the trimmed text.
func (s *Server) commentText(body *CommentBody) (string, error) {
	if body == nil {
		body = &CommentBody{}
	}
	if err := s.validator.Validate(body); err != nil {
		return "", s.fail(err, "Invalid comment")
	}
	return strings.TrimSpace(body.Text), nil
}

func (s *Server) handleCreateComment(ctx context.Context, input *CreateCommentInput) (*CommentOutput, error) {
	identity, err := requireIdentity(ctx)
	if err != nil {
		return nil, err
	}
	photoID := strings.TrimSpace(input.PhotoID)
	if photoID == "" {
		return nil, fromDomain(errPhotoIDRequired)
	}
	text, err := s.commentText(input.Body)
	if err != nil {
		return nil, err
	}

	comment, err := s.services.Comments.CreateComment(ctx, identity.UID, photoID, text)
	if err != nil {
		return nil, s.fail(err, "Failed to create comment")
	}
	return &CommentOutput{Body: ok("Comment created successfully", comment)}, nil
}

func (s *Server) handleListComments(ctx context.Context, input *CommentPathInput) (*CommentListOutput, error) {
	photoID := strings.TrimSpace(input.ID)
	if photoID == "" {
		return nil, fromDomain(errPhotoIDRequired)
	}

	comments, err := s.services.Comments.GetPhotoComments(ctx, photoID, viewerID(ctx))
	if err != nil {
		return nil, s.fail(err, "Failed to get comments")
	}
	return &CommentListOutput{Body: ok("Comments retrieved successfully", comments)}, nil
}

func (s *Server) handleUpdateComment(ctx context.Context, input *UpdateCommentInput) (*CommentOutput, error) {
	identity, err := requireIdentity(ctx)
	if err != nil {
		return nil, err
	}
	commentID := strings.TrimSpace(input.CommentID)
	if commentID == "" {
		return nil, fromDomain(errCommentIDRequired)
	}
	text, err := s.commentText(input.Body)
	if err != nil {
		return nil, err
	}

	comment, err := s.services.Comments.UpdateComment(ctx, commentID, identity.UID, text)
	if err != nil {
		return nil, s.fail(hideForbidden(err), "Failed to update comment")
	}
	return &CommentOutput{Body: ok("Comment updated successfully", comment)}, nil
}

func (s *Server) handleDeleteComment(ctx context.Context, input *CommentPathInput) (*MessageOutput, error) {
	identity, err := requireIdentity(ctx)
	if err != nil {
		return nil, err
	}
	commentID := strings.TrimSpace(input.ID)
	if commentID == "" {
		return nil, fromDomain(errCommentIDRequired)
	}

	if err := s.services.Comments.DeleteComment(ctx, commentID, identity.UID); err != nil {
		return nil, s.fail(hideForbidden(err), "Failed to delete comment")
	}
	return &MessageOutput{Body: ok[any]("Comment deleted successfully", nil)}, nil
}

// hideForbidden reports ownership failures as 404 so callers cannot probe
// for comments they do not own. The message is kept.
func hideForbidden(err error) error {
	var domainErr *domainerrors.Error
	if errors.As(err, &domainErr) && domainErr.Code == domainerrors.CodeForbidden {
		return domainerrors.NotFound(domainErr.Message)
	}
	return err
}
