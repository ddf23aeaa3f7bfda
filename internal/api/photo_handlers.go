package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/photogram/photogram-server/internal/domain"
	domainerrors "github.com/photogram/photogram-server/internal/errors"
)

var errPhotoIDRequired = domainerrors.Validation("Photo ID is required")

func (s *Server) registerPhotoRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listPublicPhotos",
		Method:      http.MethodGet,
		Path:        "/photos/public",
		Summary:     "Public feed",
		Description: "Returns one page of every photo category, newest first. A bearer token is optional and only fills hasLiked.",
		Tags:        []string{"Photos"},
		Middlewares: huma.Middlewares{s.optionalAuth},
	}, s.handleListCategories)

	huma.Register(s.api, huma.Operation{
		OperationID: "listCategories",
		Method:      http.MethodGet,
		Path:        "/photos/categories",
		Summary:     "Feed for the signed-in user",
		Description: "Same as the public feed, but requires authentication.",
		Tags:        []string{"Photos"},
		Security:    authed,
		Middlewares: huma.Middlewares{s.requireAuth},
	}, s.handleListCategories)

	huma.Register(s.api, huma.Operation{
		OperationID: "recordPhotoView",
		Method:      http.MethodPost,
		Path:        "/photos/{photoId}/view",
		Summary:     "Record a view",
		Description: "Appends one view event to the photo. Views are not deduplicated.",
		Tags:        []string{"Photos"},
		Security:    authed,
		Middlewares: huma.Middlewares{s.requireAuth},
	}, s.handleRecordView)
}

// PaginationInput holds the feed window query parameters.
type PaginationInput struct {
	Page     int `query:"page" default:"1" doc:"1-indexed page number"`
	PageSize int `query:"pageSize" default:"10" doc:"Photos per category, at most 100"`
}

func (p PaginationInput) pagination() domain.Pagination {
	return domain.Pagination{Page: p.Page, PageSize: p.PageSize}
}

// CategoriesOutput is the feed response.
type CategoriesOutput struct {
	Body Envelope[domain.Categories]
}

func (s *Server) handleListCategories(ctx context.Context, input *PaginationInput) (*CategoriesOutput, error) {
	categories, err := s.services.Photos.GetCategoriesWithPagination(ctx, viewerID(ctx), input.pagination())
	if err != nil {
		return nil, s.fail(err, "Failed to retrieve categories")
	}
	return &CategoriesOutput{Body: ok("Categories retrieved successfully", categories)}, nil
}

// PhotoIDInput identifies a photo by path.
type PhotoIDInput struct {
	PhotoID string `path:"photoId" doc:"Photo ID"`
}

// MessageOutput is a success envelope without data.
type MessageOutput struct {
	Body Envelope[any]
}

func (s *Server) handleRecordView(ctx context.Context, input *PhotoIDInput) (*MessageOutput, error) {
	if _, err := requireIdentity(ctx); err != nil {
		return nil, err
	}
	photoID := strings.TrimSpace(input.PhotoID)
	if photoID == "" {
		return nil, fromDomain(errPhotoIDRequired)
	}

	if err := s.services.Likes.IncrementViewCount(ctx, photoID); err != nil {
		return nil, s.fail(err, "Failed to increment view count")
	}
	return &MessageOutput{Body: ok[any]("View count incremented successfully", nil)}, nil
}
