package api

import (
	"github.com/photogram/photogram-server/internal/service"
)

// Services groups all business logic services used by the API server.
type Services struct {
	Likes    *service.LikeService
	Comments *service.CommentService
	Photos   *service.PhotoService
	Users    *service.UserService
}
