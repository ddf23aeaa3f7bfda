package domain

// Like records that a user liked a photo. Stored at likes/{likeId}.
type Like struct {
	ID        string `json:"id"`
	PostID    string `json:"postId"`
	UserID    string `json:"userId"`
	CreatedAt int64  `json:"createdAt"`
}

// CommentLike records that a user liked a comment. Stored at commentLikes/{likeId}.
type CommentLike struct {
	ID        string `json:"id"`
	CommentID string `json:"commentId"`
	UserID    string `json:"userId"`
	CreatedAt int64  `json:"createdAt"`
}

// ToggleResult is the outcome of a like toggle.
type ToggleResult struct {
	HasLiked bool
	Message  string
}
