package domain

// MaxCommentLength is the longest comment text accepted, in characters.
const MaxCommentLength = 1000

// Comment is a user comment on a photo. Stored at comments/{commentId}.
type Comment struct {
	ID        string `json:"id"`
	PhotoID   string `json:"photoId"`
	UserID    string `json:"userId"`
	Text      string `json:"text"`
	CreatedAt int64  `json:"createdAt"`

	// LikesCount is recomputed from commentLikes on every list read.
	LikesCount int `json:"likesCount"`
}

// CommentWithUser is a comment joined with its author and the viewer's like state.
type CommentWithUser struct {
	Comment  Comment `json:"comment"`
	User     User    `json:"user"`
	HasLiked bool    `json:"hasLiked"`
}

// IsOwnedBy reports whether userID authored the comment.
func (c *Comment) IsOwnedBy(userID string) bool {
	return c != nil && c.UserID == userID
}
