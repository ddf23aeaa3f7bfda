package store

// Collection roots of the document tree.
const (
	UsersRoot            = "users"
	PublicImagesRoot     = "images/public"
	LikesRoot            = "likes"
	CommentsRoot         = "comments"
	CommentLikesRoot     = "commentLikes"
	ViewsRoot            = "views"
	LikeIndexRoot        = "likeIndex"
	CommentLikeIndexRoot = "commentLikeIndex"

	// IndexVersionPath marks that the like indexes have been backfilled.
	IndexVersionPath = "indexes/version"
)

// UserPath is users/{uid}.
func UserPath(uid string) string { return Join(UsersRoot, uid) }

// UserImagesPath is users/{uid}/images, counted for numberOfUploads.
func UserImagesPath(uid string) string { return Join(UsersRoot, uid, "images") }

// PhotoPath is images/public/{photoId}.
func PhotoPath(photoID string) string { return Join(PublicImagesRoot, photoID) }

// LikePath is likes/{likeId}.
func LikePath(likeID string) string { return Join(LikesRoot, likeID) }

// CommentPath is comments/{commentId}.
func CommentPath(commentID string) string { return Join(CommentsRoot, commentID) }

// CommentLikePath is commentLikes/{likeId}.
func CommentLikePath(likeID string) string { return Join(CommentLikesRoot, likeID) }

// PhotoViewsPath is views/{photoId}.
func PhotoViewsPath(photoID string) string { return Join(ViewsRoot, photoID) }

// LikeIndexPath is likeIndex/{photoId}/{userId}.
func LikeIndexPath(photoID, userID string) string { return Join(LikeIndexRoot, photoID, userID) }

// CommentLikeIndexPath is commentLikeIndex/{commentId}/{userId}.
func CommentLikeIndexPath(commentID, userID string) string {
	return Join(CommentLikeIndexRoot, commentID, userID)
}

// CommentLikeIndexRootPath is commentLikeIndex/{commentId}.
func CommentLikeIndexRootPath(commentID string) string {
	return Join(CommentLikeIndexRoot, commentID)
}

// LikeIndexRootPath is likeIndex/{photoId}.
func LikeIndexRootPath(photoID string) string { return Join(LikeIndexRoot, photoID) }
