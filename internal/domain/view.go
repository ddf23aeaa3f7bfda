package domain

import "time"

// View is one immutable view event stored at views/{photoId}/{viewId}.
type View struct {
	Timestamp int64  `json:"timestamp"`
	PhotoID   string `json:"photoId"`
	// UID is the photo owner, not the viewer.
	UID string `json:"uid"`
}

// Millis converts t to epoch milliseconds, the unit of every stored timestamp.
func Millis(t time.Time) int64 {
	return t.UnixMilli()
}
