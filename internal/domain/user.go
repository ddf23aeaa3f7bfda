package domain

// User is a registered account stored at users/{uid}.
type User struct {
	UID   string  `json:"uid"`
	Name  *string `json:"name"`
	Email string  `json:"email"`

	// NumberOfUploads is recomputed from users/{uid}/images on every read.
	NumberOfUploads int `json:"numberOfUploads"`
	TotalViews      int `json:"totalViews"`

	// TotalLikes is denormalized: the number of likes on photos this user owns.
	// Only like toggles and counter reconciliation write it.
	TotalLikes int `json:"totalLikes"`
}

// DisplayName returns the user's name, or an empty string if unset.
func (u *User) DisplayName() string {
	if u == nil || u.Name == nil {
		return ""
	}
	return *u.Name
}

// UpdateProfile holds the user-editable profile fields.
type UpdateProfile struct {
	Name string `json:"name" label:"Name" validate:"notblank,max=100"`
}
