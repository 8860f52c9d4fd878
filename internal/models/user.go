package models

// UserProfile is the signed-in staff member. It is persisted as JSON in secure
// storage, so the tags are the client's own camelCase names.
type UserProfile struct {
	ID          int    `json:"id"`
	Username    string `json:"username"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	FullName    string `json:"fullName"`
	Email       string `json:"email"`
	IsSuperuser bool   `json:"isSuperuser"`
}

// LoginRequest represents the request body for login
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResult is the mapped login response
type LoginResult struct {
	Access  string
	Refresh string
	User    *UserProfile
}
