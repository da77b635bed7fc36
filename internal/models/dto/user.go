package dto

// SignupRequest is the body of POST /api/users.
type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	About    string `json:"about"`
}

// FollowRequest carries both follow and unfollow bodies; only one of
// FollowID and UnfollowID is set.
type FollowRequest struct {
	UserID     string `json:"userId"`
	FollowID   string `json:"followId"`
	UnfollowID string `json:"unfollowId"`
}

// ProfileUpdateRequest is a JSON profile update; nil fields are left unchanged.
type ProfileUpdateRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	About    *string `json:"about"`
	Password *string `json:"password"`
}
