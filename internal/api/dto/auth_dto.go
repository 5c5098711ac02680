package dto

// AuthRequest payload for login and registration.
type AuthRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RefreshRequest payload for token refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// LoginResponse carries an issued token pair.
type LoginResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}
