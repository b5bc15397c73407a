package model

// ProfileResponse is the JSON envelope of the profile endpoint
type ProfileResponse struct {
	Data      *ProfileView           `json:"data"`
	Error     *string                `json:"error"`
	Details   map[string]interface{} `json:"details"`
	Method    string                 `json:"method"`
	RateLimit *string                `json:"rate_limit"`
}
