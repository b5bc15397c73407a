package model

import "strings"

const (
	MethodAPI    = "api"
	MethodScrape = "scrape"
)

type ProfileQuery struct {
	Username string `form:"username"`
	Method   string `form:"method"`
}

// NormalizedUsername trims surrounding whitespace, an empty result means the
// parameter was missing
func (params ProfileQuery) NormalizedUsername() string {
	return strings.TrimSpace(params.Username)
}

// NormalizedMethod lowercases the method and falls back to the api method
// when the parameter is absent
func (params ProfileQuery) NormalizedMethod() string {
	method := strings.ToLower(strings.TrimSpace(params.Method))

	if method == "" {
		return MethodAPI
	}

	return method
}
