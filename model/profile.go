package model

import "time"

// profile timestamps are displayed in Korean Standard Time (fixed UTC+9, no DST)
var kstZone = time.FixedZone("KST", 9*60*60)

// GithubUser is the upstream user record, only the fields we map into the view
type GithubUser struct {
	Login           string  `json:"login"`
	Name            *string `json:"name"`
	AvatarURL       string  `json:"avatar_url"`
	HTMLURL         string  `json:"html_url"`
	Blog            *string `json:"blog"`
	Bio             *string `json:"bio"`
	Location        *string `json:"location"`
	Email           *string `json:"email"`
	TwitterUsername *string `json:"twitter_username"`
	PublicRepos     int     `json:"public_repos"`
	Followers       int     `json:"followers"`
	Following       int     `json:"following"`
	CreatedAt       string  `json:"created_at"`
}

// ProfileView is the normalized profile returned to API consumers
type ProfileView struct {
	Login              string         `json:"login"`
	Name               *string        `json:"name"`
	AvatarURL          string         `json:"avatar_url"`
	HTMLURL            string         `json:"html_url"`
	Blog               *string        `json:"blog"`
	Bio                *string        `json:"bio"`
	Location           *string        `json:"location"`
	Email              *string        `json:"email"`
	TwitterUsername    *string        `json:"twitter_username"`
	PublicRepos        int            `json:"public_repos"`
	Followers          int            `json:"followers"`
	Following          int            `json:"following"`
	CreatedAt          string         `json:"created_at"`
	CreatedAtFmt       string         `json:"created_at_fmt"`
	LanguageStats      *LanguageStats `json:"language_stats"`
	LanguageStatsError string         `json:"language_stats_error,omitempty"`
}

// NewProfileView maps the raw upstream record into the normalized view.
// The language stats are attached by the caller afterwards.
func NewProfileView(user GithubUser) *ProfileView {
	return &ProfileView{
		Login:           user.Login,
		Name:            user.Name,
		AvatarURL:       user.AvatarURL,
		HTMLURL:         user.HTMLURL,
		Blog:            user.Blog,
		Bio:             user.Bio,
		Location:        user.Location,
		Email:           user.Email,
		TwitterUsername: user.TwitterUsername,
		PublicRepos:     user.PublicRepos,
		Followers:       user.Followers,
		Following:       user.Following,
		CreatedAt:       user.CreatedAt,
		CreatedAtFmt:    IsoToKSTString(user.CreatedAt),
	}
}

// FormatKST renders a timestamp in the fixed UTC+9 display format
func FormatKST(t time.Time) string {
	return t.In(kstZone).Format("2006-01-02 15:04:05 MST")
}

// IsoToKSTString converts an upstream RFC3339 timestamp into the display
// format. An unparsable input is returned unchanged, never an error.
func IsoToKSTString(iso string) string {
	parsed, err := time.Parse(time.RFC3339, iso)
	if err != nil {
		return iso
	}

	return FormatKST(parsed)
}
