package model

// LanguageEntry is one language line of the aggregate, bytes and share of the
// grand total
type LanguageEntry struct {
	Lang  string  `json:"lang"`
	Bytes uint64  `json:"bytes"`
	Pct   float64 `json:"pct"`
}

// LanguageStats is the merged language usage summary for one user.
// ByLang is sorted by descending byte count, ties keep the order in which the
// languages were first accumulated. Note is non nil exactly when the summary
// is partial (scan cap reached, or the username was empty).
type LanguageStats struct {
	TotalBytes   uint64          `json:"total_bytes"`
	ByLang       []LanguageEntry `json:"by_lang"`
	RepoCount    int             `json:"repo_count"`
	ScannedRepos int             `json:"scanned_repos"`
	GeneratedAt  string          `json:"generated_at"`
	Note         *string         `json:"note"`
}
