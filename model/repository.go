package model

// RepositoryRef is the slice of the repository listing we actually need:
// the full name builds the per-repository languages endpoint URL
type RepositoryRef struct {
	FullName string `json:"full_name"`
}

// LanguageByteMap maps a language name to the number of bytes written in it
// for a single repository, exactly as the languages endpoint returns it
type LanguageByteMap map[string]uint64
