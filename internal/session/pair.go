package session

// Pair is the access/refresh credential pair issued by the API.
// The TOML keys are also the storage keys used by every Store.
type Pair struct {
	AccessToken  string `toml:"access_token"`
	RefreshToken string `toml:"refresh_token"`
}

// IsZero reports whether neither credential is present.
func (p Pair) IsZero() bool {
	return p.AccessToken == "" && p.RefreshToken == ""
}
