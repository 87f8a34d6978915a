package entities

import "net/url"

const avatarBaseURL = "https://api.dicebear.com/7.x/avataaars/svg?seed="

// Account is the identity issued by the hosted auth service
type Account struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name,omitempty"`
}

// NameOr returns the display name, or fallback when the account has none
func (a *Account) NameOr(fallback string) string {
	if a.DisplayName != "" {
		return a.DisplayName
	}
	return fallback
}

// AvatarURL returns the generated avatar seeded by the account email
func (a *Account) AvatarURL() string {
	return AvatarURL(a.Email)
}

// AvatarURL returns the deterministic generated avatar for seed
func AvatarURL(seed string) string {
	return avatarBaseURL + url.QueryEscape(seed)
}
