package model

import "time"

// User is an account created by the Google login flow.
type User struct {
	Base
	Email         string    `json:"email" db:"email"`
	GoogleSub     string    `json:"googleSub" db:"google_sub"`
	PictureURL    string    `json:"pictureUrl" db:"picture_url"`
	FullName      string    `json:"fullName" db:"full_name"`
	GivenName     string    `json:"givenName" db:"given_name"`
	FamilyName    string    `json:"familyName" db:"family_name"`
	EmailVerified bool      `json:"emailVerified" db:"email_verified"`
	Locale        string    `json:"locale" db:"locale"`
	HostedDomain  string    `json:"hostedDomain" db:"hosted_domain"`
	Admin         bool      `json:"admin" db:"admin"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
}

// Validate checks required fields.
func (u *User) Validate() error {
	return requireField("email", u.Email)
}

// Roles returns the granted authorities for the user. Every user holds
// ROLE_USER; admins additionally hold ROLE_ADMIN.
func (u *User) Roles() []string {
	if u.Admin {
		return []string{RoleUser, RoleAdmin}
	}
	return []string{RoleUser}
}
