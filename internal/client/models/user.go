// Package models defines the payloads exchanged with the diagnosis API and
// the records the client keeps locally.
package models

// User is the account record returned by login and profile calls and
// persisted under the userData key.
type User struct {
	ID                int64  `json:"id"`
	Email             string `json:"email"`
	Name              string `json:"name"`
	PreferredLanguage string `json:"preferred_language,omitempty"`
}

// Merge returns u with every non-zero field of patch applied.
func (u User) Merge(patch User) User {
	if patch.ID != 0 {
		u.ID = patch.ID
	}
	if patch.Email != "" {
		u.Email = patch.Email
	}
	if patch.Name != "" {
		u.Name = patch.Name
	}
	if patch.PreferredLanguage != "" {
		u.PreferredLanguage = patch.PreferredLanguage
	}
	return u
}

// Credentials is what a successful sign-in hands to the session manager.
type Credentials struct {
	Token string
	User  User
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResult struct {
	Message string `json:"message"`
	Token   string `json:"token"`
	User    User   `json:"user"`
}

type RegisterRequest struct {
	Name              string `json:"name"`
	Email             string `json:"email"`
	Password          string `json:"password"`
	Phone             string `json:"phone,omitempty"`
	PreferredLanguage string `json:"preferred_language,omitempty"`
}

type RegisterResult struct {
	Message string `json:"message"`
	UserID  int64  `json:"user_id"`
	Token   string `json:"token"`
}

type ResetPasswordRequest struct {
	Email       string `json:"email"`
	OTP         string `json:"otp"`
	NewPassword string `json:"new_password"`
}

// Ack is the {message} body most mutating endpoints answer with.
type Ack struct {
	Message string `json:"message"`
}

type LanguageUpdate struct {
	Message  string `json:"message"`
	Language string `json:"language"`
}
