package domain

import (
	"encoding/json"
	"regexp"
	"slices"
	"strings"
	"time"
)

// ID is a backend identifier that may arrive as a JSON string or number.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	*id = ID(b)
	return nil
}

func (id ID) String() string { return string(id) }

// User is the profile returned by the backend on signin/signup.
type User struct {
	ID       ID     `json:"id"`
	Username string `json:"username,omitempty"`
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Village  string `json:"village,omitempty"`
	State    string `json:"state,omitempty"`
	CropType string `json:"cropType,omitempty"`
}

// AuthSession is the signed-in state: created at login, cleared at logout.
type AuthSession struct {
	Token     string    `json:"token"`
	User      User      `json:"user"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// Authenticated reports whether the session carries a token.
func (s *AuthSession) Authenticated() bool {
	return s != nil && s.Token != ""
}

// UserID returns the signed-in user's id, or "" for an anonymous session.
func (s *AuthSession) UserID() string {
	if s == nil {
		return ""
	}
	return s.User.ID.String()
}

// Expired reports whether the session's token has passed its expiry.
func (s *AuthSession) Expired(now time.Time) bool {
	return s != nil && !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// CropTypes lists the crops a farmer can register with.
var CropTypes = []string{
	"Rice", "Wheat", "Maize", "Cotton", "Sugarcane", "Potato", "Tomato", "Onion", "Chili", "Other",
}

// States lists the Indian states offered at signup.
var States = []string{
	"Andhra Pradesh", "Arunachal Pradesh", "Assam", "Bihar", "Chhattisgarh", "Goa", "Gujarat",
	"Haryana", "Himachal Pradesh", "Jharkhand", "Karnataka", "Kerala", "Madhya Pradesh",
	"Maharashtra", "Manipur", "Meghalaya", "Mizoram", "Nagaland", "Odisha", "Punjab",
	"Rajasthan", "Sikkim", "Tamil Nadu", "Telangana", "Tripura", "Uttar Pradesh",
	"Uttarakhand", "West Bengal",
}

var (
	emailPattern = regexp.MustCompile(`\S+@\S+\.\S+`)
	nonDigit     = regexp.MustCompile(`\D`)
)

// SignupForm is what a farmer fills in to create an account.
type SignupForm struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword,omitempty"`
	Village         string `json:"village"`
	State           string `json:"state"`
	CropType        string `json:"cropType"`
}

// Validate returns a *ValidationError listing every invalid field, or nil.
func (f SignupForm) Validate() error {
	errs := make(map[string]string)

	if strings.TrimSpace(f.Name) == "" {
		errs["name"] = "Name is required"
	}
	if strings.TrimSpace(f.Village) == "" {
		errs["village"] = "Village/City is required"
	}
	switch {
	case strings.TrimSpace(f.State) == "":
		errs["state"] = "State is required"
	case !slices.Contains(States, f.State):
		errs["state"] = "State is not recognised"
	}
	switch {
	case strings.TrimSpace(f.CropType) == "":
		errs["cropType"] = "Crop type is required"
	case !slices.Contains(CropTypes, f.CropType):
		errs["cropType"] = "Crop type is not recognised"
	}
	if f.Password != f.ConfirmPassword {
		errs["confirmPassword"] = "Passwords do not match"
	}

	switch {
	case strings.TrimSpace(f.Email) == "":
		errs["email"] = "Email is required"
	case !emailPattern.MatchString(f.Email):
		errs["email"] = "Email is invalid"
	}

	switch {
	case strings.TrimSpace(f.Phone) == "":
		errs["phone"] = "Phone number is required"
	case len(nonDigit.ReplaceAllString(f.Phone, "")) != 10:
		errs["phone"] = "Phone number must be 10 digits"
	}

	switch {
	case strings.TrimSpace(f.Password) == "":
		errs["password"] = "Password is required"
	case len(f.Password) < 6:
		errs["password"] = "Password must be at least 6 characters"
	}

	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}

// Request returns the payload sent to the signup endpoint.
func (f SignupForm) Request() SignupForm {
	f.ConfirmPassword = ""
	f.Phone = nonDigit.ReplaceAllString(f.Phone, "")
	return f
}

// AuthResult is the signin/signup response envelope.
type AuthResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Token   string `json:"token,omitempty"`
	User    *User  `json:"user,omitempty"`
}
