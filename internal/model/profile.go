package model

type Profile struct {
	ID             string `json:"_id"`
	Username       string `json:"username"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	Role           string `json:"role"`
	Designation    string `json:"designation,omitempty"`
	ProfilePicture string `json:"profilePicture,omitempty"`
}

// ProfileUpdate carries only the fields the profile editor lets a user change.
type ProfileUpdate struct {
	Name        string `json:"name"`
	Email       string `json:"email,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Designation string `json:"designation,omitempty"`
}
