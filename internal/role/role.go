// Package role holds the role-keyed lookup tables the portal personalises
// itself with: chat quick questions, navigation menus and dashboard paths.
package role

import "strings"

type Role string

const (
	Student       Role = "student"
	Staff         Role = "staff"
	ResidentTutor Role = "resident_tutor"
	Warden        Role = "warden"
	Admin         Role = "admin"
	Unknown       Role = ""
)

// Parse normalises the role strings the backend hands out ("Resident Tutor",
// "resident-tutor", "RT", ...). Unrecognised input maps to Unknown.
func Parse(s string) Role {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer("-", "_", " ", "_").Replace(key)
	switch key {
	case "student":
		return Student
	case "staff":
		return Staff
	case "resident_tutor", "residenttutor", "rt", "tutor":
		return ResidentTutor
	case "warden":
		return Warden
	case "admin", "administrator":
		return Admin
	default:
		return Unknown
	}
}

func (r Role) String() string {
	if r == Unknown {
		return "guest"
	}
	return string(r)
}

// Title is the human label shown in greetings and the top bar.
func (r Role) Title() string {
	switch r {
	case Student:
		return "Student"
	case Staff:
		return "Staff"
	case ResidentTutor:
		return "Resident Tutor"
	case Warden:
		return "Warden"
	case Admin:
		return "Admin"
	default:
		return "Guest"
	}
}
