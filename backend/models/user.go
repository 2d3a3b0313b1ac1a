package models

import "time"

// User is the profile document kept for an identity-service account.
type User struct {
	ID          string       `json:"id"`
	DisplayName string       `json:"displayName,omitempty"`
	Email       string       `json:"email"`
	PhotoURL    string       `json:"photoURL,omitempty"`
	IsAdmin     bool         `json:"isAdmin"`
	Enrolled    []string     `json:"enrolled"`
	Completed   []string     `json:"completed"`
	LastActive  time.Time    `json:"lastActive"`
	Settings    UserSettings `json:"settings"`
}

// UserSettings are the per-user preferences edited on the profile page.
type UserSettings struct {
	EmailNotifications bool `json:"emailNotifications"`
}

func (u User) IsEnrolled(courseID string) bool {
	return contains(u.Enrolled, courseID)
}

func (u User) HasCompleted(courseID string) bool {
	return contains(u.Completed, courseID)
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
