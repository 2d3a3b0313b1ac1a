package models

import "time"

type ReplyRole string

const (
	ReplyInstructor ReplyRole = "instructor"
	ReplyAdmin      ReplyRole = "admin"
)

// Review is a user's rating of a course. A course holds at most one review
// per user.
type Review struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	UserName     string    `json:"userName"`
	UserAvatar   string    `json:"userAvatar,omitempty"`
	Rating       int       `json:"rating"`
	Content      string    `json:"content"`
	Date         time.Time `json:"date"`
	Helpful      int       `json:"helpful"`
	HelpfulUsers []string  `json:"helpfulUsers"`
	Reply        *Reply    `json:"reply,omitempty"`
}

// MarkedHelpfulBy reports whether userID already voted for the review.
func (r Review) MarkedHelpfulBy(userID string) bool {
	for _, u := range r.HelpfulUsers {
		if u == userID {
			return true
		}
	}
	return false
}

type Reply struct {
	AuthorID     string    `json:"authorId"`
	AuthorName   string    `json:"authorName"`
	AuthorAvatar string    `json:"authorAvatar,omitempty"`
	AuthorRole   ReplyRole `json:"authorRole"`
	Text         string    `json:"text"`
	Date         time.Time `json:"date"`
}

const ReportPending = "pending"

type ReviewReport struct {
	ID         string    `json:"id"`
	CourseID   string    `json:"courseId"`
	ReviewID   string    `json:"reviewId"`
	ReportedBy string    `json:"reportedBy"`
	Reason     string    `json:"reason"`
	Status     string    `json:"status"` // pending, reviewed, resolved
	Timestamp  time.Time `json:"timestamp"`
}
