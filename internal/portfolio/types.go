package portfolio

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Project is a portfolio project. Slug is its identity; RepoURL, when it
// points at a real repository, is used to enrich Description, Stars and
// UpdatedAt from GitHub. Enriched marks values that came from a successful
// fetch.
type Project struct {
	Slug         string    `json:"slug" yaml:"slug"`
	Title        string    `json:"title" yaml:"title"`
	Description  string    `json:"description" yaml:"description"`
	Technologies []string  `json:"technologies" yaml:"technologies"`
	ImageURL     string    `json:"imageUrl,omitempty" yaml:"imageUrl"`
	RepoURL      string    `json:"repoUrl,omitempty" yaml:"repoUrl"`
	Date         string    `json:"date,omitempty" yaml:"date"`
	Category     string    `json:"category" yaml:"category"`
	Stars        int       `json:"stars,omitempty" yaml:"-"`
	UpdatedAt    time.Time `json:"updatedAt,omitempty" yaml:"-"`
	Enriched     bool      `json:"enriched,omitempty" yaml:"-"`
}

// Tag is a writeup tag.
type Tag struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Writeup is a CTF writeup served by the API.
type Writeup struct {
	ID             int64    `json:"id"`
	Title          string   `json:"title"`
	Platform       string   `json:"platform"`
	Difficulty     string   `json:"difficulty"`
	Category       string   `json:"category"`
	Date           string   `json:"date,omitempty"`
	TimeSpent      string   `json:"time_spent,omitempty"`
	Summary        string   `json:"summary,omitempty"`
	WriteupURL     string   `json:"writeup_url,omitempty"`
	ContentType    string   `json:"content_type,omitempty"`
	ThumbnailURL   string   `json:"thumbnail_url,omitempty"`
	Tags           []Tag    `json:"tags,omitempty"`
	Overview       string   `json:"overview,omitempty"`
	Methodology    []string `json:"methodology,omitempty"`
	ToolsUsed      []string `json:"tools_used,omitempty"`
	KeyFindings    []string `json:"key_findings,omitempty"`
	LessonsLearned []string `json:"lessons_learned,omitempty"`
}

// TagNames returns the writeup's tag names.
func (w Writeup) TagNames() []string {
	names := make([]string, len(w.Tags))
	for i, t := range w.Tags {
		names[i] = t.Name
	}
	return names
}

// Comment is a reader comment on a writeup.
type Comment struct {
	ID         int64     `json:"id"`
	WriteupID  string    `json:"writeup_id"`
	UserName   string    `json:"user_name"`
	UserEmail  string    `json:"user_email"`
	Content    string    `json:"content"`
	CreatedAt  string    `json:"created_at,omitempty"`
	UpdatedAt  string    `json:"updated_at,omitempty"`
	IsApproved bool      `json:"is_approved"`
	IsSpam     bool      `json:"is_spam"`
	ReplyToID  *int64    `json:"reply_to_id,omitempty"`
	Replies    []Comment `json:"replies,omitempty"`
}

// CommentDraft is the payload for posting a comment.
type CommentDraft struct {
	WriteupID string `json:"writeup_id"`
	UserName  string `json:"user_name"`
	UserEmail string `json:"user_email"`
	Content   string `json:"content"`
}

// Draft returns the fields of c needed to post it.
func (c Comment) Draft() CommentDraft {
	return CommentDraft{WriteupID: c.WriteupID, UserName: c.UserName, UserEmail: c.UserEmail, Content: c.Content}
}

// Subscription is a newsletter subscription.
type Subscription struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	IsActive     bool      `json:"is_active"`
	SubscribedAt string    `json:"subscribed_at,omitempty"`
}

// ContactMessage is a contact form submission.
type ContactMessage struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Subject      string `json:"subject"`
	Message      string `json:"message"`
	CaptchaToken string `json:"captchaToken"`
}

// Validate applies the contact form's length rules.
func (m ContactMessage) Validate() error {
	switch {
	case len(strings.TrimSpace(m.Name)) < 2 || len(m.Name) > 100:
		return errInvalid("name must be 2-100 characters")
	case !strings.Contains(m.Email, "@"):
		return errInvalid("email is invalid")
	case len(strings.TrimSpace(m.Subject)) < 5 || len(m.Subject) > 200:
		return errInvalid("subject must be 5-200 characters")
	case len(strings.TrimSpace(m.Message)) < 10 || len(m.Message) > 5000:
		return errInvalid("message must be 10-5000 characters")
	}
	return nil
}

type errInvalid string

func (e errInvalid) Error() string { return string(e) }
