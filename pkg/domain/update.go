package domain

import (
	"strings"
	"time"
)

// UpdateKind classifies an inbound event.
type UpdateKind string

const (
	UpdateMessage  UpdateKind = "message"
	UpdateCallback UpdateKind = "callback_query"
	UpdateCommand  UpdateKind = "command"
	UpdateDocument UpdateKind = "document"
	UpdatePhoto    UpdateKind = "photo"
	UpdateContact  UpdateKind = "contact"
	UpdateLocation UpdateKind = "location"
)

// Document is an uploaded file reference.
type Document struct {
	FileID   string `json:"file_id"`
	FileName string `json:"file_name,omitempty"`
	MimeType string `json:"mime_type,omitempty"`
	Size     int64  `json:"size,omitempty"`
}

// Photo is one size of an uploaded photo.
type Photo struct {
	FileID   string `json:"file_id"`
	Width    int64  `json:"width"`
	Height   int64  `json:"height"`
	FileSize int64  `json:"file_size,omitempty"`
}

// Contact is a shared phone contact.
type Contact struct {
	PhoneNumber string `json:"phone_number"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name,omitempty"`
	UserID      int64  `json:"user_id,omitempty"`
}

// Location is a shared geographic point.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Update is a normalized inbound event.
type Update struct {
	Kind         UpdateKind
	Conversation ConversationID
	UserID       int64
	Username     string
	// MessageID is the user's message, or the message carrying the pressed inline button.
	MessageID int64
	Timestamp time.Time

	Text        string
	Command     string
	CommandArgs string

	CallbackID   string
	CallbackData string

	Document *Document
	Photos   []Photo
	Contact  *Contact
	Location *Location
}

// LargestPhoto returns the biggest photo size, or nil.
func (u *Update) LargestPhoto() *Photo {
	var best *Photo
	for i := range u.Photos {
		p := &u.Photos[i]
		if best == nil || p.Width*p.Height > best.Width*best.Height {
			best = p
		}
	}
	return best
}

// ParseCommand splits "/name@bot args" into a lowercase name and the argument text.
// ok is false when text is not a command.
func ParseCommand(text string) (name, args string, ok bool) {
	if !strings.HasPrefix(text, "/") || len(text) < 2 {
		return "", "", false
	}
	head, rest, _ := strings.Cut(text[1:], " ")
	head, _, _ = strings.Cut(head, "@")
	if head == "" {
		return "", "", false
	}
	return strings.ToLower(head), strings.TrimSpace(rest), true
}
