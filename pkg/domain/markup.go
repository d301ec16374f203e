package domain

// InlineKey is a platform inline button. Exactly one of URL, WebApp or CallbackData is set.
type InlineKey struct {
	Text         string `json:"text"`
	URL          string `json:"url,omitempty"`
	WebApp       string `json:"web_app,omitempty"`
	CallbackData string `json:"callback_data,omitempty"`
}

// InlineKeyboard is the markup attached to a single message.
type InlineKeyboard struct {
	Rows [][]InlineKey `json:"rows"`
}

// ReplyKey is a platform reply keyboard button.
type ReplyKey struct {
	Text            string       `json:"text"`
	RequestContact  bool         `json:"request_contact,omitempty"`
	RequestLocation bool         `json:"request_location,omitempty"`
	RequestPoll     *PollRequest `json:"request_poll,omitempty"`
}

// ReplyKeyboard is a persistent custom keyboard.
type ReplyKeyboard struct {
	Rows        [][]ReplyKey `json:"rows"`
	Resize      bool         `json:"resize,omitempty"`
	OneTime     bool         `json:"one_time,omitempty"`
	Placeholder string       `json:"placeholder,omitempty"`
	Selective   bool         `json:"selective,omitempty"`
	Persistent  bool         `json:"persistent,omitempty"`
}

// RemoveKeyboard asks the platform to hide the persistent keyboard.
type RemoveKeyboard struct {
	Selective bool `json:"selective,omitempty"`
}

// SendOptions carry formatting and at most one markup for an outgoing message.
// When several markups are set, Inline wins over Reply, which wins over Remove.
type SendOptions struct {
	ParseMode          string
	DisableLinkPreview bool
	ProtectContent     bool
	Inline             *InlineKeyboard
	Reply              *ReplyKeyboard
	Remove             *RemoveKeyboard
}

// Message is a sent platform message.
type Message struct {
	ID           int64
	Conversation ConversationID
}

// MediaPhoto is one entry of a media group.
type MediaPhoto struct {
	Ref       string
	Caption   string
	ParseMode string
}

// CallbackAnswer acknowledges an inline button press.
type CallbackAnswer struct {
	Text      string
	ShowAlert bool
}

// File is downloaded file content.
type File struct {
	Name     string
	MimeType string
	Content  []byte
}
