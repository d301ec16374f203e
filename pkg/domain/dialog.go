package domain

// InlineButton is a button attached to a message.
// Action is mutually exclusive with URL and WebApp.
type InlineButton struct {
	Text   TextSource
	Action Actions
	URL    TextSource
	WebApp TextSource
	// CallbackData is a caller-supplied literal token returned unchanged by the registry.
	CallbackData string
}

// PollType restricts the kind of poll a reply button may request.
type PollType string

const (
	PollAny     PollType = ""
	PollQuiz    PollType = "quiz"
	PollRegular PollType = "regular"
)

// PollRequest asks the user to create a poll.
type PollRequest struct {
	Type PollType `json:"type,omitempty"`
}

// ReplyButton is a button on a persistent keyboard; pressing it sends its label as text.
type ReplyButton struct {
	Text            TextSource
	Action          Actions
	RequestContact  bool
	RequestLocation bool
	RequestPoll     *PollRequest
}

// ReplyKeyboardOptions tune the persistent keyboard.
type ReplyKeyboardOptions struct {
	Resize      bool
	OneTime     bool
	Placeholder string
	Selective   bool
	Persistent  bool
}

// DefaultReplyKeyboardOptions returns the options used when a dialog sets none.
func DefaultReplyKeyboardOptions() ReplyKeyboardOptions {
	return ReplyKeyboardOptions{Resize: true}
}

// Dialog is a named screen.
type Dialog struct {
	ID     string
	Text   TextSource
	Images ImageSource

	InlineButtons        InlineSource
	ReplyButtons         ReplySource
	ReplyKeyboardOptions *ReplyKeyboardOptions
	RemoveReplyKeyboard  bool

	OnEnter DialogHook
	OnLeave DialogHook

	DisableLinkPreview bool
	ProtectContent     bool
}

// Command binds a slash command to actions.
type Command struct {
	Name        string
	Description string
	Action      Actions
}

// Schema is the declarative definition of a bot.
type Schema struct {
	StartDialogID string
	Dialogs       []Dialog
	Commands      []Command
	ErrorDialogID string
	Fallback      Actions
	ReplyFallback Actions
}
