package schema

// Document is the declarative, serializable form of a schema.
// It uses "mapstructure" tags to match YAML and frontmatter keys.
type Document struct {
	Start         string        `json:"start" mapstructure:"start"`
	ErrorDialog   string        `json:"error_dialog,omitempty" mapstructure:"error_dialog"`
	Fallback      []string      `json:"fallback,omitempty" mapstructure:"fallback"`
	ReplyFallback []string      `json:"reply_fallback,omitempty" mapstructure:"reply_fallback"`
	Dialogs       []DialogSpec  `json:"dialogs" mapstructure:"dialogs"`
	Commands      []CommandSpec `json:"commands,omitempty" mapstructure:"commands"`
}

// DialogSpec declares one dialog.
type DialogSpec struct {
	ID     string   `json:"id" mapstructure:"id"`
	Text   string   `json:"text,omitempty" mapstructure:"text"`
	Images []string `json:"images,omitempty" mapstructure:"images"`

	InlineButtons [][]ButtonSpec      `json:"inline_buttons,omitempty" mapstructure:"inline_buttons"`
	ReplyButtons  [][]ReplyButtonSpec `json:"reply_buttons,omitempty" mapstructure:"reply_buttons"`
	ReplyOptions  *ReplyOptionsSpec   `json:"reply_keyboard_options,omitempty" mapstructure:"reply_keyboard_options"`

	RemoveReplyKeyboard bool `json:"remove_reply_keyboard,omitempty" mapstructure:"remove_reply_keyboard"`
	DisableLinkPreview  bool `json:"disable_link_preview,omitempty" mapstructure:"disable_link_preview"`
	ProtectContent      bool `json:"protect_content,omitempty" mapstructure:"protect_content"`

	// OnEnter and OnLeave name actions run as dialog hooks.
	OnEnter []string `json:"on_enter,omitempty" mapstructure:"on_enter"`
	OnLeave []string `json:"on_leave,omitempty" mapstructure:"on_leave"`

	// Command, when set, registers a command that navigates to this dialog.
	// Used by directory loaders where commands live next to their dialogs.
	Command     string `json:"command,omitempty" mapstructure:"command"`
	Description string `json:"description,omitempty" mapstructure:"description"`
}

// ButtonSpec declares an inline button. Goto and Action may be combined;
// the named actions run first.
type ButtonSpec struct {
	Text         string   `json:"text" mapstructure:"text"`
	Goto         string   `json:"goto,omitempty" mapstructure:"goto"`
	Action       []string `json:"action,omitempty" mapstructure:"action"`
	URL          string   `json:"url,omitempty" mapstructure:"url"`
	WebApp       string   `json:"web_app,omitempty" mapstructure:"web_app"`
	CallbackData string   `json:"callback_data,omitempty" mapstructure:"callback_data"`
}

// ReplyButtonSpec declares a reply keyboard button.
type ReplyButtonSpec struct {
	Text            string   `json:"text" mapstructure:"text"`
	Goto            string   `json:"goto,omitempty" mapstructure:"goto"`
	Action          []string `json:"action,omitempty" mapstructure:"action"`
	RequestContact  bool     `json:"request_contact,omitempty" mapstructure:"request_contact"`
	RequestLocation bool     `json:"request_location,omitempty" mapstructure:"request_location"`
	// RequestPoll is "any", "quiz" or "regular".
	RequestPoll string `json:"request_poll,omitempty" mapstructure:"request_poll"`
}

// ReplyOptionsSpec mirrors domain.ReplyKeyboardOptions. Resize defaults to true.
type ReplyOptionsSpec struct {
	Resize      *bool  `json:"resize,omitempty" mapstructure:"resize"`
	OneTime     bool   `json:"one_time,omitempty" mapstructure:"one_time"`
	Placeholder string `json:"placeholder,omitempty" mapstructure:"placeholder"`
	Selective   bool   `json:"selective,omitempty" mapstructure:"selective"`
	Persistent  bool   `json:"persistent,omitempty" mapstructure:"persistent"`
}

// CommandSpec declares a slash command.
type CommandSpec struct {
	Name        string   `json:"name" mapstructure:"name"`
	Description string   `json:"description,omitempty" mapstructure:"description"`
	Goto        string   `json:"goto,omitempty" mapstructure:"goto"`
	Action      []string `json:"action,omitempty" mapstructure:"action"`
}
