package runtime

import "time"

const (
	// DefaultEmptyText is rendered when a dialog has no text.
	DefaultEmptyText = "📄"

	// DefaultStopReason is the cancellation reason of waits pending at shutdown.
	DefaultStopReason = "Bot stopped"

	keyboardCarrierText = "⌨️"
)

// Config tunes the runtime behavior.
type Config struct {
	// ParseMode is applied to every rendered dialog and standalone message.
	ParseMode string `yaml:"parse_mode"`

	// EnableStartCommand makes /start reset the conversation and show the start dialog.
	EnableStartCommand bool `yaml:"enable_start_command"`

	// AutoDeleteUserMessages deletes user messages the runtime consumed.
	AutoDeleteUserMessages bool `yaml:"auto_delete_user_messages"`

	// InputTimeout is the default wait timeout. Zero or negative disables it.
	InputTimeout time.Duration `yaml:"input_timeout"`

	// CancelKeywords are used by waits that set none.
	CancelKeywords []string `yaml:"cancel_keywords"`

	// EmptyText replaces a missing dialog text.
	EmptyText string `yaml:"empty_text"`

	// ValidateSchema validates the schema before compiling it.
	ValidateSchema bool `yaml:"validate_schema"`
}

// DefaultConfig returns the defaults used by NewEngine.
func DefaultConfig() Config {
	return Config{
		ParseMode:              "HTML",
		EnableStartCommand:     true,
		AutoDeleteUserMessages: true,
		InputTimeout:           5 * time.Minute,
		CancelKeywords:         []string{"/cancel"},
		EmptyText:              DefaultEmptyText,
		ValidateSchema:         true,
	}
}
