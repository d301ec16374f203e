package tgflow

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/aretw0/tgflow/pkg/adapters/console"
	"github.com/aretw0/tgflow/pkg/domain"
)

// Runner simulates a single chat on a terminal: typed lines become updates
// and the bot answers through a console platform.
//
// Input conventions:
//
//	3                  press inline button number 3
//	/help args         command
//	@file <path>       send a document read from disk
//	@photo <id>        send a photo
//	@contact <phone> [name]
//	@location <lat> <lon>
//	exit | quit        leave
//
// Anything else is sent as text (and matches reply buttons by label).
type Runner struct {
	Input        io.Reader
	Output       io.Writer
	Conversation domain.ConversationID
	Headless     bool

	inflight atomic.Int32
	nextMsg  int64
}

// NewRunner creates a Runner for conversation 1.
// Input and Output must be set before Run.
func NewRunner() *Runner {
	return &Runner{Conversation: 1}
}

// Run resets the conversation and processes input until EOF or exit.
func (r *Runner) Run(ctx context.Context, bot *Bot, platform *console.Platform) error {
	if r.Input == nil {
		return fmt.Errorf("input reader must be set (use os.Stdin)")
	}
	if r.Output == nil {
		return fmt.Errorf("output writer must be set (use os.Stdout)")
	}
	lines := bufio.NewReader(r.Input)
	r.nextMsg = 1_000_000

	if !r.Headless {
		fmt.Fprintln(r.Output, "--- tgflow simulator (type 'exit' to quit) ---")
	}
	r.dispatch(ctx, bot, &domain.Update{Kind: domain.UpdateCommand, Command: "start", Text: "/start"})

	for {
		if !r.Headless {
			fmt.Fprint(r.Output, "> ")
		}
		text, err := lines.ReadString('\n')
		input := strings.TrimSpace(text)
		if err != nil && input == "" {
			if err == io.EOF {
				break
			}
			return fmt.Errorf("input error: %w", err)
		}
		if input == "exit" || input == "quit" {
			if !r.Headless {
				fmt.Fprintln(r.Output, "Bye!")
			}
			break
		}
		if input != "" {
			u, perr := r.parse(input, platform)
			if perr != nil {
				fmt.Fprintln(r.Output, perr)
			} else {
				r.dispatch(ctx, bot, u)
			}
		}
		if err == io.EOF {
			break
		}
	}
	return nil
}

// parse turns one input line into an update.
func (r *Runner) parse(input string, platform *console.Platform) (*domain.Update, error) {
	r.nextMsg++
	u := &domain.Update{Conversation: r.Conversation, MessageID: r.nextMsg, Timestamp: time.Now()}

	if n, err := strconv.Atoi(input); err == nil {
		for _, b := range platform.Buttons(r.Conversation) {
			if b.Number == n {
				u.Kind = domain.UpdateCallback
				u.CallbackID = "console-" + strconv.FormatInt(r.nextMsg, 10)
				u.CallbackData = b.Token
				u.MessageID = b.MessageID
				return u, nil
			}
		}
	}

	verb, rest, _ := strings.Cut(input, " ")
	rest = strings.TrimSpace(rest)
	switch verb {
	case "@file":
		if rest == "" {
			return nil, fmt.Errorf("usage: @file <path>")
		}
		u.Kind = domain.UpdateDocument
		u.Document = &domain.Document{FileID: rest}
	case "@photo":
		if rest == "" {
			return nil, fmt.Errorf("usage: @photo <id>")
		}
		u.Kind = domain.UpdatePhoto
		u.Photos = []domain.Photo{{FileID: rest}}
	case "@contact":
		phone, name, _ := strings.Cut(rest, " ")
		if phone == "" {
			return nil, fmt.Errorf("usage: @contact <phone> [name]")
		}
		u.Kind = domain.UpdateContact
		u.Contact = &domain.Contact{PhoneNumber: phone, FirstName: strings.TrimSpace(name)}
	case "@location":
		fields := strings.Fields(rest)
		if len(fields) != 2 {
			return nil, fmt.Errorf("usage: @location <lat> <lon>")
		}
		lat, err1 := strconv.ParseFloat(fields[0], 64)
		lon, err2 := strconv.ParseFloat(fields[1], 64)
		if err1 != nil || err2 != nil {
			return nil, fmt.Errorf("invalid coordinates %q", rest)
		}
		u.Kind = domain.UpdateLocation
		u.Location = &domain.Location{Latitude: lat, Longitude: lon}
	default:
		u.Kind = domain.UpdateMessage
		u.Text = input
	}
	return u, nil
}

// dispatch handles u in the background and returns once the bot is idle or
// blocked waiting for the next input.
func (r *Runner) dispatch(ctx context.Context, bot *Bot, u *domain.Update) {
	if u.Conversation == 0 {
		u.Conversation = r.Conversation
	}
	r.inflight.Add(1)
	go func() {
		defer r.inflight.Add(-1)
		if err := bot.HandleUpdate(ctx, u); err != nil {
			fmt.Fprintf(r.Output, "error: %v\n", err)
		}
	}()

	tick := time.NewTicker(5 * time.Millisecond)
	defer tick.Stop()
	for {
		n := r.inflight.Load()
		if n == 0 || (n == 1 && bot.State(r.Conversation).IsWaiting()) {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
		}
	}
}
