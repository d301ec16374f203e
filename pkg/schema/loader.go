package schema

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/tgflow/pkg/actions"
	"github.com/aretw0/tgflow/pkg/domain"
	"github.com/mitchellh/mapstructure"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

// Load reads a YAML (or JSON) document, checks its structure and builds a raw
// schema, resolving action names through reg. The result still needs Compile.
func Load(r io.Reader, reg *Registry) (domain.Schema, error) {
	var raw map[string]any
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return domain.Schema{}, &ValidationError{Issues: []Issue{{Message: "document is empty"}}}
		}
		return domain.Schema{}, fmt.Errorf("failed to parse schema document: %w", err)
	}

	if err := checkStructure(raw); err != nil {
		return domain.Schema{}, err
	}

	doc, err := Decode(raw, false)
	if err != nil {
		return domain.Schema{}, err
	}
	return Build(doc, reg)
}

// Decode converts a generic map into a Document. With lenient set, unknown
// keys are ignored.
func Decode(raw map[string]any, lenient bool) (Document, error) {
	var doc Document
	if err := DecodeInto(raw, &doc, lenient); err != nil {
		return Document{}, err
	}
	return doc, nil
}

// DecodeInto decodes a generic map into any spec type using mapstructure tags.
// Single values are accepted where lists are expected.
func DecodeInto(raw map[string]any, out any, lenient bool) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		ErrorUnused:      !lenient,
	})
	if err != nil {
		return fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := dec.Decode(raw); err != nil {
		return fmt.Errorf("failed to decode schema document: %w", err)
	}
	return nil
}

// Build converts a Document into a raw schema. Unknown action names are
// reported together as a *ValidationError.
func Build(doc Document, reg *Registry) (domain.Schema, error) {
	var is issues
	s := domain.Schema{
		StartDialogID: doc.Start,
		ErrorDialogID: doc.ErrorDialog,
	}
	if s.StartDialogID == "" {
		s.StartDialogID = "start"
	}

	s.Fallback = resolve(&is, reg, "fallback", doc.Fallback, "")
	s.ReplyFallback = resolve(&is, reg, "reply_fallback", doc.ReplyFallback, "")

	for i, spec := range doc.Dialogs {
		path := fmt.Sprintf("dialogs[%d]", i)
		d, cmd := buildDialog(&is, reg, path, spec)
		s.Dialogs = append(s.Dialogs, d)
		if cmd != nil {
			s.Commands = append(s.Commands, *cmd)
		}
	}

	for i, spec := range doc.Commands {
		path := fmt.Sprintf("commands[%d]", i)
		s.Commands = append(s.Commands, domain.Command{
			Name:        spec.Name,
			Description: spec.Description,
			Action:      resolve(&is, reg, path+".action", spec.Action, spec.Goto),
		})
	}

	if err := is.err(); err != nil {
		return domain.Schema{}, err
	}
	return s, nil
}

// BuildDialog converts a single dialog spec. The returned command is non-nil
// when the spec declares one.
func BuildDialog(spec DialogSpec, reg *Registry) (domain.Dialog, *domain.Command, error) {
	var is issues
	d, cmd := buildDialog(&is, reg, spec.ID, spec)
	return d, cmd, is.err()
}

func buildDialog(is *issues, reg *Registry, path string, spec DialogSpec) (domain.Dialog, *domain.Command) {
	d := domain.Dialog{
		ID:                  spec.ID,
		RemoveReplyKeyboard: spec.RemoveReplyKeyboard,
		DisableLinkPreview:  spec.DisableLinkPreview,
		ProtectContent:      spec.ProtectContent,
	}
	if spec.Text != "" {
		d.Text = domain.Text(strings.TrimSpace(spec.Text))
	}
	if len(spec.Images) > 0 {
		d.Images = domain.Images(spec.Images...)
	}

	if len(spec.InlineButtons) > 0 {
		rows := make([][]domain.InlineButton, 0, len(spec.InlineButtons))
		for r, row := range spec.InlineButtons {
			buttons := make([]domain.InlineButton, 0, len(row))
			for c, b := range row {
				bp := fmt.Sprintf("%s.inline_buttons[%d][%d]", path, r, c)
				btn := domain.InlineButton{
					Text:         domain.Text(b.Text),
					Action:       resolve(is, reg, bp+".action", b.Action, b.Goto),
					CallbackData: b.CallbackData,
				}
				if b.URL != "" {
					btn.URL = domain.Text(b.URL)
				}
				if b.WebApp != "" {
					btn.WebApp = domain.Text(b.WebApp)
				}
				buttons = append(buttons, btn)
			}
			rows = append(rows, buttons)
		}
		d.InlineButtons = domain.InlineRows(rows...)
	}

	if len(spec.ReplyButtons) > 0 {
		rows := make([][]domain.ReplyButton, 0, len(spec.ReplyButtons))
		for r, row := range spec.ReplyButtons {
			buttons := make([]domain.ReplyButton, 0, len(row))
			for c, b := range row {
				bp := fmt.Sprintf("%s.reply_buttons[%d][%d]", path, r, c)
				btn := domain.ReplyButton{
					Text:            domain.Text(b.Text),
					Action:          resolve(is, reg, bp+".action", b.Action, b.Goto),
					RequestContact:  b.RequestContact,
					RequestLocation: b.RequestLocation,
				}
				switch b.RequestPoll {
				case "":
				case "any":
					btn.RequestPoll = &domain.PollRequest{Type: domain.PollAny}
				case "quiz", "regular":
					btn.RequestPoll = &domain.PollRequest{Type: domain.PollType(b.RequestPoll)}
				default:
					is.add(bp+".request_poll", "unknown poll type %q", b.RequestPoll)
				}
				buttons = append(buttons, btn)
			}
			rows = append(rows, buttons)
		}
		d.ReplyButtons = domain.ReplyRows(rows...)
	}

	if o := spec.ReplyOptions; o != nil {
		opts := domain.DefaultReplyKeyboardOptions()
		if o.Resize != nil {
			opts.Resize = *o.Resize
		}
		opts.OneTime = o.OneTime
		opts.Placeholder = o.Placeholder
		opts.Selective = o.Selective
		opts.Persistent = o.Persistent
		d.ReplyKeyboardOptions = &opts
	}

	d.OnEnter = hook(resolve(is, reg, path+".on_enter", spec.OnEnter, ""))
	d.OnLeave = hook(resolve(is, reg, path+".on_leave", spec.OnLeave, ""))

	var cmd *domain.Command
	if spec.Command != "" {
		cmd = &domain.Command{
			Name:        spec.Command,
			Description: spec.Description,
			Action:      domain.Do(actions.GoTo(spec.ID)),
		}
	}
	return d, cmd
}

func resolve(is *issues, reg *Registry, path string, names []string, gotoTarget string) domain.Actions {
	var out domain.Actions
	for i, n := range names {
		a, err := reg.Resolve(n)
		if err != nil {
			is.add(fmt.Sprintf("%s[%d]", path, i), "%v", err)
			continue
		}
		out = append(out, a)
	}
	if gotoTarget != "" {
		out = append(out, actions.GoTo(gotoTarget))
	}
	return out
}

// hook adapts an action sequence to a dialog hook.
func hook(as domain.Actions) domain.DialogHook {
	if len(as) == 0 {
		return nil
	}
	return func(ctx context.Context, hc *domain.HookContext) error {
		for _, a := range as {
			if err := a.Run(ctx, &hc.ActionContext); err != nil {
				return err
			}
		}
		return nil
	}
}

func checkStructure(raw map[string]any) error {
	b, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("schema document is not JSON compatible: %w", err)
	}
	var v any
	if err := json.NewDecoder(bytes.NewReader(b)).Decode(&v); err != nil {
		return fmt.Errorf("failed to normalize schema document: %w", err)
	}

	if err := documentSchema.Validate(v); err != nil {
		var verr *jsonschema.ValidationError
		if !errors.As(err, &verr) {
			return err
		}
		var is issues
		collectCauses(&is, verr)
		return is.err()
	}
	return nil
}

func collectCauses(is *issues, v *jsonschema.ValidationError) {
	if len(v.Causes) == 0 {
		path := strings.TrimPrefix(v.InstanceLocation, "/")
		is.add(strings.ReplaceAll(path, "/", "."), "%s", v.Message)
		return
	}
	for _, c := range v.Causes {
		collectCauses(is, c)
	}
}

var documentSchema = mustCompileDocumentSchema()

func mustCompileDocumentSchema() *jsonschema.Schema {
	c := jsonschema.NewCompiler()
	if err := c.AddResource("document.json", strings.NewReader(documentSchemaJSON)); err != nil {
		panic(err)
	}
	return c.MustCompile("document.json")
}

const documentSchemaJSON = `{
  "type": "object",
  "required": ["dialogs"],
  "additionalProperties": false,
  "properties": {
    "start": {"type": "string"},
    "error_dialog": {"type": "string"},
    "fallback": {"$ref": "#/$defs/actions"},
    "reply_fallback": {"$ref": "#/$defs/actions"},
    "dialogs": {"type": "array", "items": {"$ref": "#/$defs/dialog"}},
    "commands": {"type": "array", "items": {"$ref": "#/$defs/command"}}
  },
  "$defs": {
    "actions": {
      "oneOf": [
        {"type": "string"},
        {"type": "array", "items": {"type": "string"}}
      ]
    },
    "dialog": {
      "type": "object",
      "required": ["id"],
      "additionalProperties": false,
      "properties": {
        "id": {"type": "string"},
        "text": {"type": "string"},
        "images": {"type": "array", "items": {"type": "string"}},
        "inline_buttons": {"type": "array", "items": {"type": "array", "items": {"$ref": "#/$defs/button"}}},
        "reply_buttons": {"type": "array", "items": {"type": "array", "items": {"$ref": "#/$defs/reply_button"}}},
        "reply_keyboard_options": {
          "type": "object",
          "additionalProperties": false,
          "properties": {
            "resize": {"type": "boolean"},
            "one_time": {"type": "boolean"},
            "placeholder": {"type": "string"},
            "selective": {"type": "boolean"},
            "persistent": {"type": "boolean"}
          }
        },
        "remove_reply_keyboard": {"type": "boolean"},
        "disable_link_preview": {"type": "boolean"},
        "protect_content": {"type": "boolean"},
        "on_enter": {"$ref": "#/$defs/actions"},
        "on_leave": {"$ref": "#/$defs/actions"},
        "command": {"type": "string"},
        "description": {"type": "string"}
      }
    },
    "button": {
      "type": "object",
      "required": ["text"],
      "additionalProperties": false,
      "properties": {
        "text": {"type": "string"},
        "goto": {"type": "string"},
        "action": {"$ref": "#/$defs/actions"},
        "url": {"type": "string"},
        "web_app": {"type": "string"},
        "callback_data": {"type": "string"}
      }
    },
    "reply_button": {
      "type": "object",
      "required": ["text"],
      "additionalProperties": false,
      "properties": {
        "text": {"type": "string"},
        "goto": {"type": "string"},
        "action": {"$ref": "#/$defs/actions"},
        "request_contact": {"type": "boolean"},
        "request_location": {"type": "boolean"},
        "request_poll": {"enum": ["any", "quiz", "regular"]}
      }
    },
    "command": {
      "type": "object",
      "required": ["name"],
      "additionalProperties": false,
      "properties": {
        "name": {"type": "string"},
        "description": {"type": "string"},
        "goto": {"type": "string"},
        "action": {"$ref": "#/$defs/actions"}
      }
    }
  }
}`
