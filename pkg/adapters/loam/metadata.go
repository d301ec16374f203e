package loam

import (
	"fmt"
	"strings"

	"github.com/aretw0/tgflow/pkg/schema"
)

// IndexID is the document id holding bot-wide settings (start dialog, error
// dialog, fallbacks and extra commands). Every other document is a dialog.
const IndexID = "_bot"

// Metadata is the raw frontmatter of a document. It stays a generic map so the
// same keys used by YAML schema documents are accepted verbatim.
type Metadata map[string]any

// ID returns the explicit "id" key, if any.
func (m Metadata) ID() string {
	if v, ok := m["id"].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

// Dialog decodes the frontmatter into a dialog spec. The markdown body is used
// as the dialog text when no "text" key is present.
func (m Metadata) Dialog(id, body string) (schema.DialogSpec, error) {
	raw := make(map[string]any, len(m)+1)
	for k, v := range m {
		raw[k] = v
	}
	raw["id"] = id

	var spec schema.DialogSpec
	if err := schema.DecodeInto(raw, &spec, false); err != nil {
		return schema.DialogSpec{}, fmt.Errorf("dialog %s: %w", id, err)
	}
	if spec.Text == "" {
		spec.Text = strings.TrimSpace(body)
	}
	return spec, nil
}

// Index decodes the bot-wide settings. Dialog lists in the index are not
// allowed; dialogs live in their own documents.
func (m Metadata) Index() (schema.Document, error) {
	raw := make(map[string]any, len(m))
	for k, v := range m {
		if k == "id" {
			continue
		}
		raw[k] = v
	}
	if _, ok := raw["dialogs"]; ok {
		return schema.Document{}, fmt.Errorf("%s: dialogs must be declared in their own documents", IndexID)
	}

	var doc schema.Document
	if err := schema.DecodeInto(raw, &doc, false); err != nil {
		return schema.Document{}, fmt.Errorf("%s: %w", IndexID, err)
	}
	return doc, nil
}
