package telegram_test

import (
	"testing"

	"github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/aretw0/tgflow/pkg/adapters/telegram"
	"github.com/aretw0/tgflow/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func message(m gotgbot.Message) *gotgbot.Update {
	m.Chat = gotgbot.Chat{Id: 10, Type: "private"}
	m.From = &gotgbot.User{Id: 20, Username: "ada"}
	m.MessageId = 30
	return &gotgbot.Update{UpdateId: 1, Message: &m}
}

func TestConvertUpdate_Messages(t *testing.T) {
	u := telegram.ConvertUpdate(message(gotgbot.Message{Text: "hello"}))
	require.NotNil(t, u)
	assert.Equal(t, domain.UpdateMessage, u.Kind)
	assert.Equal(t, domain.ConversationID(10), u.Conversation)
	assert.Equal(t, int64(20), u.UserID)
	assert.Equal(t, "ada", u.Username)
	assert.Equal(t, int64(30), u.MessageID)

	u = telegram.ConvertUpdate(message(gotgbot.Message{Text: "/Help@my_bot me"}))
	assert.Equal(t, domain.UpdateCommand, u.Kind)
	assert.Equal(t, "help", u.Command)
	assert.Equal(t, "me", u.CommandArgs)

	u = telegram.ConvertUpdate(message(gotgbot.Message{Document: &gotgbot.Document{FileId: "d1", FileName: "a.txt", MimeType: "text/plain"}}))
	assert.Equal(t, domain.UpdateDocument, u.Kind)
	assert.Equal(t, "a.txt", u.Document.FileName)

	u = telegram.ConvertUpdate(message(gotgbot.Message{Photo: []gotgbot.PhotoSize{{FileId: "s", Width: 10, Height: 10}, {FileId: "l", Width: 100, Height: 100}}}))
	assert.Equal(t, domain.UpdatePhoto, u.Kind)
	assert.Equal(t, "l", u.LargestPhoto().FileID)

	u = telegram.ConvertUpdate(message(gotgbot.Message{Contact: &gotgbot.Contact{PhoneNumber: "+1", FirstName: "Ada"}}))
	assert.Equal(t, domain.UpdateContact, u.Kind)
	assert.Equal(t, "+1", u.Contact.PhoneNumber)

	u = telegram.ConvertUpdate(message(gotgbot.Message{Location: &gotgbot.Location{Latitude: 1, Longitude: 2}}))
	assert.Equal(t, domain.UpdateLocation, u.Kind)
	assert.Equal(t, 2.0, u.Location.Longitude)

	assert.Nil(t, telegram.ConvertUpdate(message(gotgbot.Message{})), "service messages are ignored")
	assert.Nil(t, telegram.ConvertUpdate(&gotgbot.Update{UpdateId: 2}))
	assert.Nil(t, telegram.ConvertUpdate(nil))
}

func TestConvertUpdate_Callback(t *testing.T) {
	u := telegram.ConvertUpdate(&gotgbot.Update{CallbackQuery: &gotgbot.CallbackQuery{
		Id:      "cb1",
		From:    gotgbot.User{Id: 20},
		Data:    "0123456789abcdef",
		Message: &gotgbot.Message{MessageId: 55, Chat: gotgbot.Chat{Id: 10}},
	}})
	require.NotNil(t, u)
	assert.Equal(t, domain.UpdateCallback, u.Kind)
	assert.Equal(t, domain.ConversationID(10), u.Conversation)
	assert.Equal(t, int64(55), u.MessageID)
	assert.Equal(t, "cb1", u.CallbackID)
	assert.Equal(t, "0123456789abcdef", u.CallbackData)

	u = telegram.ConvertUpdate(&gotgbot.Update{CallbackQuery: &gotgbot.CallbackQuery{Id: "cb2", From: gotgbot.User{Id: 21}}})
	assert.Equal(t, domain.ConversationID(21), u.Conversation)
}
