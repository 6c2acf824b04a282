package bot

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/gotd/td/telegram/uploader"
	"github.com/gotd/td/tg"
)

// TelegramAPI is the subset of *tg.Client the bot calls. It exists so
// handlers can be exercised against a mock.
type TelegramAPI interface {
	MessagesSendMessage(ctx context.Context, request *tg.MessagesSendMessageRequest) (tg.UpdatesClass, error)
	MessagesEditMessage(ctx context.Context, request *tg.MessagesEditMessageRequest) (tg.UpdatesClass, error)
	MessagesDeleteMessages(ctx context.Context, request *tg.MessagesDeleteMessagesRequest) (*tg.MessagesAffectedMessages, error)
	ChannelsDeleteMessages(ctx context.Context, request *tg.ChannelsDeleteMessagesRequest) (*tg.MessagesAffectedMessages, error)
	MessagesSendMedia(ctx context.Context, request *tg.MessagesSendMediaRequest) (tg.UpdatesClass, error)
	MessagesSetBotCallbackAnswer(ctx context.Context, request *tg.MessagesSetBotCallbackAnswerRequest) (bool, error)
	UploadSaveFilePart(ctx context.Context, request *tg.UploadSaveFilePartRequest) (bool, error)
	UploadSaveBigFilePart(ctx context.Context, request *tg.UploadSaveBigFilePartRequest) (bool, error)
}

// Text is a message body with its formatting entities
type Text struct {
	Message  string
	Entities []tg.MessageEntityClass
}

// Messenger wraps TelegramAPI with the message operations used by handlers
type Messenger struct {
	api TelegramAPI
}

// NewMessenger creates a new Messenger
func NewMessenger(api TelegramAPI) *Messenger {
	return &Messenger{api: api}
}

// API returns the underlying Telegram API
func (m *Messenger) API() TelegramAPI {
	return m.api
}

// Send sends a message and returns its ID. replyTo is ignored when zero.
func (m *Messenger) Send(ctx context.Context, peer tg.InputPeerClass, text Text, markup tg.ReplyMarkupClass, replyTo int) (int, error) {
	if m.api == nil {
		return 0, fmt.Errorf("bot client is not initialized")
	}

	request := &tg.MessagesSendMessageRequest{
		Peer:      peer,
		Message:   text.Message,
		Entities:  text.Entities,
		NoWebpage: true,
		RandomID:  time.Now().UnixNano(),
	}
	if markup != nil {
		request.ReplyMarkup = markup
	}
	if replyTo != 0 {
		request.ReplyTo = &tg.InputReplyToMessage{ReplyToMsgID: replyTo}
	}

	updates, err := m.api.MessagesSendMessage(ctx, request)
	if err != nil {
		return 0, fmt.Errorf("failed to send message via Telegram API: %w", err)
	}

	return extractMessageID(updates), nil
}

// Edit replaces the text of a message. A nil markup removes the keyboard.
func (m *Messenger) Edit(ctx context.Context, peer tg.InputPeerClass, messageID int, text Text, markup tg.ReplyMarkupClass) error {
	if m.api == nil {
		return fmt.Errorf("bot client is not initialized")
	}

	request := &tg.MessagesEditMessageRequest{
		Peer:      peer,
		ID:        messageID,
		Message:   text.Message,
		Entities:  text.Entities,
		NoWebpage: true,
	}
	if markup != nil {
		request.ReplyMarkup = markup
	}

	if _, err := m.api.MessagesEditMessage(ctx, request); err != nil {
		return fmt.Errorf("failed to edit message %d: %w", messageID, err)
	}
	return nil
}

// Delete removes messages from the chat for everyone
func (m *Messenger) Delete(ctx context.Context, peer tg.InputPeerClass, messageIDs ...int) error {
	if m.api == nil {
		return fmt.Errorf("bot client is not initialized")
	}

	// Channel and supergroup messages are deleted through the channel API.
	if channel, ok := peer.(*tg.InputPeerChannel); ok {
		_, err := m.api.ChannelsDeleteMessages(ctx, &tg.ChannelsDeleteMessagesRequest{
			Channel: &tg.InputChannel{ChannelID: channel.ChannelID, AccessHash: channel.AccessHash},
			ID:      messageIDs,
		})
		if err != nil {
			return fmt.Errorf("failed to delete channel messages: %w", err)
		}
		return nil
	}

	_, err := m.api.MessagesDeleteMessages(ctx, &tg.MessagesDeleteMessagesRequest{
		Revoke: true,
		ID:     messageIDs,
	})
	if err != nil {
		return fmt.Errorf("failed to delete messages: %w", err)
	}
	return nil
}

// AnswerCallback answers a callback query, optionally as an alert
func (m *Messenger) AnswerCallback(ctx context.Context, queryID int64, message string, alert bool) error {
	if m.api == nil {
		return fmt.Errorf("bot client is not initialized")
	}

	_, err := m.api.MessagesSetBotCallbackAnswer(ctx, &tg.MessagesSetBotCallbackAnswerRequest{
		QueryID: queryID,
		Message: message,
		Alert:   alert,
	})
	if err != nil {
		return fmt.Errorf("failed to answer callback query: %w", err)
	}
	return nil
}

// MediaUpload describes a local file sent as a document
type MediaUpload struct {
	Path       string
	MimeType   string
	Attributes []tg.DocumentAttributeClass
}

// SendFile uploads a local file and sends it as a reply to replyTo
func (m *Messenger) SendFile(ctx context.Context, peer tg.InputPeerClass, upload MediaUpload, replyTo int) error {
	if m.api == nil {
		return fmt.Errorf("bot client is not initialized")
	}

	file, err := uploader.NewUploader(m.api).FromPath(ctx, upload.Path)
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", filepath.Base(upload.Path), err)
	}

	attributes := append([]tg.DocumentAttributeClass{
		&tg.DocumentAttributeFilename{FileName: filepath.Base(upload.Path)},
	}, upload.Attributes...)

	request := &tg.MessagesSendMediaRequest{
		Peer: peer,
		Media: &tg.InputMediaUploadedDocument{
			File:       file,
			MimeType:   upload.MimeType,
			Attributes: attributes,
		},
		RandomID: time.Now().UnixNano(),
	}
	if replyTo != 0 {
		request.ReplyTo = &tg.InputReplyToMessage{ReplyToMsgID: replyTo}
	}

	if _, err := m.api.MessagesSendMedia(ctx, request); err != nil {
		return fmt.Errorf("failed to send media: %w", err)
	}
	return nil
}

// extractMessageID returns the ID of the message created by a send call
func extractMessageID(updates tg.UpdatesClass) int {
	switch u := updates.(type) {
	case *tg.UpdateShortSentMessage:
		return u.ID
	case *tg.Updates:
		return messageIDFromUpdates(u.Updates)
	case *tg.UpdatesCombined:
		return messageIDFromUpdates(u.Updates)
	}
	return 0
}

func messageIDFromUpdates(updates []tg.UpdateClass) int {
	for _, update := range updates {
		switch u := update.(type) {
		case *tg.UpdateMessageID:
			return u.ID
		case *tg.UpdateNewMessage:
			if msg, ok := u.Message.(*tg.Message); ok {
				return msg.ID
			}
		case *tg.UpdateNewChannelMessage:
			if msg, ok := u.Message.(*tg.Message); ok {
				return msg.ID
			}
		}
	}
	return 0
}

// ChatIDFromPeer returns the bare chat identifier of a peer
func ChatIDFromPeer(peer tg.PeerClass) int64 {
	switch p := peer.(type) {
	case *tg.PeerUser:
		return p.UserID
	case *tg.PeerChat:
		return p.ChatID
	case *tg.PeerChannel:
		return p.ChannelID
	}
	return 0
}

// InputPeerFromPeer builds an addressable peer, taking access hashes from the
// entities delivered with the update when available
func InputPeerFromPeer(peer tg.PeerClass, entities *tg.Entities) tg.InputPeerClass {
	switch p := peer.(type) {
	case *tg.PeerUser:
		input := &tg.InputPeerUser{UserID: p.UserID}
		if entities != nil {
			if user, ok := entities.Users[p.UserID]; ok {
				input.AccessHash = user.AccessHash
			}
		}
		return input
	case *tg.PeerChat:
		return &tg.InputPeerChat{ChatID: p.ChatID}
	case *tg.PeerChannel:
		input := &tg.InputPeerChannel{ChannelID: p.ChannelID}
		if entities != nil {
			if channel, ok := entities.Channels[p.ChannelID]; ok {
				input.AccessHash = channel.AccessHash
			}
		}
		return input
	}
	return &tg.InputPeerEmpty{}
}
