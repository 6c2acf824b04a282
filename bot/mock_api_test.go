package bot

import (
	"context"
	"fmt"
	"sync"

	"github.com/gotd/td/tg"
)

// userPeer is the private chat most tests talk to
var userPeer = tg.InputPeerUser{UserID: 12345, AccessHash: 1}

// MockTelegramAPI is a mock implementation of TelegramAPI for testing.
// Sent messages get increasing IDs starting at 100.
type MockTelegramAPI struct {
	mu sync.Mutex

	sent      []*tg.MessagesSendMessageRequest
	edits     []*tg.MessagesEditMessageRequest
	deletes   [][]int
	media     []*tg.MessagesSendMediaRequest
	answers   []*tg.MessagesSetBotCallbackAnswerRequest
	fileParts int

	nextID       int
	sendError    error
	editError    error
	sendMediaErr error

	// editHook runs on every edit when set
	editHook func(request *tg.MessagesEditMessageRequest)
}

func NewMockTelegramAPI() *MockTelegramAPI {
	return &MockTelegramAPI{nextID: 100}
}

func (m *MockTelegramAPI) MessagesSendMessage(ctx context.Context, request *tg.MessagesSendMessageRequest) (tg.UpdatesClass, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sendError != nil {
		return nil, m.sendError
	}
	m.sent = append(m.sent, request)
	id := m.nextID
	m.nextID++
	return &tg.UpdateShortSentMessage{ID: id}, nil
}

func (m *MockTelegramAPI) MessagesEditMessage(ctx context.Context, request *tg.MessagesEditMessageRequest) (tg.UpdatesClass, error) {
	m.mu.Lock()
	hook := m.editHook
	if m.editError != nil {
		m.mu.Unlock()
		return nil, m.editError
	}
	m.edits = append(m.edits, request)
	m.mu.Unlock()

	if hook != nil {
		hook(request)
	}
	return &tg.Updates{}, nil
}

func (m *MockTelegramAPI) MessagesDeleteMessages(ctx context.Context, request *tg.MessagesDeleteMessagesRequest) (*tg.MessagesAffectedMessages, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletes = append(m.deletes, request.ID)
	return &tg.MessagesAffectedMessages{}, nil
}

func (m *MockTelegramAPI) ChannelsDeleteMessages(ctx context.Context, request *tg.ChannelsDeleteMessagesRequest) (*tg.MessagesAffectedMessages, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletes = append(m.deletes, request.ID)
	return &tg.MessagesAffectedMessages{}, nil
}

func (m *MockTelegramAPI) MessagesSendMedia(ctx context.Context, request *tg.MessagesSendMediaRequest) (tg.UpdatesClass, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sendMediaErr != nil {
		return nil, m.sendMediaErr
	}
	m.media = append(m.media, request)
	return &tg.Updates{}, nil
}

func (m *MockTelegramAPI) MessagesSetBotCallbackAnswer(ctx context.Context, request *tg.MessagesSetBotCallbackAnswerRequest) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.answers = append(m.answers, request)
	return true, nil
}

func (m *MockTelegramAPI) UploadSaveFilePart(ctx context.Context, request *tg.UploadSaveFilePartRequest) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fileParts++
	return true, nil
}

func (m *MockTelegramAPI) UploadSaveBigFilePart(ctx context.Context, request *tg.UploadSaveBigFilePartRequest) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fileParts++
	return true, nil
}

func (m *MockTelegramAPI) SentMessages() []*tg.MessagesSendMessageRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*tg.MessagesSendMessageRequest(nil), m.sent...)
}

func (m *MockTelegramAPI) Edits() []*tg.MessagesEditMessageRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*tg.MessagesEditMessageRequest(nil), m.edits...)
}

// LastEdit returns the text of the most recent edit
func (m *MockTelegramAPI) LastEdit() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.edits) == 0 {
		return ""
	}
	return m.edits[len(m.edits)-1].Message
}

func (m *MockTelegramAPI) Deletes() [][]int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]int(nil), m.deletes...)
}

func (m *MockTelegramAPI) Media() []*tg.MessagesSendMediaRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*tg.MessagesSendMediaRequest(nil), m.media...)
}

func (m *MockTelegramAPI) Answers() []*tg.MessagesSetBotCallbackAnswerRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*tg.MessagesSetBotCallbackAnswerRequest(nil), m.answers...)
}

func (m *MockTelegramAPI) SetSendError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sendError = err
}

func (m *MockTelegramAPI) SetSendMediaError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sendMediaErr = err
}

func (m *MockTelegramAPI) SetEditError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.editError = err
}

func (m *MockTelegramAPI) SetEditHook(hook func(request *tg.MessagesEditMessageRequest)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.editHook = hook
}

// buttonData returns the callback payloads of an inline keyboard, row by row
func buttonData(markup tg.ReplyMarkupClass) ([]string, error) {
	inline, ok := markup.(*tg.ReplyInlineMarkup)
	if !ok {
		return nil, fmt.Errorf("unexpected markup %T", markup)
	}
	var data []string
	for _, row := range inline.Rows {
		for _, button := range row.Buttons {
			callback, ok := button.(*tg.KeyboardButtonCallback)
			if !ok {
				return nil, fmt.Errorf("unexpected button %T", button)
			}
			data = append(data, string(callback.Data))
		}
	}
	return data, nil
}
