package bot

import (
	"errors"
	"fmt"
	"strings"

	"go-media-bot/downloader"
)

const (
	// CallbackCancelDownload aborts the running download tied to the message
	CallbackCancelDownload = "cancel_download"
	// CallbackCancelMenu discards the format menu
	CallbackCancelMenu = "cancel"

	// MaxCallbackDataLength is the platform limit for button payloads
	MaxCallbackDataLength = 64

	tokenMarker = "@"
)

// ErrInvalidCallback is returned for payloads the bot never produced
var ErrInvalidCallback = errors.New("invalid callback data")

// CallbackAction is the kind of button that was pressed
type CallbackAction int

const (
	ActionDownload CallbackAction = iota
	ActionCancelDownload
	ActionCancelMenu
)

// CallbackPayload is a decoded button payload
type CallbackPayload struct {
	Action  CallbackAction
	Service downloader.Service
	Kind    downloader.MediaKind
	// URL is set when the link fit into the payload
	URL string
	// Token references a link stored in the request registry
	Token string
}

// EncodeDownloadPayload builds "{service}_{kind}:{url}"
func EncodeDownloadPayload(service downloader.Service, kind downloader.MediaKind, url string) string {
	return fmt.Sprintf("%s_%s:%s", service, kind, url)
}

// EncodeTokenPayload builds "{service}_{kind}:@{token}" for links too long to
// fit into a button
func EncodeTokenPayload(service downloader.Service, kind downloader.MediaKind, token string) string {
	return fmt.Sprintf("%s_%s:%s%s", service, kind, tokenMarker, token)
}

// FitsCallbackData reports whether the payload is within the platform limit
func FitsCallbackData(payload string) bool {
	return len(payload) <= MaxCallbackDataLength
}

// ParseCallbackData decodes a button payload
func ParseCallbackData(data string) (CallbackPayload, error) {
	switch data {
	case CallbackCancelDownload:
		return CallbackPayload{Action: ActionCancelDownload}, nil
	case CallbackCancelMenu:
		return CallbackPayload{Action: ActionCancelMenu}, nil
	}

	action, ref, ok := strings.Cut(data, ":")
	if !ok || ref == "" {
		return CallbackPayload{}, fmt.Errorf("%w: %q", ErrInvalidCallback, data)
	}

	serviceName, kindName, ok := strings.Cut(action, "_")
	if !ok {
		return CallbackPayload{}, fmt.Errorf("%w: %q", ErrInvalidCallback, data)
	}

	service, ok := downloader.ParseService(serviceName)
	if !ok {
		return CallbackPayload{}, fmt.Errorf("%w: unknown service %q", ErrInvalidCallback, serviceName)
	}
	kind, ok := downloader.ParseMediaKind(kindName)
	if !ok {
		return CallbackPayload{}, fmt.Errorf("%w: unknown media kind %q", ErrInvalidCallback, kindName)
	}

	payload := CallbackPayload{
		Action:  ActionDownload,
		Service: service,
		Kind:    kind,
	}
	if token, isToken := strings.CutPrefix(ref, tokenMarker); isToken {
		payload.Token = token
	} else {
		payload.URL = ref
	}
	return payload, nil
}
