package platform

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/creatorlane/discount-agent/internal/domain"
)

// NormalizePayload extracts the internal message shape from a raw provider
// webhook body. Each provider nests sender and text differently; payloads
// that do not match the provider shape fall back to a flat extraction so
// simulated traffic keeps working.
func NormalizePayload(p domain.Platform, body []byte) (*domain.IncomingMessage, error) {
	var err error
	var msg *domain.IncomingMessage
	switch p {
	case domain.PlatformInstagram:
		msg, err = normalizeInstagram(body)
	case domain.PlatformTikTok:
		msg, err = normalizeTikTok(body)
	case domain.PlatformWhatsApp:
		msg, err = normalizeWhatsApp(body)
	default:
		return nil, fmt.Errorf("unsupported platform %q", p)
	}
	if err != nil {
		return nil, err
	}
	msg.Platform = p
	msg.ReceivedAt = time.Now().UTC()
	return msg, nil
}

type flatPayload struct {
	UserID    string `json:"user_id"`
	Text      string `json:"text"`
	MessageID string `json:"message_id"`
}

func normalizeFlat(body []byte) (*domain.IncomingMessage, error) {
	var flat flatPayload
	if err := json.Unmarshal(body, &flat); err != nil {
		return nil, fmt.Errorf("decode webhook payload: %w", err)
	}
	if flat.UserID == "" {
		return nil, fmt.Errorf("webhook payload missing sender")
	}
	return &domain.IncomingMessage{
		UserID:    flat.UserID,
		RawText:   flat.Text,
		MessageID: flat.MessageID,
	}, nil
}

func normalizeInstagram(body []byte) (*domain.IncomingMessage, error) {
	var payload struct {
		Entry []struct {
			Messaging []struct {
				Sender struct {
					ID string `json:"id"`
				} `json:"sender"`
				Message struct {
					MID  string `json:"mid"`
					Text string `json:"text"`
				} `json:"message"`
			} `json:"messaging"`
		} `json:"entry"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode webhook payload: %w", err)
	}
	if len(payload.Entry) == 0 || len(payload.Entry[0].Messaging) == 0 {
		return normalizeFlat(body)
	}

	msg := payload.Entry[0].Messaging[0]
	if msg.Sender.ID == "" {
		return normalizeFlat(body)
	}
	return &domain.IncomingMessage{
		UserID:    msg.Sender.ID,
		RawText:   msg.Message.Text,
		MessageID: msg.Message.MID,
	}, nil
}

func normalizeTikTok(body []byte) (*domain.IncomingMessage, error) {
	var payload struct {
		Messages []struct {
			ID     string `json:"id"`
			Text   string `json:"text"`
			Sender struct {
				ID string `json:"id"`
			} `json:"sender"`
		} `json:"messages"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode webhook payload: %w", err)
	}
	if len(payload.Messages) == 0 || payload.Messages[0].Sender.ID == "" {
		return normalizeFlat(body)
	}

	msg := payload.Messages[0]
	return &domain.IncomingMessage{
		UserID:    msg.Sender.ID,
		RawText:   msg.Text,
		MessageID: msg.ID,
	}, nil
}

func normalizeWhatsApp(body []byte) (*domain.IncomingMessage, error) {
	var payload struct {
		Contacts []struct {
			WAID string `json:"wa_id"`
		} `json:"contacts"`
		Messages []struct {
			ID   string `json:"id"`
			Text struct {
				Body string `json:"body"`
			} `json:"text"`
		} `json:"messages"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode webhook payload: %w", err)
	}
	if len(payload.Contacts) == 0 || len(payload.Messages) == 0 || payload.Contacts[0].WAID == "" {
		return normalizeFlat(body)
	}

	return &domain.IncomingMessage{
		UserID:    payload.Contacts[0].WAID,
		RawText:   payload.Messages[0].Text.Body,
		MessageID: payload.Messages[0].ID,
	}, nil
}
