package domain

import "time"

// Platform enumerates supported messaging platforms.
type Platform string

const (
	PlatformInstagram Platform = "instagram"
	PlatformTikTok    Platform = "tiktok"
	PlatformWhatsApp  Platform = "whatsapp"
)

// Valid reports whether the platform is one of the supported values.
func (p Platform) Valid() bool {
	switch p {
	case PlatformInstagram, PlatformTikTok, PlatformWhatsApp:
		return true
	}
	return false
}

// IncomingMessage is a direct message as received from a platform,
// before normalization.
type IncomingMessage struct {
	Platform   Platform
	UserID     string
	RawText    string
	MessageID  string
	ReceivedAt time.Time
}

// NormalizedMessage is the canonical internal message shape. NormalizedText
// is derived once from RawText and both are immutable afterwards.
type NormalizedMessage struct {
	Platform       Platform
	UserID         string
	NormalizedText string
	OriginalText   string
	ReceivedAt     time.Time
}
