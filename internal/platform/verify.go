package platform

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/creatorlane/discount-agent/internal/config"
	"github.com/creatorlane/discount-agent/internal/domain"
)

const (
	metaSignatureHeader   = "X-Hub-Signature-256"
	tiktokSignatureHeader = "X-TikTok-Signature"
	sha256Prefix          = "sha256="
)

// Verifier checks webhook signatures per platform. A platform with no
// configured secret is accepted without verification.
type Verifier struct {
	cfg config.WebhookConfig
}

// NewVerifier constructs the verifier.
func NewVerifier(cfg config.WebhookConfig) *Verifier {
	return &Verifier{cfg: cfg}
}

// SignatureHeader names the header carrying the signature for a platform.
func SignatureHeader(p domain.Platform) string {
	if p == domain.PlatformTikTok {
		return tiktokSignatureHeader
	}
	return metaSignatureHeader
}

// Verify checks the request body against the platform's HMAC-SHA256
// signature. Meta platforms (Instagram, WhatsApp) prefix the hex digest
// with "sha256="; TikTok sends the bare digest.
func (v *Verifier) Verify(p domain.Platform, signature string, body []byte) bool {
	secret := v.secretFor(p)
	if secret == "" {
		return true
	}

	if p != domain.PlatformTikTok {
		if !strings.HasPrefix(signature, sha256Prefix) {
			return false
		}
		signature = strings.TrimPrefix(signature, sha256Prefix)
	}
	if signature == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(signature), []byte(expected))
}

func (v *Verifier) secretFor(p domain.Platform) string {
	switch p {
	case domain.PlatformInstagram:
		return v.cfg.InstagramSecret
	case domain.PlatformTikTok:
		return v.cfg.TikTokSecret
	case domain.PlatformWhatsApp:
		return v.cfg.WhatsAppSecret
	}
	return ""
}
