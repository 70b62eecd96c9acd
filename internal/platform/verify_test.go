package platform

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/creatorlane/discount-agent/internal/config"
	"github.com/creatorlane/discount-agent/internal/domain"
)

func sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyMetaSignature(t *testing.T) {
	verifier := NewVerifier(config.WebhookConfig{InstagramSecret: "ig-secret"})
	body := []byte(`{"text":"hi"}`)

	assert.True(t, verifier.Verify(domain.PlatformInstagram, "sha256="+sign("ig-secret", body), body))
	assert.False(t, verifier.Verify(domain.PlatformInstagram, "sha256="+sign("wrong", body), body))
	assert.False(t, verifier.Verify(domain.PlatformInstagram, sign("ig-secret", body), body), "missing sha256= prefix")
	assert.False(t, verifier.Verify(domain.PlatformInstagram, "", body))
}

func TestVerifyTikTokSignature(t *testing.T) {
	verifier := NewVerifier(config.WebhookConfig{TikTokSecret: "tt-secret"})
	body := []byte(`{"text":"hi"}`)

	assert.True(t, verifier.Verify(domain.PlatformTikTok, sign("tt-secret", body), body), "tiktok sends a bare digest")
	assert.False(t, verifier.Verify(domain.PlatformTikTok, "sha256="+sign("tt-secret", body), body))
	assert.False(t, verifier.Verify(domain.PlatformTikTok, "", body))
}

func TestVerifySkipsWhenSecretUnset(t *testing.T) {
	verifier := NewVerifier(config.WebhookConfig{})
	assert.True(t, verifier.Verify(domain.PlatformWhatsApp, "", []byte("anything")))
	assert.True(t, verifier.Verify(domain.PlatformInstagram, "garbage", []byte("anything")))
}

func TestSignatureHeader(t *testing.T) {
	assert.Equal(t, "X-Hub-Signature-256", SignatureHeader(domain.PlatformInstagram))
	assert.Equal(t, "X-Hub-Signature-256", SignatureHeader(domain.PlatformWhatsApp))
	assert.Equal(t, "X-TikTok-Signature", SignatureHeader(domain.PlatformTikTok))
}
