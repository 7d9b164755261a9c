// internal/service/template.go
package service

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"html"
	"net/url"
	"strings"

	"github.com/yuin/goldmark"

	"github.com/streetlayer/newsletter-service/internal/model"
)

// unsubscribePlaceholder is substituted per recipient; everything else in
// the rendered document is shared across the whole send.
const unsubscribePlaceholder = "{unsubscribe_url}"

// Renderer turns campaign markdown into the branded HTML email shell.
type Renderer struct {
	BaseURL    string
	SigningKey string
}

// Render converts the campaign content once for the whole send. The
// unsubscribe link stays a placeholder until Personalize.
func (r *Renderer) Render(c *model.Campaign) (string, error) {
	var body bytes.Buffer
	if err := goldmark.Convert([]byte(c.Content), &body); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}

	cta := ""
	if c.CTAText != "" && c.CTAURL != "" {
		cta = fmt.Sprintf(
			`<p style="text-align:center;margin:32px 0;"><a href="%s" style="background:#111;color:#fff;padding:14px 28px;text-decoration:none;letter-spacing:1px;">%s</a></p>`,
			html.EscapeString(c.CTAURL), html.EscapeString(c.CTAText),
		)
	}

	doc := `<!DOCTYPE html>
<html>
<body style="margin:0;padding:0;background:#f4f4f4;font-family:Helvetica,Arial,sans-serif;">
  <table role="presentation" width="100%" cellpadding="0" cellspacing="0">
    <tr><td align="center" style="padding:24px 0;">
      <table role="presentation" width="600" cellpadding="0" cellspacing="0" style="background:#ffffff;">
        <tr><td style="background:#111;color:#fff;padding:20px 32px;font-size:20px;letter-spacing:4px;">STREETLAYER</td></tr>
        <tr><td style="padding:32px;color:#222;font-size:15px;line-height:1.6;">
` + body.String() + cta + `
        </td></tr>
        <tr><td style="padding:20px 32px;border-top:1px solid #eee;color:#999;font-size:12px;">
          You are receiving this because you subscribed to the Streetlayer newsletter.
          <a href="` + unsubscribePlaceholder + `" style="color:#999;">Unsubscribe</a>
        </td></tr>
      </table>
    </td></tr>
  </table>
</body>
</html>`

	return doc, nil
}

// Personalize substitutes the per-recipient unsubscribe link into the
// shared document.
func (r *Renderer) Personalize(shared, email string) string {
	return strings.ReplaceAll(shared, unsubscribePlaceholder, r.UnsubscribeURL(email))
}

func (r *Renderer) UnsubscribeURL(email string) string {
	return fmt.Sprintf("%s/unsubscribe?email=%s&token=%s",
		strings.TrimRight(r.BaseURL, "/"),
		url.QueryEscape(strings.ToLower(email)),
		r.UnsubscribeToken(email),
	)
}

func (r *Renderer) UnsubscribeToken(email string) string {
	mac := hmac.New(sha256.New, []byte(r.SigningKey))
	mac.Write([]byte(strings.ToLower(strings.TrimSpace(email))))
	return hex.EncodeToString(mac.Sum(nil))
}

func (r *Renderer) VerifyUnsubscribeToken(email, token string) bool {
	return hmac.Equal([]byte(token), []byte(r.UnsubscribeToken(email)))
}
