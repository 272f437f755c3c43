package phishing

import (
	"bytes"
	"html/template"
	"net/url"
	"strings"
)

const noticeSubject = "Security Alert - Action Required"

var noticeTmpl = template.Must(template.New("notice").Parse(`<div style="font-family: Arial, sans-serif; padding: 20px; border: 1px solid #ddd;">
  <h2 style="color: #0072c6;">Outlook Security Notice</h2>
  <p>Dear User,</p>
  <p>All Hotmail customers have been upgraded to Outlook.com. Your Hotmail account services have expired.</p>
  <p>To continue using your account, please verify your account:</p>
  <p><a href="{{.TrackingURL}}" style="color: #0072c6; font-weight: bold;">Verify Now</a></p>
  <p>Thanks,</p>
  <p>The Microsoft Account Team</p>
</div>
`))

// trackingURL builds <base>/api/track-click?email=<target>.
func trackingURL(base, target string) string {
	base = strings.TrimRight(base, "/")
	return base + "/api/track-click?" + url.Values{"email": {target}}.Encode()
}

func renderNotice(tracking string) (string, error) {
	var buf bytes.Buffer
	if err := noticeTmpl.Execute(&buf, struct{ TrackingURL string }{tracking}); err != nil {
		return "", err
	}
	return buf.String(), nil
}
