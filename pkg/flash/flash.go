package flash

import (
	"encoding/base64"
	"encoding/json"

	"github.com/gin-gonic/gin"
)

const cookieName = "lab_notice"

// Notice is a one-shot message surfaced on the next page render.
type Notice struct {
	Message  string `json:"message"`
	Severity string `json:"severity"`
}

// Set queues a notice for the next request. The payload rides in a short
// lived cookie so it survives the redirect.
func Set(c *gin.Context, message, severity string) {
	payload, err := json.Marshal(Notice{Message: message, Severity: severity})
	if err != nil {
		return
	}
	encoded := base64.URLEncoding.EncodeToString(payload)
	c.SetCookie(cookieName, encoded, 60, "/", "", false, true)
}

// Pop returns the pending notice and clears it, so each notice renders
// exactly once.
func Pop(c *gin.Context) (Notice, bool) {
	raw, err := c.Cookie(cookieName)
	if err != nil || raw == "" {
		return Notice{}, false
	}

	c.SetCookie(cookieName, "", -1, "/", "", false, true)

	decoded, err := base64.URLEncoding.DecodeString(raw)
	if err != nil {
		return Notice{}, false
	}

	var n Notice
	if err := json.Unmarshal(decoded, &n); err != nil {
		return Notice{}, false
	}
	return n, true
}
