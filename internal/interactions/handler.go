package interactions

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"tweetpilot/internal/shared/metrics"
	"tweetpilot/internal/shared/server/respond"
	"tweetpilot/internal/shared/telemetry"
	"tweetpilot/internal/slack"
)

// Slack request headers carrying the signature material.
const (
	headerTimestamp = "X-Slack-Request-Timestamp"
	headerSignature = "X-Slack-Signature"
)

// Handler terminates the interaction webhook: it verifies request
// authenticity against the raw body, decodes the form-encoded payload, and
// hands it to the dispatcher.
type Handler struct {
	dispatcher *Dispatcher
	verifier   *slack.Verifier
}

func NewHandler(dispatcher *Dispatcher, verifier *slack.Verifier) *Handler {
	return &Handler{dispatcher: dispatcher, verifier: verifier}
}

// RegisterRoutes mounts the webhook on the router.
func (h *Handler) RegisterRoutes(r gin.IRoutes) {
	r.POST("/slack/interactions", h.Handle)
}

// Handle processes one interaction request. Verification runs over the exact
// bytes received, before any parsing.
func (h *Handler) Handle(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "bad_request", "Unable to read request body", nil)
		return
	}

	if !h.verifier.Verify(body, c.GetHeader(headerTimestamp), c.GetHeader(headerSignature)) {
		metrics.IncVerifyRejected()
		telemetry.Warn("interaction.verification_failed", map[string]any{
			"remote_addr": c.ClientIP(),
		})
		respond.Error(c, http.StatusForbidden, "verification_failed", "Request verification failed", nil)
		return
	}

	form, err := url.ParseQuery(string(body))
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "bad_request", "Malformed form body", nil)
		return
	}
	raw := form.Get("payload")
	if raw == "" {
		respond.Error(c, http.StatusBadRequest, "bad_request", "Missing payload field", nil)
		return
	}

	var payload Payload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		respond.Error(c, http.StatusBadRequest, "bad_request", "Malformed payload JSON", nil)
		return
	}

	c.Set("interactionType", payload.Type)
	if payload.Message.TS != "" {
		c.Set("sessionTS", payload.Message.TS)
	}

	ack := h.dispatcher.Dispatch(c.Request.Context(), payload)
	respond.OK(c, ack)
}
