package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"bookline/config"
	alertRepo "bookline/database/repository/alert"
	contactRepo "bookline/database/repository/contact"
	tenantRepo "bookline/database/repository/tenant"
	"bookline/models"
	"bookline/services/booking"
	"bookline/services/breaker"
	"bookline/services/concierge"
	"bookline/services/governor"
	"bookline/services/speech"
	"bookline/services/switchboard"
	"bookline/utils"

	"github.com/gin-gonic/gin"
	"github.com/twilio/twilio-go/twiml"
	"go.uber.org/zap"
)

// WebhookHandler is the composition root of the conversational pipeline:
// resolve tenant, apply the governor, run the tool loop, apply control
// side effects, answer in channel format. The circuit breaker wraps the
// whole flow; the caller always receives a well-formed TwiML response.
type WebhookHandler struct {
	Resolver    switchboard.Resolver
	Governor    governor.Governor
	Engine      booking.Engine
	LLM         concierge.LLMClient
	History     concierge.TurnHistory
	Breaker     breaker.Breaker
	Transcriber speech.Transcriber // nil disables voice notes

	Tenants  tenantRepo.Repository
	Contacts contactRepo.Repository
	Alerts   alertRepo.Repository
}

func NewWebhookHandler(h WebhookHandler) *WebhookHandler {
	return &h
}

// HandleInbound processes one Twilio WhatsApp webhook delivery.
func (h *WebhookHandler) HandleInbound(c *gin.Context) {
	msg := models.InboundMessage{
		FromIdentity: c.PostForm("From"),
		BodyText:     c.PostForm("Body"),
		ProfileName:  c.PostForm("ProfileName"),
		MediaURL:     c.PostForm("MediaUrl0"),
	}
	msg.IsVoice = strings.HasPrefix(c.PostForm("MediaContentType0"), "audio/")

	if msg.FromIdentity == "" {
		utils.JSONError(c, http.StatusBadRequest, "Invalid webhook payload", "missing From")
		return
	}

	timeout := time.Duration(config.AppConfig.TurnTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 40 * time.Second
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
	defer cancel()

	reply := h.safeProcess(ctx, msg)
	respondTwiML(c, reply)
}

// safeProcess funnels every uncaught failure into the circuit breaker so
// the channel always gets a user-safe reply.
func (h *WebhookHandler) safeProcess(ctx context.Context, msg models.InboundMessage) (reply string) {
	info := breaker.Ctx{Contact: msg.FromIdentity, Channel: "whatsapp"}

	defer func() {
		if r := recover(); r != nil {
			h.Breaker.Trigger(ctx, fmt.Errorf("panic in webhook pipeline: %v", r), info)
			reply = utils.FallbackReply
		}
	}()

	out, err := h.process(ctx, msg, &info)
	if err != nil {
		h.Breaker.Trigger(ctx, err, info)
		return utils.FallbackReply
	}
	return out
}

func (h *WebhookHandler) process(ctx context.Context, msg models.InboundMessage, info *breaker.Ctx) (string, error) {
	logger := utils.GetLogger()

	text := msg.BodyText
	if msg.IsVoice && msg.MediaURL != "" {
		if h.Transcriber == nil {
			return "Sorry, I can't listen to voice notes yet. Could you type that instead?", nil
		}
		transcript, err := h.Transcriber.Transcribe(ctx, msg.MediaURL, "")
		if err != nil {
			logger.Info("voice transcription failed", zap.String("contact", msg.FromIdentity), zap.Error(err))
			return "Sorry, I couldn't make out that voice note. Could you type it instead?", nil
		}
		text = transcript
	}

	res, err := h.Resolver.Resolve(ctx, msg.FromIdentity, text)
	if err != nil {
		return "", fmt.Errorf("resolution failed: %w", err)
	}
	switch {
	case res.Err != nil:
		return "That booking link doesn't look right. Please use the link the business shared with you, or ask them for a new one.", nil
	case res.NeedsLink:
		return "Hi! To get started, please use the booking link the business shared with you.", nil
	case res.NeedsChoice:
		return formatChoiceMenu(res.Choices), nil
	}
	info.TenantID = res.TenantID

	tenant, err := h.Tenants.GetByID(ctx, res.TenantID)
	if err != nil {
		return "", fmt.Errorf("tenant load failed: %w", err)
	}

	mapping := res.Mapping
	if mapping.Name == "" && msg.ProfileName != "" {
		if err := h.Contacts.SetName(ctx, mapping.Identity, msg.ProfileName); err == nil {
			mapping.Name = msg.ProfileName
		}
	}

	// Subscription gate: only pro tenants get AI-driven replies.
	if tenant.Tier != models.TierPro {
		h.noteAttention(ctx, tenant.ID, mapping.Identity, models.ReasonTierGate,
			"inbound message received while tenant is not on the pro plan")
		return fmt.Sprintf("Thanks for your message! Someone from %s will get back to you shortly.", tenant.Name), nil
	}

	// Paused conversations belong to a human; the assistant stays silent.
	if mapping.PausedFor(tenant.ID) {
		logger.Debug("conversation paused, skipping AI reply",
			zap.String("tenant", tenant.ID), zap.String("contact", mapping.Identity))
		return "", nil
	}

	status, err := h.Engine.CheckStatus(ctx, tenant.ID, mapping.Identity, mapping.Name)
	if err != nil {
		return "", fmt.Errorf("booking state check failed: %w", err)
	}

	// The governor sees only completed turns: the turn that spends the last
	// interaction still runs (it may resolve the booking and reset the
	// counter), and escalation lands on the message after it.
	spent := 0
	if link := mapping.Link(tenant.ID); link != nil {
		spent = link.InteractionCount
	}
	verdict, err := h.Governor.Evaluate(ctx, tenant.ID, mapping.Identity, spent, status.State)
	if err != nil {
		return "", fmt.Errorf("governor evaluation failed: %w", err)
	}
	if verdict.ShouldEscalate {
		return verdict.FallbackMessage, nil
	}

	if _, err := h.Contacts.IncrementInteraction(ctx, mapping.Identity, tenant.ID); err != nil {
		return "", fmt.Errorf("interaction increment failed: %w", err)
	}

	orch := &concierge.Orchestrator{
		LLM:      h.LLM,
		Engine:   h.Engine,
		Contacts: h.Contacts,
		Alerts:   h.Alerts,
		History:  h.History,
		Tenant:   tenant,
		Contact:  mapping,
	}
	turn, err := orch.Run(ctx, text)
	if err != nil {
		return "", fmt.Errorf("orchestrator turn failed: %w", err)
	}

	return h.applyControl(ctx, orch, tenant, mapping, turn), nil
}

// applyControl performs the side effects carried by the turn's structured
// control channel: pausing for a human and the deterministic auto-book path.
func (h *WebhookHandler) applyControl(ctx context.Context, orch *concierge.Orchestrator, tenant *models.Tenant, mapping *models.ContactMapping, turn *concierge.Turn) string {
	logger := utils.GetLogger()
	reply := turn.Reply

	if turn.Control.Pause && !turn.Aborted {
		if err := h.Contacts.SetStatus(ctx, mapping.Identity, tenant.ID, models.ContactPaused, models.PauseRequested); err != nil {
			logger.Error("pause write failed", zap.Error(err))
		}
		h.noteAttention(ctx, tenant.ID, mapping.Identity, models.ReasonHumanNeeded,
			"the assistant handed this conversation to a human")
	}

	if turn.Control.Booking != nil {
		confirmation, err := orch.AutoBook(ctx, turn.Control.Booking)
		switch {
		case err == nil:
			if reply != "" {
				reply += "\n\n"
			}
			reply += confirmation
		case booking.CodeOf(err) == booking.CodeSlotOccupied:
			if reply != "" {
				reply += "\n\n"
			}
			reply += "Ah, that slot was taken just now. Could you pick another time?"
		default:
			logger.Error("auto-book failed",
				zap.String("tenant", tenant.ID), zap.String("contact", mapping.Identity), zap.Error(err))
		}
	}

	return reply
}

// noteAttention records a tenant alert; failures are logged, never fatal.
func (h *WebhookHandler) noteAttention(ctx context.Context, tenantID, contact, reason, desc string) {
	alert := &models.Alert{
		TenantID:    tenantID,
		Contact:     contact,
		Reason:      reason,
		Description: desc,
	}
	if err := h.Alerts.CreateAlert(ctx, alert); err != nil {
		utils.GetLogger().Error("attention alert write failed", zap.Error(err))
	}
}

func formatChoiceMenu(choices []switchboard.Choice) string {
	var sb strings.Builder
	sb.WriteString("Which business would you like to talk to? Reply with a number:\n")
	for _, ch := range choices {
		fmt.Fprintf(&sb, "%d. %s\n", ch.Number, ch.Name)
	}
	return strings.TrimRight(sb.String(), "\n")
}

// respondTwiML answers the webhook with channel-formatted XML. An empty
// reply produces an empty TwiML document (no outbound message).
func respondTwiML(c *gin.Context, reply string) {
	var verbs []twiml.Element
	if reply != "" {
		verbs = append(verbs, &twiml.MessagingMessage{Body: reply})
	}
	doc, err := twiml.Messages(verbs)
	if err != nil {
		c.String(http.StatusInternalServerError, "")
		return
	}
	c.Header("Content-Type", "text/xml")
	c.String(http.StatusOK, doc)
}
