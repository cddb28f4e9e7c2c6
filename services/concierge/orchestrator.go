// Package concierge drives the tool-calling turn loop between the language
// model and the deterministic booking tools.
package concierge

import (
	"context"
	"fmt"
	"strings"
	"time"

	alertRepo "bookline/database/repository/alert"
	contactRepo "bookline/database/repository/contact"
	"bookline/models"
	"bookline/services/booking"
	"bookline/utils"

	"go.uber.org/zap"
)

// Orchestrator is a per-request instance bound to one (tenant, contact)
// pair. It holds no process-wide mutable state; construct one per inbound
// message.
type Orchestrator struct {
	LLM      LLMClient
	Engine   booking.Engine
	Contacts contactRepo.Repository
	Alerts   alertRepo.Repository
	History  TurnHistory

	Tenant  *models.Tenant
	Contact *models.ContactMapping

	Now func() time.Time
}

func (o *Orchestrator) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

// Run executes one conversational turn: send the message, execute requested
// tools, feed results back, repeat. The loop is bounded by the tool error
// budget and a hard round cap; hitting the budget pauses the conversation
// and returns the fixed apology instead of trusting further model output.
func (o *Orchestrator) Run(ctx context.Context, userText string) (*Turn, error) {
	logger := utils.GetLogger()

	history, err := o.History.Load(ctx, o.Tenant.ID, o.Contact.Identity)
	if err != nil {
		logger.Warn("history load failed, starting fresh",
			zap.String("contact", o.Contact.Identity), zap.Error(err))
		history = nil
	}

	session := o.LLM.StartChat(systemPrompt(o.Tenant, o.Contact, o.now()), history)

	resp, err := session.SendText(ctx, userText)
	if err != nil {
		return nil, fmt.Errorf("model turn failed: %w", err)
	}

	toolErrors := 0
	for rounds := 0; len(resp.Calls) > 0; rounds++ {
		if rounds >= utils.MaxToolRounds {
			logger.Warn("tool round cap reached",
				zap.String("tenant", o.Tenant.ID), zap.String("contact", o.Contact.Identity))
			break
		}

		results := make([]ToolResult, 0, len(resp.Calls))
		for _, call := range resp.Calls {
			result := o.dispatch(ctx, call)
			if strings.HasPrefix(result, "ERROR") {
				toolErrors++
				logger.Info("tool invocation failed",
					zap.String("tool", call.Name), zap.String("result", result))
			}
			results = append(results, ToolResult{Name: call.Name, Result: result})
		}

		if toolErrors >= utils.ToolErrorBudget {
			return o.abortTurn(ctx, userText)
		}

		resp, err = session.SendToolResults(ctx, results)
		if err != nil {
			return nil, fmt.Errorf("model tool round failed: %w", err)
		}
	}

	ctrl, reply := ParseControl(resp.Text)
	if reply == "" && !ctrl.Pause && ctrl.Booking == nil {
		reply = "Sorry, could you say that again?"
	}

	o.persistTurn(ctx, userText, reply)
	return &Turn{Reply: reply, Control: ctrl}, nil
}

// abortTurn pauses the conversation after the error budget is spent. The
// model's remaining output is discarded: repeated tool failures mean its
// view of the world is wrong.
func (o *Orchestrator) abortTurn(ctx context.Context, userText string) (*Turn, error) {
	logger := utils.GetLogger()
	logger.Warn("tool error budget exhausted, pausing conversation",
		zap.String("tenant", o.Tenant.ID), zap.String("contact", o.Contact.Identity))

	if err := o.Contacts.SetStatus(ctx, o.Contact.Identity, o.Tenant.ID, models.ContactPaused, models.PauseToolErrors); err != nil {
		logger.Error("pause write failed", zap.Error(err))
	}
	if o.Alerts != nil {
		alert := &models.Alert{
			TenantID:    o.Tenant.ID,
			Contact:     o.Contact.Identity,
			Reason:      models.ReasonToolErrors,
			Description: "assistant hit repeated tool failures; conversation paused for review",
		}
		if err := o.Alerts.CreateAlert(ctx, alert); err != nil {
			logger.Error("alert write failed", zap.Error(err))
		}
	}

	reply := utils.FallbackReply
	o.persistTurn(ctx, userText, reply)
	return &Turn{Reply: reply, Aborted: true, Control: Control{Pause: true}}, nil
}

func (o *Orchestrator) persistTurn(ctx context.Context, userText, reply string) {
	now := o.now()
	err := o.History.Append(ctx, o.Tenant.ID, o.Contact.Identity,
		models.ChatTurn{Role: "user", Text: userText, At: now},
		models.ChatTurn{Role: "model", Text: reply, At: now},
	)
	if err != nil {
		utils.GetLogger().Warn("history append failed",
			zap.String("contact", o.Contact.Identity), zap.Error(err))
	}
}
