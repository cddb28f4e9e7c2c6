package concierge

import (
	"context"
	"fmt"
	"strings"

	"bookline/models"
	"bookline/services/booking"
)

// dispatch executes one tool invocation against the per-request bindings and
// returns the machine-readable result string. Tools never raise: every
// failure becomes an ERROR:<code> result the model can replan around.
func (o *Orchestrator) dispatch(ctx context.Context, call ToolCall) string {
	switch call.Name {
	case "save_identity":
		return o.toolSaveIdentity(ctx, call.Args)
	case "update_crm":
		return o.toolUpdateCRM(ctx, call.Args)
	case "read_agenda":
		return o.toolReadAgenda(ctx, call.Args)
	case "create_appointment":
		return o.toolCreateAppointment(ctx, call.Args)
	case "update_appointment":
		return o.toolUpdateAppointment(ctx, call.Args)
	case "delete_appointment":
		return o.toolDeleteAppointment(ctx)
	default:
		return fmt.Sprintf("ERROR:UNKNOWN_TOOL: %s", call.Name)
	}
}

func (o *Orchestrator) toolSaveIdentity(ctx context.Context, args map[string]interface{}) string {
	name := strings.TrimSpace(argString(args, "name"))
	if name == "" {
		return "ERROR:INVALID_ARGS: name is required"
	}
	if err := o.Contacts.SetName(ctx, o.Contact.Identity, name); err != nil {
		return "ERROR:SYNC_FAIL: could not save the name, retry"
	}
	o.Contact.Name = name
	return fmt.Sprintf("SUCCESS: name recorded as %s", name)
}

func (o *Orchestrator) toolUpdateCRM(ctx context.Context, args map[string]interface{}) string {
	name := strings.TrimSpace(argString(args, "name"))
	notes := strings.TrimSpace(argString(args, "notes"))
	if name == "" && notes == "" {
		return "ERROR:INVALID_ARGS: nothing to update"
	}
	if name != "" {
		if err := o.Contacts.SetName(ctx, o.Contact.Identity, name); err != nil {
			return "ERROR:SYNC_FAIL: could not update the record, retry"
		}
		o.Contact.Name = name
	}
	if notes != "" {
		if err := o.Contacts.SetNotes(ctx, o.Contact.Identity, notes); err != nil {
			return "ERROR:SYNC_FAIL: could not update the record, retry"
		}
		o.Contact.Notes = notes
	}
	return "SUCCESS: CRM record updated"
}

func (o *Orchestrator) toolReadAgenda(ctx context.Context, args map[string]interface{}) string {
	day, err := parseWhen(o.Tenant.Location(), argString(args, "date"), "00:00", o.now())
	if err != nil {
		return fmt.Sprintf("ERROR:INVALID_ARGS: %v", err)
	}
	appts, err := o.Engine.Agenda(ctx, o.Tenant.ID, day)
	if err != nil {
		return toolError(err)
	}
	if len(appts) == 0 {
		return "SUCCESS: the agenda is empty that day"
	}
	loc := o.Tenant.Location()
	var sb strings.Builder
	sb.WriteString("SUCCESS: booked slots:")
	for _, a := range appts {
		fmt.Fprintf(&sb, "\n%s-%s %s",
			a.StartTime.In(loc).Format("15:04"),
			a.EndTime.In(loc).Format("15:04"),
			a.ServiceName)
	}
	return sb.String()
}

func (o *Orchestrator) toolCreateAppointment(ctx context.Context, args map[string]interface{}) string {
	start, err := parseWhen(o.Tenant.Location(), argString(args, "date"), argString(args, "time"), o.now())
	if err != nil {
		return fmt.Sprintf("ERROR:INVALID_ARGS: %v", err)
	}
	clientName := strings.TrimSpace(argString(args, "client_name"))
	if clientName == "" {
		clientName = o.Contact.Name
	}
	req := booking.CreateRequest{
		ClientName:  clientName,
		ClientPhone: o.Contact.Identity,
		ServiceName: argString(args, "service"),
		StartTime:   start,
		Source:      models.SourceAI,
	}
	appt, created, err := o.Engine.Create(ctx, o.Tenant.ID, req)
	if err != nil {
		return toolError(err)
	}
	if !created {
		return fmt.Sprintf("SUCCESS: this appointment already exists (%s at %s)",
			appt.ServiceName, appt.StartTime.In(o.Tenant.Location()).Format("Mon 2 Jan 15:04"))
	}
	return fmt.Sprintf("SUCCESS: booked %s at %s",
		appt.ServiceName, appt.StartTime.In(o.Tenant.Location()).Format("Mon 2 Jan 15:04"))
}

func (o *Orchestrator) toolUpdateAppointment(ctx context.Context, args map[string]interface{}) string {
	start, err := parseWhen(o.Tenant.Location(), argString(args, "date"), argString(args, "time"), o.now())
	if err != nil {
		return fmt.Sprintf("ERROR:INVALID_ARGS: %v", err)
	}
	appt, err := o.Engine.Update(ctx, o.Tenant.ID, booking.UpdateRequest{
		ClientPhone: o.Contact.Identity,
		NewStart:    start,
	})
	if err != nil {
		return toolError(err)
	}
	return fmt.Sprintf("SUCCESS: moved to %s", appt.StartTime.In(o.Tenant.Location()).Format("Mon 2 Jan 15:04"))
}

func (o *Orchestrator) toolDeleteAppointment(ctx context.Context) string {
	n, err := o.Engine.Cancel(ctx, o.Tenant.ID, o.Contact.Identity)
	if err != nil {
		return toolError(err)
	}
	if n == 0 {
		return "SUCCESS: there was no active appointment to cancel"
	}
	return fmt.Sprintf("SUCCESS: cancelled %d appointment(s)", n)
}

// toolError renders a booking error as ERROR:<code>, with a retry hint for
// transient transaction failures.
func toolError(err error) string {
	code := booking.CodeOf(err)
	if code == "" {
		code = booking.CodeSyncFail
	}
	if booking.Retryable(err) {
		return fmt.Sprintf("ERROR:%s: temporary store failure, retry the operation once", code)
	}
	return fmt.Sprintf("ERROR:%s: %v", code, err)
}

func argString(args map[string]interface{}, key string) string {
	if args == nil {
		return ""
	}
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}
