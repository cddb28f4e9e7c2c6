package concierge

import (
	"context"
	"fmt"

	"bookline/models"
	"bookline/services/booking"
	"bookline/utils"

	"go.uber.org/zap"
)

// AutoBook is the deterministic finalize path for a [BOOK] directive. It is
// independent of the tool loop but funnels into the same engine transaction,
// so both paths share the (contact, startTime) uniqueness guarantee.
func (o *Orchestrator) AutoBook(ctx context.Context, directive *BookingDirective) (string, error) {
	svc, ok := o.Tenant.FindService(directive.Service)
	if !ok {
		return "", booking.NewError(booking.CodeUnknownService, "service %q is not in the catalog", directive.Service)
	}

	start, err := parseWhen(o.Tenant.Location(), directive.Date, directive.Time, o.now())
	if err != nil {
		return "", booking.NewError(booking.CodeSyncFail, "unparseable booking directive: %v", err)
	}

	appt, created, err := o.Engine.Create(ctx, o.Tenant.ID, booking.CreateRequest{
		ClientName:  o.Contact.Name,
		ClientPhone: o.Contact.Identity,
		ServiceName: svc.Name,
		StartTime:   start,
		Source:      models.SourceAI,
	})
	if err != nil {
		return "", err
	}

	utils.GetLogger().Info("auto-book directive applied",
		zap.String("tenant", o.Tenant.ID),
		zap.String("contact", o.Contact.Identity),
		zap.String("appointment", appt.ID),
		zap.Bool("created", created))

	when := appt.StartTime.In(o.Tenant.Location()).Format("Monday 2 January at 15:04")
	return fmt.Sprintf("Your %s is booked for %s. See you then!", appt.ServiceName, when), nil
}
