package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/dmitrijs2005/parkclient/internal/client/models"
)

const metricPrefix = "parkclient_"

// Profile lets an owner change name and address. Empty answers keep the
// current value.
func (a *App) Profile(ctx context.Context) error {
	if !a.requireLogin() || !a.requireRole(models.RoleOwner) {
		return nil
	}

	name, err := getSimpleText(a.reader, "New name (empty to keep)", a.out)
	if err != nil {
		return err
	}
	address, err := getSimpleText(a.reader, "New address (empty to keep)", a.out)
	if err != nil {
		return err
	}

	var upd models.ProfileUpdate
	if name != "" {
		upd.Name = &name
	}
	if address != "" {
		upd.Address = &address
	}
	if upd.Name == nil && upd.Address == nil {
		a.println("Nothing to change.")
		return nil
	}

	user, err := a.session.UpdateProfile(ctx, upd)
	if err != nil {
		a.report(ctx, "Profile update failed", err, "")
		return err
	}

	a.println("Profile updated.")
	a.printProfile(user)
	return nil
}

// Contact walks an owner through the one-time-code flow for a new email
// or phone number.
func (a *App) Contact(ctx context.Context) error {
	if !a.requireLogin() || !a.requireRole(models.RoleOwner) {
		return nil
	}

	value, err := getSimpleText(a.reader, "New email or phone number", a.out)
	if err != nil {
		return err
	}
	var change models.ContactChange
	if strings.Contains(value, "@") {
		change.NewEmail = value
	} else {
		change.NewPhone = value
	}

	msg, err := a.session.RequestContactChange(ctx, change)
	if err != nil {
		a.report(ctx, "Could not send code", err, "")
		return err
	}
	a.println(msg)

	code, err := getSimpleText(a.reader, "Enter the code you received", a.out)
	if err != nil {
		return err
	}

	msg, err = a.session.ConfirmContactChange(ctx, models.ContactVerification{OTP: code, ContactChange: change})
	if err != nil {
		a.report(ctx, "Verification failed", err, "")
		return err
	}
	a.println(msg)
	return nil
}

// Bookings lists bookings, optionally filtered by the first argument.
func (a *App) Bookings(ctx context.Context, args []string) error {
	if !a.requireLogin() {
		return nil
	}

	var status string
	if len(args) > 0 {
		status = args[0]
	}

	bookings, err := a.api.Bookings(ctx, status)
	if err != nil {
		a.report(ctx, "Could not load bookings", err, "")
		return err
	}
	if len(bookings) == 0 {
		a.println("No bookings.")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPLATE\tLOT\tSLOT\tSTATUS\tBOOKED\tEXPIRES\tCOST")
	for _, b := range bookings {
		lot := b.ParkingLotName
		if lot == "" {
			lot = fmt.Sprint(b.ParkingLotID)
		}
		slot := b.SlotNumber
		if slot == "" {
			slot = fmt.Sprint(b.ParkingSlotID)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			b.ID, b.LicensePlate, lot, slot, b.Status,
			formatTime(b.BookedAt), formatTime(b.ExpiresAt), formatMoney(b.ParkingCost))
	}
	return tw.Flush()
}

// Sessions lists the driver's active parking sessions.
func (a *App) Sessions(ctx context.Context) error {
	if !a.requireLogin() || !a.requireRole(models.RoleDriver) {
		return nil
	}

	sessions, err := a.api.ActiveSessions(ctx)
	if err != nil {
		a.report(ctx, "Could not load sessions", err, "")
		return err
	}
	if len(sessions) == 0 {
		a.println("No active sessions.")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPLATE\tLOT\tSLOT\tSTATUS\tSTARTED\tDURATION\tCOST")
	for _, s := range sessions {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%s\t%s\t%s\t%s\n",
			s.ID, s.LicensePlate, s.ParkingLotID, s.ParkingSlotID, s.Status,
			formatTime(s.StartTime), formatMinutes(s.TotalDurationMinutes), formatMoney(s.ParkingCost))
	}
	return tw.Flush()
}

// Get fetches any path under the role prefix and pretty-prints the JSON.
func (a *App) Get(ctx context.Context, args []string) error {
	if len(args) != 1 {
		a.println("Usage: get <path>")
		return nil
	}
	if !a.requireLogin() {
		return nil
	}

	raw, err := a.api.GetRaw(ctx, args[0])
	if err != nil {
		a.report(ctx, "Request failed", err, "")
		return err
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		a.println(string(raw))
		return nil
	}
	a.println(buf.String())
	return nil
}

// Status shows the session and connectivity as the app currently sees them.
func (a *App) Status(_ context.Context) error {
	st := a.session.State()
	a.printf("Role:    %s\n", a.role)
	if a.serverURL != "" {
		a.printf("Server:  %s (%s)\n", a.serverURL, a.currentMode())
	} else {
		a.printf("Server:  %s\n", a.currentMode())
	}
	a.printf("Session: %s\n", st)
	return nil
}

// Stats prints the client's own counters from the metrics registry.
func (a *App) Stats(_ context.Context) error {
	if a.gatherer == nil {
		a.println("Metrics are not enabled.")
		return nil
	}

	families, err := a.gatherer.Gather()
	if err != nil {
		a.printf("Could not read metrics: %s\n", err)
		return err
	}

	for _, mf := range families {
		name := mf.GetName()
		if !strings.HasPrefix(name, metricPrefix) {
			continue
		}
		for _, m := range mf.GetMetric() {
			labels := make([]string, 0, len(m.GetLabel()))
			for _, lp := range m.GetLabel() {
				labels = append(labels, lp.GetName()+"="+lp.GetValue())
			}

			var value float64
			switch {
			case m.GetCounter() != nil:
				value = m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				value = m.GetGauge().GetValue()
			default:
				continue
			}

			series := strings.TrimPrefix(name, metricPrefix)
			if len(labels) > 0 {
				series += "{" + strings.Join(labels, ",") + "}"
			}
			a.printf("%-45s %g\n", series, value)
		}
	}
	return nil
}

func (a *App) requireRole(role models.Role) bool {
	if a.role == role {
		return true
	}
	a.printf("Not available in the %s app.\n", a.role)
	return false
}
