package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"busbooking/internal/domain"
	"busbooking/internal/domain/models"
	"busbooking/internal/ledger"
	"busbooking/internal/repositories"
	"busbooking/internal/utils"

	"github.com/phpdave11/gofpdf"
)

// TicketService renders the e-ticket PDF for a held seat.
type TicketService struct {
	Trips     repositories.TripStore
	Ledger    *ledger.Ledger
	RequestID string
}

type ticketData struct {
	Trip     models.Trip
	Seat     string
	Holder   models.Reservation
	IssuedAt time.Time
}

// ETicket returns the PDF and a download filename. Only the holder or an admin may
// fetch it.
func (s TicketService) ETicket(ctx context.Context, actor domain.Actor, tripID, label string) ([]byte, string, error) {
	tripID, err := requireTripID(tripID)
	if err != nil {
		return nil, "", err
	}
	trip, err := s.Trips.GetTrip(ctx, tripID)
	if err != nil {
		return nil, "", err
	}
	snap, err := s.Ledger.Snapshot(ctx, trip.ID)
	if err != nil {
		return nil, "", err
	}
	idx, err := snap.Layout.Index(label)
	if err != nil {
		return nil, "", err
	}
	seat := snap.Layout.Label(idx)
	rec, held := snap.Lookup(seat)
	if !held {
		return nil, "", domain.NotBookedError{Seat: seat}
	}
	if !actor.CanManage(rec.HolderID) {
		return nil, "", domain.PermissionError{Msg: "only the seat holder or an admin can download this ticket"}
	}

	utils.LogEvent(s.RequestID, "ticket", "generate_eticket", fmt.Sprintf("trip_id=%s seat=%s", trip.ID, seat))
	return buildETicketPDF(ticketData{Trip: trip, Seat: seat, Holder: rec, IssuedAt: utils.NowUTC()})
}

func buildETicketPDF(d ticketData) ([]byte, string, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("E-Ticket", false)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "E-TICKET")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	lines := []string{
		fmt.Sprintf("Trip No     : %s", safe(d.Trip.TripNumber, "-")),
		fmt.Sprintf("Route       : %s -> %s", safe(d.Trip.Origin, "-"), safe(d.Trip.Destination, "-")),
		fmt.Sprintf("Date        : %s", safe(d.Trip.Date, "-")),
		fmt.Sprintf("Departure   : %s UTC", safe(utils.FormatDateTime(d.Trip.DepartureTime), "-")),
		fmt.Sprintf("Boarding    : %s", safe(d.Trip.BoardingPoint, "-")),
		fmt.Sprintf("Seat        : %s", safe(d.Seat, "-")),
		fmt.Sprintf("Pickup      : %s", safe(d.Holder.PickupLocation, "-")),
		fmt.Sprintf("Contact     : %s", safe(d.Holder.ContactNumber, "-")),
		fmt.Sprintf("Fare        : %s", utils.FormatFare(d.Trip.Fare)),
		fmt.Sprintf("Driver      : %s (%s)", safe(d.Trip.DriverName, "-"), safe(d.Trip.DriverContact, "-")),
		fmt.Sprintf("Booked At   : %s UTC", safe(utils.FormatDateTime(d.Holder.CreatedAt), "-")),
		fmt.Sprintf("Ticket Code : %s", ticketCode(d)),
	}
	for _, s := range lines {
		pdf.Cell(0, 7, s)
		pdf.Ln(7)
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "I", 10)
	pdf.MultiCell(0, 6, "This e-ticket is valid for one passenger and one seat. Show it to the driver when boarding. Issued "+utils.FormatDateTime(d.IssuedAt)+" UTC.", "", "", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", err
	}
	filename := fmt.Sprintf("ETICKET_%s_%s.pdf", utils.SafeFilenamePart(d.Trip.TripNumber), utils.SafeFilenamePart(d.Seat))
	return buf.Bytes(), filename, nil
}

func ticketCode(d ticketData) string {
	id := strings.ReplaceAll(d.Trip.ID, "-", "")
	if len(id) > 8 {
		id = id[:8]
	}
	return fmt.Sprintf("TCK-%s-%s", strings.ToUpper(safe(id, "NA")), d.Seat)
}

func safe(v, fallback string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return fallback
	}
	return v
}
