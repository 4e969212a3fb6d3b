package service

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/SIJA-SKANSAPUNG/Park28Maret/internal/domain"
)

const ticketWidth = 32

// TicketService formats entry tickets and exit receipts for a thermal
// printer. Printing is best effort: a printer failure is reported via
// the returned flag and never blocks the gate.
type TicketService struct {
	printer      Printer
	facilityName string
}

func NewTicketService(printer Printer, facilityName string) *TicketService {
	return &TicketService{printer: printer, facilityName: facilityName}
}

func centered(text string) string {
	if len(text) >= ticketWidth {
		return text
	}
	pad := (ticketWidth - len(text)) / 2
	return strings.Repeat(" ", pad) + text
}

func (t *TicketService) FormatEntryTicket(ticket *domain.EntryTicket) string {
	var b strings.Builder
	rule := strings.Repeat("=", ticketWidth)
	b.WriteString(rule + "\n")
	b.WriteString(centered(t.facilityName) + "\n")
	b.WriteString(centered("ENTRY TICKET") + "\n")
	b.WriteString(rule + "\n")
	fmt.Fprintf(&b, "Ticket : %s\n", ticket.TransactionNumber)
	fmt.Fprintf(&b, "Plate  : %s\n", ticket.VehiclePlate)
	fmt.Fprintf(&b, "Class  : %s\n", ticket.VehicleClass)
	fmt.Fprintf(&b, "Space  : %s\n", ticket.SpaceNumber)
	fmt.Fprintf(&b, "Entry  : %s\n", ticket.EntryTime.Format("02 Jan 2006 15:04"))
	b.WriteString(rule + "\n")
	b.WriteString(centered("Keep this ticket") + "\n")
	return b.String()
}

func (t *TicketService) FormatExitReceipt(receipt *domain.ExitReceipt) string {
	var b strings.Builder
	rule := strings.Repeat("=", ticketWidth)
	b.WriteString(rule + "\n")
	b.WriteString(centered(t.facilityName) + "\n")
	b.WriteString(centered("PAYMENT RECEIPT") + "\n")
	b.WriteString(rule + "\n")
	fmt.Fprintf(&b, "Ticket  : %s\n", receipt.TransactionNumber)
	fmt.Fprintf(&b, "Plate   : %s\n", receipt.VehiclePlate)
	fmt.Fprintf(&b, "Space   : %s\n", receipt.SpaceNumber)
	fmt.Fprintf(&b, "Entry   : %s\n", receipt.EntryTime.Format("02 Jan 2006 15:04"))
	fmt.Fprintf(&b, "Exit    : %s\n", receipt.ExitTime.Format("02 Jan 2006 15:04"))
	fmt.Fprintf(&b, "Parked  : %s\n", receipt.DurationDisplay)
	fmt.Fprintf(&b, "Payment : %s\n", receipt.PaymentMethod)
	b.WriteString(rule + "\n")
	fmt.Fprintf(&b, "TOTAL   : Rp %d\n", receipt.Fee)
	b.WriteString(rule + "\n")
	b.WriteString(centered("Thank you") + "\n")
	return b.String()
}

// PrintEntryTicket sends the formatted ticket to the printer and
// reports whether it was printed.
func (t *TicketService) PrintEntryTicket(ticket *domain.EntryTicket) bool {
	if t.printer == nil {
		return false
	}
	if err := t.printer.Print(t.FormatEntryTicket(ticket)); err != nil {
		log.Printf("printing entry ticket %s: %v", ticket.TransactionNumber, err)
		return false
	}
	return true
}

func (t *TicketService) PrintExitReceipt(receipt *domain.ExitReceipt) bool {
	if t.printer == nil {
		return false
	}
	if err := t.printer.Print(t.FormatExitReceipt(receipt)); err != nil {
		log.Printf("printing exit receipt %s: %v", receipt.TransactionNumber, err)
		return false
	}
	return true
}

// DevicePrinter writes ticket text straight to a character device such
// as /dev/usb/lp0. An ESC/POS partial cut is appended after each job.
type DevicePrinter struct {
	DevicePath string
}

func (p *DevicePrinter) Print(text string) error {
	payload := append([]byte(text), 0x1D, 0x56, 0x01)
	f, err := os.OpenFile(p.DevicePath, os.O_WRONLY|os.O_APPEND, 0)
	if err != nil {
		return fmt.Errorf("opening printer device %s: %w", p.DevicePath, err)
	}
	defer f.Close()
	if _, err := f.Write(payload); err != nil {
		return fmt.Errorf("writing to printer device %s: %w", p.DevicePath, err)
	}
	return nil
}
