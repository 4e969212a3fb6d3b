package service

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/SIJA-SKANSAPUNG/Park28Maret/internal/domain"
)

type fakePrinter struct {
	jobs []string
	err  error
}

func (p *fakePrinter) Print(text string) error {
	if p.err != nil {
		return p.err
	}
	p.jobs = append(p.jobs, text)
	return nil
}

func sampleTicket() *domain.EntryTicket {
	return &domain.EntryTicket{
		TransactionNumber: "TRX-20250328-12AB34CD",
		VehiclePlate:      "B 1234 ABC",
		VehicleClass:      domain.ClassCar,
		SpaceNumber:       "A-01",
		EntryTime:         time.Date(2025, 3, 28, 8, 0, 0, 0, time.UTC),
	}
}

func TestFormatEntryTicket(t *testing.T) {
	svc := NewTicketService(nil, "Central Parking")
	text := svc.FormatEntryTicket(sampleTicket())

	for _, want := range []string{
		"Central Parking",
		"ENTRY TICKET",
		"Ticket : TRX-20250328-12AB34CD",
		"Plate  : B 1234 ABC",
		"Space  : A-01",
		"Entry  : 28 Mar 2025 08:00",
		"Keep this ticket",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("ticket is missing %q:\n%s", want, text)
		}
	}
}

func TestFormatExitReceipt(t *testing.T) {
	svc := NewTicketService(nil, "Central Parking")
	receipt := &domain.ExitReceipt{
		TransactionNumber: "TRX-20250328-12AB34CD",
		VehiclePlate:      "B 1234 ABC",
		SpaceNumber:       "A-01",
		EntryTime:         time.Date(2025, 3, 28, 8, 0, 0, 0, time.UTC),
		ExitTime:          time.Date(2025, 3, 28, 10, 35, 0, 0, time.UTC),
		DurationHours:     3,
		DurationDisplay:   "2h 35m",
		Fee:               9000,
		PaymentMethod:     "cash",
	}
	text := svc.FormatExitReceipt(receipt)

	for _, want := range []string{
		"PAYMENT RECEIPT",
		"Exit    : 28 Mar 2025 10:35",
		"Parked  : 2h 35m",
		"Payment : cash",
		"TOTAL   : Rp 9000",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("receipt is missing %q:\n%s", want, text)
		}
	}
}

func TestPrintEntryTicket(t *testing.T) {
	t.Run("delivers the job to the printer", func(t *testing.T) {
		printer := &fakePrinter{}
		svc := NewTicketService(printer, "Central Parking")
		if ok := svc.PrintEntryTicket(sampleTicket()); !ok {
			t.Fatal("expected the ticket to be printed")
		}
		if len(printer.jobs) != 1 {
			t.Fatalf("expected 1 print job, got %d", len(printer.jobs))
		}
	})

	t.Run("reports a printer failure without erroring", func(t *testing.T) {
		printer := &fakePrinter{err: errors.New("paper jam")}
		svc := NewTicketService(printer, "Central Parking")
		if ok := svc.PrintEntryTicket(sampleTicket()); ok {
			t.Fatal("expected printing to be reported as failed")
		}
	})

	t.Run("no printer configured means nothing is printed", func(t *testing.T) {
		svc := NewTicketService(nil, "Central Parking")
		if ok := svc.PrintEntryTicket(sampleTicket()); ok {
			t.Fatal("expected no print without a printer")
		}
	})
}
