package service

import (
	"fmt"
	"time"

	"github.com/SIJA-SKANSAPUNG/Park28Maret/internal/domain"
)

// BillableHours rounds a stay up to whole hours. Any fraction of an hour
// is charged as a full hour, and a zero-length stay still bills one hour.
func BillableHours(entry, exit time.Time) int64 {
	duration := exit.Sub(entry)
	hours := int64(duration / time.Hour)
	if duration%time.Hour != 0 {
		hours++
	}
	if hours < 1 {
		hours = 1
	}
	return hours
}

// CalculateParkingFee prices a stay against one rate schedule.
//
// Tiers by billable hours h:
//
//	h <= 1:    base
//	h <= 24:   base + hourly * (h - 1)
//	h <= 168:  daily * ceil(h / 24)
//	otherwise: weekly * ceil(h / 168)
func CalculateParkingFee(rate *domain.ParkingRate, entry, exit time.Time) int64 {
	hours := BillableHours(entry, exit)
	switch {
	case hours <= 1:
		return rate.BaseRate
	case hours <= 24:
		return rate.BaseRate + rate.HourlyRate*(hours-1)
	case hours <= 168:
		days := (hours + 23) / 24
		return rate.DailyRate * days
	default:
		weeks := (hours + 167) / 168
		return rate.WeeklyRate * weeks
	}
}

// FormatDuration renders a stay as "Xh Ym" for receipts.
func FormatDuration(entry, exit time.Time) string {
	duration := exit.Sub(entry)
	if duration < 0 {
		duration = 0
	}
	hours := int64(duration / time.Hour)
	minutes := int64(duration%time.Hour) / int64(time.Minute)
	return fmt.Sprintf("%dh %dm", hours, minutes)
}
