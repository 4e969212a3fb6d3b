package service

import (
	"archive/zip"
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/SIJA-SKANSAPUNG/Park28Maret/internal/domain"
)

func completedSession(id int, trx, plate string, entry time.Time, fee int64) domain.ParkingSession {
	s := domain.ParkingSession{
		ID: id, TransactionNumber: trx,
		VehiclePlate: plate, VehicleClass: domain.ClassCar,
		SpaceID: id, EntryTime: entry, Status: domain.SessionCompleted,
	}
	s.ExitTime.SetValid(entry.Add(time.Hour))
	s.Fee.SetValid(fee)
	return s
}

func TestRetentionExportImport(t *testing.T) {
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	source := newFakeSessionRepo(
		completedSession(1, "TRX-20250301-AAAAAAAA", "B 1 A", base, 5000),
		completedSession(2, "TRX-20250302-BBBBBBBB", "B 2 A", base.AddDate(0, 0, 1), 7000),
		// Outside the export range.
		completedSession(3, "TRX-20250401-CCCCCCCC", "B 3 A", base.AddDate(0, 1, 0), 9000),
	)
	rates := newFakeRateRepo(domain.ParkingRate{
		ID: 1, VehicleClass: domain.ClassCar,
		BaseRate: 5000, HourlyRate: 2000, DailyRate: 40000, WeeklyRate: 150000,
		IsActive: true, EffectiveFrom: base.AddDate(0, -1, 0),
	})
	svc := NewRetentionService(source, rates)

	var buf bytes.Buffer
	err := svc.Export(context.Background(), domain.ExportRequestDTO{
		From: "2025-03-01T00:00:00Z",
		To:   "2025-03-31T00:00:00Z",
	}, &buf)
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("export did not produce a readable zip: %v", err)
	}
	if len(zr.File) != 1 || zr.File[0].Name != "data.json" {
		t.Fatalf("expected a single data.json entry, got %v", zr.File)
	}

	t.Run("import into an empty repository recreates the sessions", func(t *testing.T) {
		target := newFakeSessionRepo()
		targetRates := newFakeRateRepo()
		importSvc := NewRetentionService(target, targetRates)

		counts, err := importSvc.Import(context.Background(), bytes.NewReader(buf.Bytes()), int64(buf.Len()), false)
		if err != nil {
			t.Fatalf("import failed: %v", err)
		}
		if counts.SessionsCreated != 2 || counts.SessionsSkipped != 0 {
			t.Errorf("expected 2 created / 0 skipped, got %+v", counts)
		}
		if counts.RatesCreated != 1 {
			t.Errorf("expected 1 rate created, got %+v", counts)
		}
		restored, err := target.FindByTransactionNumber(context.Background(), "TRX-20250302-BBBBBBBB")
		if err != nil {
			t.Fatalf("restored session not found: %v", err)
		}
		if restored.Fee.Int64 != 7000 {
			t.Errorf("expected restored fee 7000, got %d", restored.Fee.Int64)
		}
	})

	t.Run("re-import without overwrite skips existing records", func(t *testing.T) {
		target := newFakeSessionRepo()
		targetRates := newFakeRateRepo()
		importSvc := NewRetentionService(target, targetRates)

		if _, err := importSvc.Import(context.Background(), bytes.NewReader(buf.Bytes()), int64(buf.Len()), false); err != nil {
			t.Fatalf("first import failed: %v", err)
		}
		counts, err := importSvc.Import(context.Background(), bytes.NewReader(buf.Bytes()), int64(buf.Len()), false)
		if err != nil {
			t.Fatalf("second import failed: %v", err)
		}
		if counts.SessionsCreated != 0 || counts.SessionsSkipped != 2 {
			t.Errorf("expected 0 created / 2 skipped, got %+v", counts)
		}
		if counts.RatesCreated != 0 || counts.RatesSkipped != 1 {
			t.Errorf("expected existing rate to be skipped, got %+v", counts)
		}
	})

	t.Run("re-import with overwrite replaces existing records", func(t *testing.T) {
		existing := completedSession(1, "TRX-20250301-AAAAAAAA", "B 1 A", base, 999)
		target := newFakeSessionRepo(existing)
		importSvc := NewRetentionService(target, newFakeRateRepo())

		counts, err := importSvc.Import(context.Background(), bytes.NewReader(buf.Bytes()), int64(buf.Len()), true)
		if err != nil {
			t.Fatalf("import failed: %v", err)
		}
		if counts.SessionsCreated != 1 || counts.SessionsUpdated != 1 {
			t.Errorf("expected 1 created / 1 updated, got %+v", counts)
		}
		replaced, err := target.FindByTransactionNumber(context.Background(), "TRX-20250301-AAAAAAAA")
		if err != nil {
			t.Fatalf("overwritten session not found: %v", err)
		}
		if replaced.Fee.Int64 != 5000 {
			t.Errorf("expected fee overwritten to 5000, got %d", replaced.Fee.Int64)
		}
	})
}

func TestRetentionExportRejectsBadRange(t *testing.T) {
	svc := NewRetentionService(newFakeSessionRepo(), newFakeRateRepo())

	var buf bytes.Buffer
	err := svc.Export(context.Background(), domain.ExportRequestDTO{
		From: "2025-03-31T00:00:00Z",
		To:   "2025-03-01T00:00:00Z",
	}, &buf)
	if err == nil || !strings.Contains(err.Error(), "'to' must be after 'from'") {
		t.Fatalf("expected range error, got %v", err)
	}

	err = svc.Export(context.Background(), domain.ExportRequestDTO{
		From: "not-a-time",
		To:   "2025-03-01T00:00:00Z",
	}, &buf)
	if err == nil {
		t.Fatal("expected error for malformed 'from' timestamp")
	}
}

func TestRetentionImportRejectsArchiveWithoutData(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	entry, err := zw.Create("readme.txt")
	if err != nil {
		t.Fatalf("building test archive: %v", err)
	}
	if _, err := entry.Write([]byte("nothing here")); err != nil {
		t.Fatalf("building test archive: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("building test archive: %v", err)
	}

	svc := NewRetentionService(newFakeSessionRepo(), newFakeRateRepo())
	_, err = svc.Import(context.Background(), bytes.NewReader(buf.Bytes()), int64(buf.Len()), false)
	if err == nil || !strings.Contains(err.Error(), "no data.json") {
		t.Fatalf("expected missing data.json error, got %v", err)
	}
}

func TestRetentionPurge(t *testing.T) {
	cutoff := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)
	active := domain.ParkingSession{
		ID: 3, TransactionNumber: "TRX-20250310-DDDDDDDD",
		VehiclePlate: "B 3 A", VehicleClass: domain.ClassCar,
		SpaceID: 3, EntryTime: cutoff.AddDate(0, 0, -10), Status: domain.SessionActive,
	}
	sessions := newFakeSessionRepo(
		completedSession(1, "TRX-20250301-AAAAAAAA", "B 1 A", cutoff.AddDate(0, 0, -14), 5000),
		completedSession(2, "TRX-20250320-BBBBBBBB", "B 2 A", cutoff.AddDate(0, 0, 5), 7000),
		active,
	)
	svc := NewRetentionService(sessions, newFakeRateRepo())

	counts, err := svc.Purge(context.Background(), domain.PurgeRequestDTO{
		Before: cutoff.Format(time.RFC3339),
	})
	if err != nil {
		t.Fatalf("purge failed: %v", err)
	}
	if counts.Sessions != 1 {
		t.Errorf("expected 1 purged session, got %d", counts.Sessions)
	}
	// The old but still active session survives the purge.
	if sessions.activeCount() != 1 {
		t.Errorf("expected the active session to survive, got %d active", sessions.activeCount())
	}
	if _, err := sessions.FindByTransactionNumber(context.Background(), "TRX-20250320-BBBBBBBB"); err != nil {
		t.Errorf("expected the recent session to survive: %v", err)
	}
	if _, err := sessions.FindByTransactionNumber(context.Background(), "TRX-20250301-AAAAAAAA"); err == nil {
		t.Error("expected the old completed session to be deleted")
	}
}
