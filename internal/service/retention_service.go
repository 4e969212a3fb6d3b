package service

import (
	"archive/zip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/SIJA-SKANSAPUNG/Park28Maret/internal/domain"
	"github.com/SIJA-SKANSAPUNG/Park28Maret/internal/repository"
)

// RetentionService exports historical sessions to zip archives, restores
// them and purges records past the retention window. The archive layout
// is data.json at the root plus an images/ folder with the entry photos
// that still exist on disk.
type RetentionService struct {
	sessionRepo repository.ParkingSessionRepository
	rateRepo    repository.ParkingRateRepository
}

func NewRetentionService(
	sessionRepo repository.ParkingSessionRepository,
	rateRepo repository.ParkingRateRepository,
) *RetentionService {
	return &RetentionService{sessionRepo: sessionRepo, rateRepo: rateRepo}
}

// Export writes a zip archive of all sessions entered in [from, to]
// plus the current rate catalog.
func (s *RetentionService) Export(ctx context.Context, dto domain.ExportRequestDTO, w io.Writer) error {
	from, err := time.Parse(time.RFC3339, dto.From)
	if err != nil {
		return fmt.Errorf("invalid 'from' timestamp: %w", err)
	}
	to, err := time.Parse(time.RFC3339, dto.To)
	if err != nil {
		return fmt.Errorf("invalid 'to' timestamp: %w", err)
	}
	if !to.After(from) {
		return fmt.Errorf("'to' must be after 'from'")
	}

	sessions, err := s.sessionRepo.FindByEntryRange(ctx, from.UTC(), to.UTC())
	if err != nil {
		return err
	}
	rates, err := s.rateRepo.FindAll(ctx)
	if err != nil {
		return err
	}

	archive := domain.BackupArchive{
		BackupDate: time.Now().UTC(),
		RangeStart: from.UTC(),
		RangeEnd:   to.UTC(),
		Sessions:   sessions,
		Rates:      rates,
	}

	zw := zip.NewWriter(w)
	entry, err := zw.Create("data.json")
	if err != nil {
		return fmt.Errorf("creating data.json in archive: %w", err)
	}
	encoder := json.NewEncoder(entry)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(archive); err != nil {
		return fmt.Errorf("encoding backup data: %w", err)
	}

	if dto.IncludeImages {
		for _, session := range sessions {
			if !session.EntryPhotoPath.Valid {
				continue
			}
			if err := addPhotoToArchive(zw, session.EntryPhotoPath.String); err != nil {
				log.Printf("skipping photo %s: %v", session.EntryPhotoPath.String, err)
			}
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("finalizing archive: %w", err)
	}
	log.Printf("exported %d sessions and %d rates for %s to %s",
		len(sessions), len(rates), from.Format(time.RFC3339), to.Format(time.RFC3339))
	return nil
}

func addPhotoToArchive(zw *zip.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	entry, err := zw.Create("images/" + filepath.Base(path))
	if err != nil {
		return err
	}
	_, err = io.Copy(entry, f)
	return err
}

// Import restores sessions and rates from an exported archive. Sessions
// are keyed by transaction number; existing ones are skipped unless
// overwrite is set. Rates are matched on (class, effective window) and
// never overwritten.
func (s *RetentionService) Import(ctx context.Context, r io.ReaderAt, size int64, overwrite bool) (*domain.ImportCounts, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("opening archive: %w", err)
	}

	var archive domain.BackupArchive
	found := false
	for _, file := range zr.File {
		if file.Name != "data.json" {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("opening data.json: %w", err)
		}
		err = json.NewDecoder(rc).Decode(&archive)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("decoding data.json: %w", err)
		}
		found = true
		break
	}
	if !found {
		return nil, fmt.Errorf("archive has no data.json")
	}

	counts := &domain.ImportCounts{}
	for i := range archive.Sessions {
		session := archive.Sessions[i]
		created, err := s.sessionRepo.UpsertImported(ctx, &session, overwrite)
		if err != nil {
			return counts, fmt.Errorf("importing session %s: %w", session.TransactionNumber, err)
		}
		switch {
		case created:
			counts.SessionsCreated++
		case overwrite:
			counts.SessionsUpdated++
		default:
			counts.SessionsSkipped++
		}
	}

	existingRates, err := s.rateRepo.FindAll(ctx)
	if err != nil {
		return counts, err
	}
	for i := range archive.Rates {
		rate := archive.Rates[i]
		if rateExists(existingRates, rate) {
			counts.RatesSkipped++
			continue
		}
		if _, err := s.rateRepo.Create(ctx, &rate); err != nil {
			return counts, fmt.Errorf("importing rate for class '%s': %w", rate.VehicleClass, err)
		}
		counts.RatesCreated++
	}

	log.Printf("import finished: %d sessions created, %d updated, %d skipped, %d rates created",
		counts.SessionsCreated, counts.SessionsUpdated, counts.SessionsSkipped, counts.RatesCreated)
	return counts, nil
}

func rateExists(existing []domain.ParkingRate, candidate domain.ParkingRate) bool {
	for _, rate := range existing {
		if rate.VehicleClass == candidate.VehicleClass && rate.EffectiveFrom.Equal(candidate.EffectiveFrom) {
			return true
		}
	}
	return false
}

// Purge deletes completed sessions entered before the cutoff, and
// optionally their stored photos. Active sessions are left alone.
func (s *RetentionService) Purge(ctx context.Context, dto domain.PurgeRequestDTO) (*domain.PurgeCounts, error) {
	cutoff, err := time.Parse(time.RFC3339, dto.Before)
	if err != nil {
		return nil, fmt.Errorf("invalid 'before' timestamp: %w", err)
	}

	counts := &domain.PurgeCounts{}
	if dto.IncludePhotos {
		sessions, err := s.sessionRepo.FindByEntryRange(ctx, time.Time{}, cutoff.UTC())
		if err != nil {
			return nil, err
		}
		for _, session := range sessions {
			if session.Status != domain.SessionCompleted || !session.EntryPhotoPath.Valid {
				continue
			}
			if err := os.Remove(session.EntryPhotoPath.String); err != nil {
				if !errors.Is(err, os.ErrNotExist) {
					log.Printf("could not remove photo %s: %v", session.EntryPhotoPath.String, err)
				}
				continue
			}
			counts.Photos++
		}
	}

	deleted, err := s.sessionRepo.DeleteEnteredBefore(ctx, cutoff.UTC())
	if err != nil {
		return nil, err
	}
	counts.Sessions = deleted

	log.Printf("purged %d sessions and %d photos entered before %s", counts.Sessions, counts.Photos, cutoff.Format(time.RFC3339))
	return counts, nil
}
