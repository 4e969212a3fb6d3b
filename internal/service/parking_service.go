package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/SIJA-SKANSAPUNG/Park28Maret/internal/domain"
	"github.com/SIJA-SKANSAPUNG/Park28Maret/internal/repository"

	"github.com/google/uuid"
	"gopkg.in/guregu/null.v4"
)

var (
	ErrInvalidPlate        = errors.New("invalid vehicle plate")
	ErrInvalidVehicleClass = errors.New("invalid vehicle class")
	ErrInvalidExitTime     = errors.New("exit time must be after entry time")
)

// trxAttempts bounds transaction-number regeneration on a collision.
const trxAttempts = 3

type ParkingService struct {
	spaceRepo   repository.ParkingSpaceRepository
	sessionRepo repository.ParkingSessionRepository
	rateRepo    repository.ParkingRateRepository
	notifier    Notifier
	barrier     BarrierOpener
	tickets     *TicketService
	lpr         *LPRService
	photos      *PhotoStorage
}

func NewParkingService(
	spaceRepo repository.ParkingSpaceRepository,
	sessionRepo repository.ParkingSessionRepository,
	rateRepo repository.ParkingRateRepository,
	notifier Notifier,
	barrier BarrierOpener,
	tickets *TicketService,
) *ParkingService {
	return &ParkingService{
		spaceRepo:   spaceRepo,
		sessionRepo: sessionRepo,
		rateRepo:    rateRepo,
		notifier:    notifier,
		barrier:     barrier,
		tickets:     tickets,
	}
}

func newTransactionNumber(at time.Time) string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("TRX-%s-%s", at.Format("20060102"), strings.ToUpper(raw[:8]))
}

func parseEventTime(value string, fallback time.Time) time.Time {
	if value == "" {
		return fallback
	}
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		log.Printf("could not parse event time '%s': %v, using server time", value, err)
		return fallback
	}
	return parsed.UTC()
}

// EnablePhotoEntry wires in plate recognition and photo storage for the
// photo-assisted entry path.
func (s *ParkingService) EnablePhotoEntry(lpr *LPRService, photos *PhotoStorage) {
	s.lpr = lpr
	s.photos = photos
}

// RegisterEntry admits a vehicle: it reserves the lowest-numbered free
// space for the vehicle class, opens an active session under a fresh
// transaction number and links the space to the session. If the session
// cannot be opened the reserved space is released again, so a rejected
// entry leaves no space occupied.
func (s *ParkingService) RegisterEntry(ctx context.Context, dto domain.VehicleEntryDTO) (*domain.EntryTicket, error) {
	return s.admit(ctx, dto.VehiclePlate, dto.VehicleClass, dto.EntryTime, null.String{})
}

// RegisterEntryWithPhoto is the photo-assisted variant. When no plate
// is supplied the image goes through plate recognition first. The photo
// itself is stored best effort: a storage failure is logged but does
// not turn the vehicle away.
func (s *ParkingService) RegisterEntryWithPhoto(ctx context.Context, dto domain.PhotoEntryDTO) (*domain.EntryTicket, error) {
	var imageBytes []byte
	if dto.ImageBase64 != "" {
		decoded, err := base64.StdEncoding.DecodeString(dto.ImageBase64)
		if err != nil {
			return nil, fmt.Errorf("decoding entry photo: %w", err)
		}
		imageBytes = decoded
	}

	plate := dto.VehiclePlate
	if plate == "" {
		if s.lpr == nil || len(imageBytes) == 0 {
			return nil, fmt.Errorf("%w: no plate supplied and no image to recognize one from", ErrInvalidPlate)
		}
		recognized, confidence, err := s.lpr.RecognizePlate(ctx, imageBytes)
		if err != nil {
			return nil, fmt.Errorf("plate recognition failed: %w", err)
		}
		log.Printf("recognized plate '%s' (confidence %.1f)", recognized, confidence)
		plate = recognized
	}

	var photoPath null.String
	if s.photos != nil && len(imageBytes) > 0 {
		path, err := s.photos.Save(domain.NormalizePlate(plate), time.Now().UTC(), imageBytes)
		if err != nil {
			log.Printf("could not store entry photo for plate '%s': %v", plate, err)
		} else {
			photoPath = null.StringFrom(path)
		}
	}

	return s.admit(ctx, plate, dto.VehicleClass, dto.EntryTime, photoPath)
}

func (s *ParkingService) admit(ctx context.Context, rawPlate, rawClass, rawEntryTime string, photoPath null.String) (*domain.EntryTicket, error) {
	plate := domain.NormalizePlate(rawPlate)
	if !domain.ValidPlate(plate) {
		return nil, fmt.Errorf("%w: '%s'", ErrInvalidPlate, rawPlate)
	}
	if !domain.ValidVehicleClass(rawClass) {
		return nil, fmt.Errorf("%w: '%s'", ErrInvalidVehicleClass, rawClass)
	}
	class := domain.VehicleClass(rawClass)
	entryTime := parseEventTime(rawEntryTime, time.Now().UTC())

	space, err := s.spaceRepo.Reserve(ctx, class, entryTime)
	if err != nil {
		return nil, err
	}

	var session *domain.ParkingSession
	for attempt := 0; attempt < trxAttempts; attempt++ {
		session, err = s.sessionRepo.CreateActive(ctx, &domain.ParkingSession{
			TransactionNumber: newTransactionNumber(entryTime),
			VehiclePlate:      plate,
			VehicleClass:      class,
			SpaceID:           space.ID,
			EntryTime:         entryTime,
			EntryPhotoPath:    photoPath,
		})
		if err == nil {
			break
		}
		if errors.Is(err, repository.ErrDuplicateEntry) {
			log.Printf("transaction number collision for plate '%s', regenerating", plate)
			continue
		}
		break
	}
	if err != nil {
		// The space was reserved before the session could be opened;
		// hand it back so the failed entry has no lasting effect.
		if releaseErr := s.spaceRepo.Release(ctx, space.ID, entryTime); releaseErr != nil {
			log.Printf("could not release space %d after failed entry for plate '%s': %v", space.ID, plate, releaseErr)
		}
		if errors.Is(err, repository.ErrDuplicateActive) {
			return nil, err
		}
		return nil, fmt.Errorf("opening session for plate '%s': %w", plate, err)
	}

	if err := s.spaceRepo.AssignSession(ctx, space.ID, session.ID); err != nil {
		log.Printf("could not link space %d to session %d: %v", space.ID, session.ID, err)
	}

	log.Printf("vehicle '%s' entered, space %s, transaction %s", plate, space.SpaceNumber, session.TransactionNumber)

	ticket := &domain.EntryTicket{
		TransactionNumber: session.TransactionNumber,
		VehiclePlate:      plate,
		VehicleClass:      class,
		SpaceNumber:       space.SpaceNumber,
		EntryTime:         entryTime,
	}

	s.notify(domain.ParkingStatusNotification{
		EventID:      uuid.NewString(),
		EventType:    domain.EventVehicleEntered,
		VehiclePlate: plate,
		VehicleClass: class,
		SpaceNumber:  space.SpaceNumber,
		Timestamp:    entryTime,
	})
	s.openBarrier(ctx, "entry")
	if s.tickets != nil {
		if ok := s.tickets.PrintEntryTicket(ticket); !ok {
			log.Printf("entry ticket for %s was not printed", session.TransactionNumber)
		}
	}
	return ticket, nil
}

// ProcessExit closes the session identified by plate or transaction
// number, prices the stay against the rate in force at exit time and
// frees the space. Completing the session before releasing the space
// means a crash in between leaves a space occupied but never a vehicle
// uncharged; the release is idempotent and safe to reconcile.
func (s *ParkingService) ProcessExit(ctx context.Context, dto domain.VehicleExitDTO) (*domain.ExitReceipt, error) {
	session, err := s.resolveSession(ctx, dto.Identifier)
	if err != nil {
		return nil, err
	}
	if session.Status != domain.SessionActive {
		return nil, repository.ErrAlreadyClosed
	}

	exitTime := parseEventTime(dto.ExitTime, time.Now().UTC())
	if !exitTime.After(session.EntryTime) {
		return nil, fmt.Errorf("%w: entry %s, exit %s", ErrInvalidExitTime,
			session.EntryTime.Format(time.RFC3339), exitTime.Format(time.RFC3339))
	}

	rate, err := s.rateRepo.FindEffective(ctx, session.VehicleClass, exitTime)
	if err != nil {
		return nil, err
	}
	fee := CalculateParkingFee(rate, session.EntryTime, exitTime)

	completed, err := s.sessionRepo.Complete(ctx, session.ID, exitTime, fee, dto.PaymentMethod)
	if err != nil {
		return nil, err
	}

	if err := s.spaceRepo.Release(ctx, session.SpaceID, exitTime); err != nil {
		log.Printf("could not release space %d for session %d: %v", session.SpaceID, session.ID, err)
	}

	log.Printf("vehicle '%s' exited, transaction %s, fee %d", session.VehiclePlate, session.TransactionNumber, fee)

	receipt := &domain.ExitReceipt{
		TransactionNumber: completed.TransactionNumber,
		VehiclePlate:      completed.VehiclePlate,
		SpaceNumber:       session.SpaceNumber,
		EntryTime:         completed.EntryTime,
		ExitTime:          exitTime,
		DurationHours:     BillableHours(completed.EntryTime, exitTime),
		DurationDisplay:   FormatDuration(completed.EntryTime, exitTime),
		Fee:               fee,
		PaymentMethod:     dto.PaymentMethod,
	}

	s.notify(domain.ParkingStatusNotification{
		EventID:      uuid.NewString(),
		EventType:    domain.EventVehicleExited,
		VehiclePlate: completed.VehiclePlate,
		VehicleClass: completed.VehicleClass,
		SpaceNumber:  session.SpaceNumber,
		Fee:          completed.Fee,
		Timestamp:    exitTime,
	})
	s.openBarrier(ctx, "exit")
	if s.tickets != nil {
		if ok := s.tickets.PrintExitReceipt(receipt); !ok {
			log.Printf("exit receipt for %s was not printed", completed.TransactionNumber)
		}
	}
	return receipt, nil
}

// resolveSession accepts either a transaction number or a plate. A
// transaction number pins one specific session; a plate resolves to the
// vehicle's current active session.
func (s *ParkingService) resolveSession(ctx context.Context, identifier string) (*domain.ParkingSession, error) {
	identifier = strings.TrimSpace(identifier)
	if strings.HasPrefix(strings.ToUpper(identifier), "TRX-") {
		return s.sessionRepo.FindByTransactionNumber(ctx, strings.ToUpper(identifier))
	}
	plate := domain.NormalizePlate(identifier)
	if !domain.ValidPlate(plate) {
		return nil, fmt.Errorf("%w: '%s'", ErrInvalidPlate, identifier)
	}
	return s.sessionRepo.FindActiveByPlate(ctx, plate)
}

func (s *ParkingService) notify(notification domain.ParkingStatusNotification) {
	if s.notifier == nil {
		return
	}
	s.notifier.Broadcast(notification)
}

func (s *ParkingService) openBarrier(ctx context.Context, gate string) {
	if s.barrier == nil {
		return
	}
	if err := s.barrier.Open(ctx, gate); err != nil {
		log.Printf("could not open %s barrier: %v", gate, err)
	}
}

// --- ParkingSpace ---

func (s *ParkingService) CreateParkingSpace(ctx context.Context, dto domain.ParkingSpaceDTO) (*domain.ParkingSpace, error) {
	if !domain.ValidVehicleClass(dto.VehicleClass) {
		return nil, fmt.Errorf("%w: '%s'", ErrInvalidVehicleClass, dto.VehicleClass)
	}
	space := &domain.ParkingSpace{
		SpaceNumber:  strings.TrimSpace(dto.SpaceNumber),
		VehicleClass: domain.VehicleClass(dto.VehicleClass),
	}
	return s.spaceRepo.Create(ctx, space)
}

func (s *ParkingService) GetParkingSpaceByID(ctx context.Context, id int) (*domain.ParkingSpace, error) {
	return s.spaceRepo.FindByID(ctx, id)
}

func (s *ParkingService) GetAllParkingSpaces(ctx context.Context) ([]domain.ParkingSpace, error) {
	return s.spaceRepo.FindAll(ctx)
}

func (s *ParkingService) DeleteParkingSpace(ctx context.Context, id int) error {
	return s.spaceRepo.Delete(ctx, id)
}

func (s *ParkingService) GetAvailableSpaces(ctx context.Context) ([]domain.SpaceAvailability, error) {
	return s.spaceRepo.Availability(ctx)
}

// --- ParkingSession queries ---

func (s *ParkingService) GetParkingSessionByID(ctx context.Context, id int) (*domain.ParkingSession, error) {
	return s.sessionRepo.FindByID(ctx, id)
}

func (s *ParkingService) FindParkingSessions(ctx context.Context, filter domain.ParkingSessionFilterDTO) ([]domain.ParkingSession, error) {
	return s.sessionRepo.Find(ctx, filter)
}

// --- ParkingRate administration ---

func (s *ParkingService) CreateParkingRate(ctx context.Context, dto domain.ParkingRateDTO) (*domain.ParkingRate, error) {
	if !domain.ValidVehicleClass(dto.VehicleClass) {
		return nil, fmt.Errorf("%w: '%s'", ErrInvalidVehicleClass, dto.VehicleClass)
	}
	rate := &domain.ParkingRate{
		VehicleClass: domain.VehicleClass(dto.VehicleClass),
		BaseRate:     dto.BaseRate,
		HourlyRate:   dto.HourlyRate,
		DailyRate:    dto.DailyRate,
		WeeklyRate:   dto.WeeklyRate,
		IsActive:     true,
	}
	rate.EffectiveFrom = parseEventTime(dto.EffectiveFrom, time.Now().UTC())
	if dto.EffectiveTo != "" {
		to, err := time.Parse(time.RFC3339, dto.EffectiveTo)
		if err != nil {
			return nil, fmt.Errorf("invalid effective_to timestamp: %w", err)
		}
		rate.EffectiveTo.SetValid(to.UTC())
	}
	return s.rateRepo.Create(ctx, rate)
}

func (s *ParkingService) GetParkingRateByID(ctx context.Context, id int) (*domain.ParkingRate, error) {
	return s.rateRepo.FindByID(ctx, id)
}

func (s *ParkingService) GetAllParkingRates(ctx context.Context) ([]domain.ParkingRate, error) {
	return s.rateRepo.FindAll(ctx)
}

func (s *ParkingService) DeactivateParkingRate(ctx context.Context, id int) error {
	return s.rateRepo.Deactivate(ctx, id, time.Now().UTC())
}

// --- Dashboard ---

func (s *ParkingService) GetDashboardData(ctx context.Context) (*domain.DashboardSummary, error) {
	availability, err := s.spaceRepo.Availability(ctx)
	if err != nil {
		return nil, err
	}
	summary := &domain.DashboardSummary{}
	for _, item := range availability {
		summary.TotalSpaces += item.Total
		summary.AvailableSpaces += item.Free
	}
	summary.OccupiedSpaces = summary.TotalSpaces - summary.AvailableSpaces

	now := time.Now().UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	weekStart := dayStart.AddDate(0, 0, -6)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := dayStart.AddDate(0, 0, 1)

	if summary.DailyRevenue, err = s.sessionRepo.RevenueBetween(ctx, dayStart, end); err != nil {
		return nil, err
	}
	if summary.WeeklyRevenue, err = s.sessionRepo.RevenueBetween(ctx, weekStart, end); err != nil {
		return nil, err
	}
	if summary.MonthlyRevenue, err = s.sessionRepo.RevenueBetween(ctx, monthStart, end); err != nil {
		return nil, err
	}
	if summary.VehicleDistribution, err = s.sessionRepo.ActiveDistribution(ctx); err != nil {
		return nil, err
	}
	if summary.RecentActivity, err = s.sessionRepo.RecentActivity(ctx, 10); err != nil {
		return nil, err
	}
	return summary, nil
}
