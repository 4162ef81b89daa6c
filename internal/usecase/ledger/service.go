package ledger

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/finsight/finsight-backend/internal/domain"
	"github.com/finsight/finsight-backend/internal/usecase/vesting"
)

// Service owns the set of equity lots per grant: it materializes vesting
// schedules into lots and records vesting and disposal events.
//
// RecordGrant, ApplyVesting and Realize are the only state-mutating operations
// in the core. They are serialized per user through a keyed mutex so that
// concurrent disposals cannot oversell a lot.
type Service struct {
	GrantRepo       domain.GrantRepository
	LotRepo         domain.LotRepository
	RealizationRepo domain.RealizationRepository

	mu        sync.Mutex
	userLocks map[uuid.UUID]*sync.Mutex
}

// NewService creates a new ledger Service instance.
func NewService(
	grantRepo domain.GrantRepository,
	lotRepo domain.LotRepository,
	realizationRepo domain.RealizationRepository,
) *Service {
	return &Service{
		GrantRepo:       grantRepo,
		LotRepo:         lotRepo,
		RealizationRepo: realizationRepo,
		userLocks:       make(map[uuid.UUID]*sync.Mutex),
	}
}

// userLock returns the mutex guarding one user's lots.
func (s *Service) userLock(userID uuid.UUID) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.userLocks[userID]
	if !ok {
		lock = &sync.Mutex{}
		s.userLocks[userID] = lock
	}
	return lock
}

// RecordGrant stores a grant and materializes its vesting schedule into one
// UNVESTED lot per vesting event. The cost basis per share comes from the
// event's fair market value for RSU grants and from the discounted purchase
// price for ESPP grants.
//
// Idempotent per grant identity: re-invoking with a grant ID that already has
// lots is a no-op and must not duplicate them.
func (s *Service) RecordGrant(ctx context.Context, grant *domain.Grant) error {
	lock := s.userLock(grant.UserID)
	lock.Lock()
	defer lock.Unlock()

	events, err := vesting.Schedule(grant)
	if err != nil {
		return err
	}

	existing, err := s.LotRepo.ListByGrant(ctx, grant.ID)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	if err := s.GrantRepo.Create(ctx, grant); err != nil {
		return err
	}

	for _, event := range events {
		lot := &domain.Lot{
			ID:                uuid.New(),
			GrantID:           grant.ID,
			UserID:            grant.UserID,
			SecurityID:        grant.SecurityID,
			Type:              grant.Type,
			VestDate:          event.Date,
			Shares:            event.Shares,
			SharesRemaining:   event.Shares,
			CostBasisPerShare: event.FMVPerShare,
			Status:            domain.LotStatusUnvested,
		}
		if err := s.LotRepo.Create(ctx, lot); err != nil {
			return err
		}
	}

	return nil
}

// ApplyVesting transitions every UNVESTED lot whose vest date is on or before
// asOf to VESTED. A pure status transition; shares and basis are untouched.
func (s *Service) ApplyVesting(ctx context.Context, asOf time.Time) error {
	lots, err := s.LotRepo.ListUnvestedBefore(ctx, domain.DateOnly(asOf))
	if err != nil {
		return err
	}

	for _, lot := range lots {
		lock := s.userLock(lot.UserID)
		lock.Lock()
		lot.Status = domain.LotStatusVested
		err := s.LotRepo.Update(ctx, lot)
		lock.Unlock()
		if err != nil {
			return err
		}
	}

	return nil
}

// Realize records the disposal of shares from a vested lot at the given sale
// price. It decrements the lot's remaining shares, marks the lot DISPOSED when
// they reach zero, and records a realization event carrying the lot's basis.
//
// Fails with *domain.InsufficientSharesError when the lot has not vested or
// the disposal exceeds the remaining shares; the lot is left unmodified.
func (s *Service) Realize(
	ctx context.Context,
	lotID uuid.UUID,
	shares decimal.Decimal,
	price domain.Money,
	date time.Time,
) (*domain.RealizationEvent, error) {
	if !shares.IsPositive() {
		return nil, errors.New("realized shares must be positive")
	}
	if price.IsNegative() {
		return nil, errors.New("sale price cannot be negative")
	}

	// Resolve the owning user before taking the lock, then re-read the lot
	// under it so the remaining-shares check sees the latest state.
	owner, err := s.LotRepo.GetByID(ctx, lotID)
	if err != nil {
		return nil, err
	}

	lock := s.userLock(owner.UserID)
	lock.Lock()
	defer lock.Unlock()

	lot, err := s.LotRepo.GetByID(ctx, lotID)
	if err != nil {
		return nil, err
	}

	if lot.Status == domain.LotStatusUnvested {
		return nil, &domain.InsufficientSharesError{
			LotID:     lot.ID,
			Requested: shares,
			Available: decimal.Zero,
		}
	}
	if shares.GreaterThan(lot.SharesRemaining) {
		return nil, &domain.InsufficientSharesError{
			LotID:     lot.ID,
			Requested: shares,
			Available: lot.SharesRemaining,
		}
	}

	lot.SharesRemaining = lot.SharesRemaining.Sub(shares)
	if lot.SharesRemaining.IsZero() {
		lot.Status = domain.LotStatusDisposed
	}
	if err := s.LotRepo.Update(ctx, lot); err != nil {
		return nil, err
	}

	event := &domain.RealizationEvent{
		ID:                uuid.New(),
		LotID:             lot.ID,
		UserID:            lot.UserID,
		Type:              lot.Type,
		Date:              domain.DateOnly(date),
		Shares:            shares,
		SalePricePerShare: price,
		CostBasisPerShare: lot.CostBasisPerShare,
	}
	if err := s.RealizationRepo.Create(ctx, event); err != nil {
		return nil, err
	}

	return event, nil
}
