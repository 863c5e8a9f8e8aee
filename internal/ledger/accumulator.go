package ledger

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/hongminglow/pw-ledger/internal/apperr"
	"github.com/hongminglow/pw-ledger/internal/models"
	"github.com/hongminglow/pw-ledger/internal/storage"
)

// DebtInput is one debt entry to append to a user's open cycle.
type DebtInput struct {
	UserID uuid.UUID
	Amount decimal.Decimal
	Date   string
	Note   *string
}

// DebtResult is the cycle after the append and the item that was created.
type DebtResult struct {
	Cycle models.DebtCycle
	Item  models.DebtItem
}

// AddDebt appends a debt item to the user's open cycle, opening a new cycle
// when the user has none. The cycle total is recomputed from its items.
func (s *Service) AddDebt(ctx context.Context, in DebtInput) (DebtResult, error) {
	if err := checkAmount(in.Amount); err != nil {
		return DebtResult{}, err
	}
	date, err := parseDate(in.Date, s.loc)
	if err != nil {
		return DebtResult{}, apperr.Validation("date", "Tanggal tidak valid")
	}
	if afterToday(date, s.now(), s.loc) {
		return DebtResult{}, apperr.Validation("date", "Tanggal tidak boleh di masa depan")
	}
	note := normalizeNote(in.Note)

	var res DebtResult
	err = s.store.WithinUserTx(ctx, in.UserID, func(tx storage.LedgerTx, user models.User) error {
		cycle, err := tx.OpenCycle(ctx, user.ID)
		switch {
		case errors.Is(err, storage.ErrNotFound):
			cycle, err = tx.CreateCycle(ctx, models.DebtCycle{
				UserID:    user.ID,
				Total:     decimal.Zero,
				PaidTotal: decimal.Zero,
			})
			if err != nil {
				return err
			}
			s.log.Info("debt cycle opened", zap.Stringer("user_id", user.ID), zap.Stringer("cycle_id", cycle.ID))
		case err != nil:
			return err
		}

		item, err := tx.AddItem(ctx, models.DebtItem{
			CycleID: cycle.ID,
			Amount:  in.Amount,
			Note:    note,
			Date:    dateOnly(date),
		})
		if err != nil {
			return err
		}
		total, err := tx.SumItems(ctx, cycle.ID)
		if err != nil {
			return err
		}
		if total.GreaterThanOrEqual(maxAmount) {
			return apperr.Validation("amount", "Total hutang melebihi batas")
		}
		cycle.Total = total
		if err := tx.SaveCycle(ctx, cycle); err != nil {
			return err
		}
		res = DebtResult{Cycle: cycle, Item: item}
		return nil
	})
	if err != nil {
		return DebtResult{}, mapStoreErr(err, "User tidak ditemukan")
	}

	s.log.Info("debt recorded",
		zap.Stringer("user_id", in.UserID),
		zap.Stringer("cycle_id", res.Cycle.ID),
		zap.String("amount", in.Amount.String()),
		zap.String("total", res.Cycle.Total.String()))
	s.changed(ctx)
	return res, nil
}

func normalizeNote(note *string) *string {
	if note == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*note)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
