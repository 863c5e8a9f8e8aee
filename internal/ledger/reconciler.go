package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/hongminglow/pw-ledger/internal/apperr"
	"github.com/hongminglow/pw-ledger/internal/models"
	"github.com/hongminglow/pw-ledger/internal/storage"
)

// ErrNoOpenDebt is returned when a payment targets a user without an open cycle.
var ErrNoOpenDebt = &apperr.Error{Kind: apperr.KindNotFound, Message: "User tidak memiliki hutang aktif"}

// PaymentInput is a payment to apply to the user's open cycle.
type PaymentInput struct {
	UserID uuid.UUID
	Amount decimal.Decimal
	PaidAt string
}

// PaymentResult is the reconciled cycle with the recorded payment.
type PaymentResult struct {
	Cycle   models.DebtCycle
	Payment models.Payment
	User    models.User
}

// ApplyPayment records a payment against the user's open cycle and closes the
// cycle once the payments cover its total. Overpayment is rejected.
func (s *Service) ApplyPayment(ctx context.Context, in PaymentInput) (PaymentResult, error) {
	paidAt, err := parseDate(in.PaidAt, s.loc)
	if err != nil {
		return PaymentResult{}, apperr.Validation("paidAt", "Tanggal pembayaran tidak valid")
	}

	var res PaymentResult
	err = s.store.WithinUserTx(ctx, in.UserID, func(tx storage.LedgerTx, user models.User) error {
		cycle, err := tx.OpenCycle(ctx, user.ID)
		if errors.Is(err, storage.ErrNotFound) {
			return ErrNoOpenDebt
		}
		if err != nil {
			return err
		}

		paid, err := tx.SumPayments(ctx, cycle.ID)
		if err != nil {
			return err
		}
		cycle.PaidTotal = paid
		remaining := cycle.Remaining()
		if err := checkAmount(in.Amount); err != nil {
			return err
		}
		if in.Amount.GreaterThan(remaining) {
			return apperr.Validation("amount", fmt.Sprintf("Jumlah melebihi sisa hutang (%s)", FormatRupiah(remaining)))
		}
		if afterToday(paidAt, s.now(), s.loc) {
			return apperr.Validation("paidAt", "Tanggal tidak boleh di masa depan")
		}

		payment, err := tx.AddPayment(ctx, models.Payment{
			UserID:  user.ID,
			CycleID: cycle.ID,
			Amount:  in.Amount,
			PaidAt:  paidAt,
		})
		if err != nil {
			return err
		}
		if cycle.PaidTotal, err = tx.SumPayments(ctx, cycle.ID); err != nil {
			return err
		}
		if cycle.PaidTotal.GreaterThanOrEqual(cycle.Total) {
			closedAt := s.now().UTC()
			cycle.IsPaid = true
			cycle.PaidAt = &closedAt
		}
		if err := tx.SaveCycle(ctx, cycle); err != nil {
			return err
		}
		res = PaymentResult{Cycle: cycle, Payment: payment, User: user}
		return nil
	})
	if err != nil {
		return PaymentResult{}, mapStoreErr(err, "User tidak ditemukan")
	}

	fields := []zap.Field{
		zap.Stringer("user_id", in.UserID),
		zap.Stringer("cycle_id", res.Cycle.ID),
		zap.String("amount", in.Amount.String()),
		zap.String("remaining", res.Cycle.Remaining().String()),
	}
	if res.Cycle.IsPaid {
		s.log.Info("debt cycle paid off", fields...)
	} else {
		s.log.Info("payment recorded", fields...)
	}
	s.changed(ctx)
	return res, nil
}

// DeleteCycle removes a fully paid cycle with its items and payments.
// Open cycles cannot be deleted.
func (s *Service) DeleteCycle(ctx context.Context, cycleID uuid.UUID) error {
	err := s.withCycleLock(ctx, cycleID, func(tx storage.LedgerTx, cycle models.DebtCycle) error {
		if !cycle.IsPaid {
			return apperr.Conflict("Utang ini belum lunas dan tidak dapat dihapus")
		}
		return tx.DeleteCycle(ctx, cycle.ID)
	})
	if err != nil {
		return err
	}
	s.log.Info("debt cycle deleted", zap.Stringer("cycle_id", cycleID))
	s.changed(ctx)
	return nil
}

// DeletePayments removes every payment of a paid cycle and reopens it.
// It refuses when the owner already has another open cycle.
func (s *Service) DeletePayments(ctx context.Context, cycleID uuid.UUID) (models.DebtCycle, error) {
	var reopened models.DebtCycle
	err := s.withCycleLock(ctx, cycleID, func(tx storage.LedgerTx, cycle models.DebtCycle) error {
		if !cycle.IsPaid {
			return apperr.Conflict("Pembayaran hanya dapat dihapus setelah hutang lunas")
		}
		if open, err := tx.OpenCycle(ctx, cycle.UserID); err == nil && open.ID != cycle.ID {
			return apperr.Conflict("User sudah memiliki hutang aktif, pembayaran tidak dapat dihapus")
		} else if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return err
		}
		if _, err := tx.DeletePayments(ctx, cycle.ID); err != nil {
			return err
		}
		cycle.PaidTotal = decimal.Zero
		cycle.IsPaid = false
		cycle.PaidAt = nil
		if err := tx.SaveCycle(ctx, cycle); err != nil {
			return err
		}
		reopened = cycle
		return nil
	})
	if err != nil {
		return models.DebtCycle{}, err
	}
	s.log.Info("payments deleted, cycle reopened", zap.Stringer("cycle_id", cycleID))
	s.changed(ctx)
	return reopened, nil
}

// DeleteUser removes a user and their closed history. Users with an open
// cycle cannot be removed.
func (s *Service) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	err := s.store.WithinUserTx(ctx, userID, func(tx storage.LedgerTx, user models.User) error {
		_, err := tx.OpenCycle(ctx, user.ID)
		switch {
		case err == nil:
			return apperr.Conflict("User masih memiliki hutang yang belum lunas dan tidak dapat dihapus")
		case !errors.Is(err, storage.ErrNotFound):
			return err
		}
		return tx.DeleteUser(ctx, user.ID)
	})
	if err != nil {
		return mapStoreErr(err, "User tidak ditemukan")
	}
	s.log.Info("user deleted", zap.Stringer("user_id", userID))
	s.changed(ctx)
	return nil
}

// withCycleLock resolves the cycle owner, takes the owner's lock and re-reads
// the cycle inside the transaction before calling fn.
func (s *Service) withCycleLock(ctx context.Context, cycleID uuid.UUID, fn func(tx storage.LedgerTx, cycle models.DebtCycle) error) error {
	const notFound = "Data hutang tidak ditemukan"
	cycle, err := s.store.GetCycle(ctx, cycleID)
	if err != nil {
		return mapStoreErr(err, notFound)
	}
	err = s.store.WithinUserTx(ctx, cycle.UserID, func(tx storage.LedgerTx, _ models.User) error {
		current, err := tx.GetCycle(ctx, cycleID)
		if err != nil {
			return err
		}
		return fn(tx, current)
	})
	return mapStoreErr(err, notFound)
}

