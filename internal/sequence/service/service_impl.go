package service

import (
	"context"
	"errors"
	"time"

	sequencedomain "github.com/ajyalhq/ajyal/internal/sequence/domain"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	Log   *zap.Logger
	GenID *snowflake.Node
}

type Service struct {
	log   *zap.Logger
	genID *snowflake.Node
}

func NewService(p ServiceParam) sequencedomain.Sequencer {
	return &Service{
		log:   p.Log.Named("sequence.service"),
		genID: p.GenID,
	}
}

// NextNumber increments the bucket counter under the caller's transaction.
// The UPDATE takes a row lock, so concurrent reservations for the same
// bucket serialize on it: numbers come out contiguous with no duplicates,
// and a rolled-back transaction releases its reservation (the resulting
// invoice-number gap is tolerated, a duplicate never is).
func (s *Service) NextNumber(ctx context.Context, tx *gorm.DB, tenantID snowflake.ID, year, month int) (int64, error) {
	if tenantID == 0 || month < 1 || month > 12 {
		return 0, errors.New("invalid_sequence_bucket")
	}

	now := time.Now().UTC()
	if err := tx.WithContext(ctx).Exec(
		`INSERT INTO invoice_sequences (id, tenant_id, year, month, last_value, created_at, updated_at)
		 VALUES (?, ?, ?, ?, 0, ?, ?)
		 ON CONFLICT (tenant_id, year, month) DO NOTHING`,
		s.genID.Generate(),
		tenantID,
		year,
		month,
		now,
		now,
	).Error; err != nil {
		return 0, err
	}

	if err := tx.WithContext(ctx).Exec(
		`UPDATE invoice_sequences
		 SET last_value = last_value + 1, updated_at = ?
		 WHERE tenant_id = ? AND year = ? AND month = ?`,
		now,
		tenantID,
		year,
		month,
	).Error; err != nil {
		return 0, err
	}

	var next int64
	if err := tx.WithContext(ctx).Raw(
		`SELECT last_value
		 FROM invoice_sequences
		 WHERE tenant_id = ? AND year = ? AND month = ?`,
		tenantID,
		year,
		month,
	).Scan(&next).Error; err != nil {
		return 0, err
	}
	if next <= 0 {
		return 0, errors.New("sequence_reservation_failed")
	}
	return next, nil
}
