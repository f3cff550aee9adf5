package repository

import (
	"context"
	"time"
	"wichty-checkin/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
)

type CheckinLogRepository interface {
	// 寫入一筆驗票稽核紀錄
	Insert(ctx context.Context, notice *model.CheckinNotice) error
}

type CheckinLogRepositoryImpl struct {
	pool *pgxpool.Pool
}

func NewCheckinLogRepository(pool *pgxpool.Pool) CheckinLogRepository {
	return &CheckinLogRepositoryImpl{
		pool: pool,
	}
}

func (r *CheckinLogRepositoryImpl) Insert(ctx context.Context, notice *model.CheckinNotice) error {
	query := `
		INSERT INTO checkin_logs (
		ticket_id, event_id, code, holder_name, category_name, checked_in_at, source, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.pool.Exec(ctx, query,
		notice.TicketID,
		notice.EventID,
		notice.Code,
		notice.HolderName,
		notice.CategoryName,
		notice.CheckedInAt,
		notice.Source,
		time.Now().UTC(),
	)

	return err
}
