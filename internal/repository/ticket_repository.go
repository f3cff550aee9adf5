package repository

import (
	"context"
	"time"
	"wichty-checkin/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TicketRepository interface {
	// 撈出活動的全部票券，連同參加者姓名與票種名稱
	FetchByEvent(ctx context.Context, eventID uuid.UUID) ([]model.EventTicketRow, error)
	// 條件更新：只有遠端狀態仍是 valid 才寫入 used 與驗票時間
	// 回傳 false 表示條件不成立（已被別台裝置驗過或已取消），不算錯誤
	CheckInIfValid(ctx context.Context, ticketID uuid.UUID, checkedInAt time.Time) (bool, error)
}

type TicketRepositoryImpl struct {
	pool *pgxpool.Pool
}

func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &TicketRepositoryImpl{
		pool: pool,
	}
}

func (r *TicketRepositoryImpl) FetchByEvent(ctx context.Context, eventID uuid.UUID) ([]model.EventTicketRow, error) {
	query := `
		SELECT t.id, t.code, t.status, t.checked_in_at,
				p.full_name AS holder_name,
				c.name AS category_name
		FROM tickets t
		LEFT JOIN participants p ON p.id = t.participant_id
		LEFT JOIN ticket_categories c ON c.id = t.category_id
		WHERE t.event_id = $1
		ORDER BY t.created_at ASC
	`

	rows, err := r.pool.Query(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tickets := make([]model.EventTicketRow, 0)

	for rows.Next() {
		var row model.EventTicketRow
		err := rows.Scan(
			&row.TicketID,
			&row.Code,
			&row.Status,
			&row.CheckedInAt,
			&row.HolderName,
			&row.CategoryName,
		)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, row)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return tickets, nil
}

func (r *TicketRepositoryImpl) CheckInIfValid(ctx context.Context, ticketID uuid.UUID, checkedInAt time.Time) (bool, error) {
	query := `
		UPDATE tickets
		SET status = $1, checked_in_at = $2, updated_at = $3
		WHERE id = $4 AND status = $5
	`

	result, err := r.pool.Exec(ctx, query,
		model.TicketStatusUsed, checkedInAt, time.Now().UTC(),
		ticketID, model.TicketStatusValid,
	)
	if err != nil {
		return false, err
	}

	// RowsAffected == 0 表示遠端狀態已不是 valid，放棄寫入
	return result.RowsAffected() > 0, nil
}
