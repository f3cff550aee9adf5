package repository

import (
	"context"
	"time"
	"wichty-checkin/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type TicketRepositoryMock struct {
	mock.Mock
}

func NewTicketRepositoryMock() *TicketRepositoryMock {
	return &TicketRepositoryMock{}
}

func (m *TicketRepositoryMock) FetchByEvent(ctx context.Context, eventID uuid.UUID) ([]model.EventTicketRow, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.EventTicketRow), args.Error(1)
}

func (m *TicketRepositoryMock) CheckInIfValid(ctx context.Context, ticketID uuid.UUID, checkedInAt time.Time) (bool, error) {
	args := m.Called(ctx, ticketID, checkedInAt)
	return args.Bool(0), args.Error(1)
}
