package services

import (
	"context"
	"wichty-checkin/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type CheckinServiceMock struct {
	mock.Mock
}

func NewCheckinServiceMock() *CheckinServiceMock {
	return &CheckinServiceMock{}
}

func (m *CheckinServiceMock) DownloadSnapshot(ctx context.Context, eventID uuid.UUID, lang string) (*model.DownloadResult, error) {
	args := m.Called(ctx, eventID, lang)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DownloadResult), args.Error(1)
}

func (m *CheckinServiceMock) CheckIn(code string) (*model.CheckinReceipt, error) {
	args := m.Called(code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CheckinReceipt), args.Error(1)
}

func (m *CheckinServiceMock) Sync(ctx context.Context) (*model.SyncSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SyncSummary), args.Error(1)
}

func (m *CheckinServiceMock) Clear(eventID uuid.UUID) error {
	args := m.Called(eventID)
	return args.Error(0)
}

func (m *CheckinServiceMock) Status() model.OfflineStatus {
	args := m.Called()
	return args.Get(0).(model.OfflineStatus)
}

func (m *CheckinServiceMock) RecordNotice(ctx context.Context, notice *model.CheckinNotice) error {
	args := m.Called(ctx, notice)
	return args.Error(0)
}

func (m *CheckinServiceMock) StartAutoSync(ctx context.Context) {
	m.Called(ctx)
}
