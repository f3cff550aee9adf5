package repository

import (
	"context"
	"wichty-checkin/internal/model"

	"github.com/stretchr/testify/mock"
)

type CheckinLogRepositoryMock struct {
	mock.Mock
}

func NewCheckinLogRepositoryMock() *CheckinLogRepositoryMock {
	return &CheckinLogRepositoryMock{}
}

func (m *CheckinLogRepositoryMock) Insert(ctx context.Context, notice *model.CheckinNotice) error {
	args := m.Called(ctx, notice)
	return args.Error(0)
}
