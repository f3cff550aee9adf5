package apperrors

import "errors"

var (
	ErrTicketNotFoundOffline  = errors.New("ticket not found in offline snapshot")
	ErrTicketAlreadyUsed      = errors.New("ticket already used")
	ErrTicketCancelled        = errors.New("ticket cancelled")
	ErrNoSnapshot             = errors.New("no offline snapshot downloaded")
	ErrSnapshotDownloadFailed = errors.New("snapshot download failed")
	ErrInvalidInput           = errors.New("invalid input")
	ErrInternalServerError    = errors.New("internal server error")
)
