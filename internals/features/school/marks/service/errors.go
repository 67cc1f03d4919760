package service

import "errors"

// Error domain di boundary service — controller yang memetakan ke HTTP.
// Jangan pakai fiber.Error di sini; paket ini tidak tahu transport.

var ErrMarksheetNotFound = errors.New("Marksheet not found")

// TransitionError: guard state machine dilanggar
// (mis. approve marksheet yang belum submitted).
type TransitionError struct {
	Action  string // submit | approve | reject | delete | edit
	Status  string // status marksheet saat guard gagal
	Message string
}

func (e *TransitionError) Error() string { return e.Message }

// ValidationError: input salah, ditolak SEBELUM transaksi dibuka.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }
