package audit

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// Actions recorded by the transaction engine
const (
	ActionTopUp    = "TOPUP"
	ActionTransfer = "TRANSFER"
	ActionWithdraw = "WITHDRAW"
)

// Entry is one audit record of a money movement outcome
type Entry struct {
	Action      string     `json:"action"`
	Success     bool       `json:"success"`
	IPAddress   string     `json:"ip_address,omitempty"`
	UserID      *uuid.UUID `json:"user_id,omitempty"`
	ReferenceID *uuid.UUID `json:"reference_id,omitempty"`
	Details     string     `json:"details,omitempty"`
}

// Recorder persists audit entries. Recording happens synchronously before a
// request is considered finished so failures stay observable.
type Recorder interface {
	Record(ctx context.Context, e Entry) error
}

// Multi fans one entry out to several recorders and reports every failure
type Multi []Recorder

func (m Multi) Record(ctx context.Context, e Entry) error {
	var errs []error
	for _, r := range m {
		if err := r.Record(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Nop discards entries. Handy in tests.
type Nop struct{}

func (Nop) Record(ctx context.Context, e Entry) error { return nil }
