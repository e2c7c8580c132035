// Package menu is the interactive text front end of the ledger.
package menu

import (
	"time"

	"budget/internal/services"
)

// Session is the state carried between menu actions: the service holding
// the current ledger and the target used by the last load.
type Session struct {
	Service       *services.LedgerService
	CurrentTarget string
	// TargetLabel names the save/load target in prompts.
	TargetLabel string
	Now         func() time.Time
}

// NewSession starts with the service's default target.
func NewSession(svc *services.LedgerService, targetLabel string) *Session {
	if targetLabel == "" {
		targetLabel = "Filename"
	}
	return &Session{
		Service:       svc,
		CurrentTarget: svc.DefaultTarget(),
		TargetLabel:   targetLabel,
		Now:           time.Now,
	}
}
