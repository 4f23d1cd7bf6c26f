// Package enrollment registers students behind a local biometric check.
package enrollment

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"rollcall/internal/apperr"
	"rollcall/internal/authenticator"
	"rollcall/internal/identifier"
	"rollcall/internal/metrics"
	"rollcall/internal/model"
	"rollcall/internal/store"
)

const prompt = "Authenticate with fingerprint"

// Result is the stored identity plus the plaintext identifier, which is
// returned exactly once and never persisted.
type Result struct {
	Student    model.StudentIdentity `json:"student"`
	Identifier string                `json:"uniqueIdentifier"`
}

// Service creates student identities.
type Service struct {
	store    store.Store
	logger   *zap.Logger
	metrics  metrics.Recorder
	generate func() (string, error)
}

// NewService builds an enrollment service. logger and rec may be nil.
func NewService(s store.Store, logger *zap.Logger, rec metrics.Recorder) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &Service{store: s, logger: logger, metrics: rec, generate: identifier.Generate}
}

// Enroll validates the form, runs the device check, then stores the identity.
func (s *Service) Enroll(ctx context.Context, name, matricule string, auth authenticator.Authenticator) (Result, error) {
	res, err := s.enroll(ctx, name, matricule, auth)
	s.metrics.RecordEnrollment(err == nil)
	return res, err
}

func (s *Service) enroll(ctx context.Context, name, matricule string, auth authenticator.Authenticator) (Result, error) {
	if strings.TrimSpace(name) == "" || strings.TrimSpace(matricule) == "" {
		return Result{}, apperr.Validation("Please fill in all fields")
	}

	hasHardware, err := auth.HasCapability(ctx)
	if err != nil {
		return Result{}, apperr.Wrap(apperr.KindAuthFailed, "An error occurred during fingerprint registration.", err)
	}
	enrolled, err := auth.IsEnrolled(ctx)
	if err != nil {
		return Result{}, apperr.Wrap(apperr.KindAuthFailed, "An error occurred during fingerprint registration.", err)
	}
	if !hasHardware || !enrolled {
		return Result{}, apperr.AuthFailed("Your device does not support fingerprint authentication.")
	}
	outcome, err := auth.Authenticate(ctx, prompt)
	if err != nil {
		return Result{}, apperr.Wrap(apperr.KindAuthFailed, "An error occurred during fingerprint registration.", err)
	}
	if !outcome.Success {
		return Result{}, apperr.AuthFailed("Fingerprint registration failed. Please try again.")
	}

	plain, err := s.generate()
	if err != nil {
		return Result{}, apperr.Wrap(apperr.KindStoreUnavailable, "Failed to register student", err)
	}
	student := model.StudentIdentity{
		Name:                  name,
		Matricule:             matricule,
		IdentifierHash:        identifier.Hash(plain),
		FingerprintRegistered: true,
	}
	id, err := s.store.Create(ctx, store.CollectionStudents, student.Fields())
	if err != nil {
		s.logger.Error("register student failed", zap.String("matricule", matricule), zap.Error(err))
		return Result{}, apperr.Wrap(apperr.KindStoreUnavailable, "Failed to register student", err)
	}
	student.ID = id
	s.logger.Info("student registered", zap.String("id", id), zap.String("matricule", matricule))
	return Result{Student: student, Identifier: plain}, nil
}
