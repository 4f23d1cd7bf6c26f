// Package attendance implements the intake of one attendance attempt against
// a live session.
package attendance

import (
	"context"
	"time"

	"go.uber.org/zap"

	"rollcall/internal/apperr"
	"rollcall/internal/authenticator"
	"rollcall/internal/clock"
	"rollcall/internal/identifier"
	"rollcall/internal/metrics"
	"rollcall/internal/model"
)

// State is a step of an intake attempt.
type State string

const (
	StateAwaitingIdentifier State = "awaiting_identifier"
	StateAuthenticating     State = "authenticating"
	StateResolving          State = "resolving"
	StateCheckingDuplicate  State = "checking_duplicate"
	StateRecording          State = "recording"
	StateSucceeded          State = "succeeded"
	StateRejected           State = "rejected"
	StateFailed             State = "failed"
)

// Terminal reports whether no further transition follows s.
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateRejected || s == StateFailed
}

const prompt = "Authenticate with fingerprint"

// Attempt is one student's submission. Session is the snapshot taken when the
// session was opened; Clock, when set, gates the attempt.
type Attempt struct {
	Session    model.Session
	Identifier string
	Clock      *clock.Clock
}

// Outcome is the terminal state of an attempt and the path it took.
type Outcome struct {
	State  State                  `json:"state"`
	Trace  []State                `json:"trace"`
	Record model.AttendanceRecord `json:"record"`
}

// Service coordinates authentication, identity resolution and deduplication.
type Service struct {
	repo    *Repository
	guard   Guard
	logger  *zap.Logger
	metrics metrics.Recorder
	now     func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithGuard adds a day-level claim after the exact-minute duplicate check.
func WithGuard(g Guard) Option { return func(s *Service) { s.guard = g } }

// WithClock overrides the wall clock used for record timestamps.
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

func WithLogger(l *zap.Logger) Option { return func(s *Service) { s.logger = l } }

func WithMetrics(r metrics.Recorder) Option { return func(s *Service) { s.metrics = r } }

// NewService creates a service backed by a repository.
func NewService(repo *Repository, opts ...Option) *Service {
	s := &Service{repo: repo, logger: zap.NewNop(), metrics: metrics.Nop{}, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// run tracks the state machine of one attempt.
type run struct {
	trace []State
}

func (r *run) enter(s State) { r.trace = append(r.trace, s) }

func (r *run) state() State { return r.trace[len(r.trace)-1] }

// Take runs one attempt to a terminal state. A nil error means a record was
// written; otherwise the error's kind says why not.
func (s *Service) Take(ctx context.Context, a Attempt, auth authenticator.Authenticator) (Outcome, error) {
	r := &run{}
	r.enter(StateAwaitingIdentifier)
	rec, err := s.take(ctx, r, a, auth)
	out := Outcome{State: r.state(), Trace: r.trace, Record: rec}
	s.finish(a, out, err)
	return out, err
}

func (s *Service) take(ctx context.Context, r *run, a Attempt, auth authenticator.Authenticator) (model.AttendanceRecord, error) {
	if a.Clock != nil && a.Clock.IsEnded() {
		r.enter(StateRejected)
		return model.AttendanceRecord{}, apperr.SessionEnded(a.Session.CourseName)
	}

	r.enter(StateAuthenticating)
	res, err := auth.Authenticate(ctx, prompt)
	if err != nil {
		r.enter(StateFailed)
		return model.AttendanceRecord{}, apperr.Wrap(apperr.KindAuthFailed, "An error occurred during fingerprint authentication.", err)
	}
	if !res.Success {
		r.enter(StateRejected)
		return model.AttendanceRecord{}, apperr.AuthFailed("Fingerprint authentication failed. Please try again.")
	}

	r.enter(StateResolving)
	student, err := s.resolve(ctx, a.Identifier)
	if err != nil {
		r.enter(failState(err))
		return model.AttendanceRecord{}, err
	}

	r.enter(StateCheckingDuplicate)
	rec := model.AttendanceRecord{
		StudentName: student.Name,
		Matricule:   student.Matricule,
		CourseCode:  a.Session.CourseCode,
		CourseName:  a.Session.CourseName,
		Day:         a.Session.Day,
		Time:        a.Session.Time,
		Date:        model.FormatTimestamp(s.now()),
	}
	dup, err := s.repo.HasRecord(ctx, rec.StudentName, rec.CourseCode, rec.Date)
	if err != nil {
		r.enter(StateFailed)
		return model.AttendanceRecord{}, apperr.Store("checking attendance", err)
	}
	if dup {
		r.enter(StateRejected)
		return model.AttendanceRecord{}, apperr.Duplicate(rec.StudentName)
	}
	if s.guard != nil {
		ok, err := s.guard.Claim(ctx, DayKey(rec))
		if err != nil {
			r.enter(StateFailed)
			return model.AttendanceRecord{}, apperr.Store("checking attendance", err)
		}
		if !ok {
			r.enter(StateRejected)
			return model.AttendanceRecord{}, apperr.Duplicate(rec.StudentName)
		}
	}

	r.enter(StateRecording)
	saved, err := s.repo.InsertRecord(ctx, rec)
	if err != nil {
		if s.guard != nil {
			if rerr := s.guard.Release(ctx, DayKey(rec)); rerr != nil {
				s.logger.Warn("release dedup claim failed", zap.String("key", DayKey(rec)), zap.Error(rerr))
			}
		}
		r.enter(StateFailed)
		return model.AttendanceRecord{}, apperr.Store("recording attendance", err)
	}
	r.enter(StateSucceeded)
	return saved, nil
}

// resolve hashes the presented identifier and scans every student for the
// first matching hash.
func (s *Service) resolve(ctx context.Context, presented string) (model.StudentIdentity, error) {
	students, skipped, err := s.repo.Students(ctx)
	if err != nil {
		return model.StudentIdentity{}, apperr.Store("fetching students", err)
	}
	if skipped > 0 {
		s.logger.Warn("malformed student documents skipped", zap.Int("count", skipped))
	}
	want := identifier.Hash(presented)
	for _, st := range students {
		if st.IdentifierHash == want {
			return st, nil
		}
	}
	return model.StudentIdentity{}, apperr.IdentifierMismatch()
}

func failState(err error) State {
	if apperr.KindOf(err) == apperr.KindStoreUnavailable {
		return StateFailed
	}
	return StateRejected
}

func (s *Service) finish(a Attempt, out Outcome, err error) {
	s.metrics.RecordIntake(string(out.State))
	fields := []zap.Field{
		zap.String("state", string(out.State)),
		zap.String("course_code", a.Session.CourseCode),
	}
	if err == nil {
		s.logger.Info("attendance recorded", append(fields,
			zap.String("matricule", out.Record.Matricule),
			zap.String("date", out.Record.Date))...)
		return
	}
	s.logger.Warn("attendance not recorded", append(fields,
		zap.String("kind", string(apperr.KindOf(err))),
		zap.Error(err))...)
}
