// Package auth handles administrator accounts and their API tokens.
package auth

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"rollcall/internal/apperr"
	"rollcall/internal/model"
	"rollcall/internal/store"
)

// DefaultAdminName is shown when an account has no name.
const DefaultAdminName = "Admin"

// Session is a logged-in administrator.
type Session struct {
	AdminName string    `json:"adminName"`
	Username  string    `json:"username"`
	Tokens    TokenPair `json:"tokens"`
}

// Service signs administrators up and in.
type Service struct {
	store  store.Store
	issuer *Issuer
	logger *zap.Logger
	cost   int
}

// NewService builds the admin account service.
func NewService(s store.Store, iss *Issuer, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: s, issuer: iss, logger: logger, cost: bcrypt.DefaultCost}
}

// SignUp creates an admin account with a bcrypt password hash.
func (s *Service) SignUp(ctx context.Context, name, username, password, confirm string) (model.Admin, error) {
	if strings.TrimSpace(name) == "" || strings.TrimSpace(username) == "" || password == "" || confirm == "" {
		return model.Admin{}, apperr.Validation("Please fill in all fields.")
	}
	if password != confirm {
		return model.Admin{}, apperr.Validation("Passwords don't match, try again")
	}

	existing, err := s.store.Query(ctx, store.CollectionAdmin, store.Eq("username", username))
	if err != nil {
		return model.Admin{}, apperr.Store("signing up", err)
	}
	if len(existing) > 0 {
		return model.Admin{}, apperr.Validation("Username is already taken.")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return model.Admin{}, apperr.Wrap(apperr.KindValidation, "Password is too long.", err)
	}
	admin := model.Admin{Name: name, Username: username, PasswordHash: string(hash)}
	id, err := s.store.Create(ctx, store.CollectionAdmin, admin.Fields())
	if err != nil {
		s.logger.Error("admin signup failed", zap.String("username", username), zap.Error(err))
		return model.Admin{}, apperr.Store("signing up", err)
	}
	admin.ID = id
	s.logger.Info("admin signed up", zap.String("id", id), zap.String("username", username))
	return admin, nil
}

// Login checks the password and issues tokens.
func (s *Service) Login(ctx context.Context, username, password string) (Session, error) {
	if username == "" || password == "" {
		return Session{}, apperr.Validation("Please enter both username and password.")
	}
	docs, err := s.store.Query(ctx, store.CollectionAdmin, store.Eq("username", username))
	if err != nil {
		return Session{}, apperr.Store("trying to log in", err)
	}
	for _, doc := range docs {
		admin, err := model.AdminFromDocument(doc)
		if err != nil {
			continue
		}
		if bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)) != nil {
			continue
		}
		return s.session(admin)
	}
	s.logger.Warn("admin login rejected", zap.String("username", username))
	return Session{}, apperr.Unauthorized("Username or password is incorrect.")
}

// Refresh trades a refresh token for a new pair.
func (s *Service) Refresh(refreshToken string) (Session, error) {
	claims, err := s.issuer.Parse(refreshToken, UseRefresh)
	if err != nil {
		return Session{}, apperr.Wrap(apperr.KindUnauthorized, "Your session has expired. Please log in again.", err)
	}
	return s.session(model.Admin{ID: claims.Subject, Name: claims.Name, Username: claims.Username})
}

func (s *Service) session(admin model.Admin) (Session, error) {
	name := admin.Name
	if name == "" {
		name = DefaultAdminName
	}
	tokens, err := s.issuer.Issue(admin.ID, RoleAdmin, name, admin.Username)
	if err != nil {
		return Session{}, apperr.Wrap(apperr.KindUnauthorized, "token issue failed", err)
	}
	return Session{AdminName: name, Username: admin.Username, Tokens: tokens}, nil
}
