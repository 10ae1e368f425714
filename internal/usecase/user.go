package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	uuid "github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arklim/social-platform-commerce/internal/core/domain"
	"github.com/arklim/social-platform-commerce/internal/core/port"
)

// UserService handles profile reads and updates.
type UserService struct {
	users          port.UserRepository
	securityEvents port.SecurityEventRepository
	logger         *zap.Logger
}

// NewUserService constructs UserService.
func NewUserService(users port.UserRepository, securityEvents port.SecurityEventRepository, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{users: users, securityEvents: securityEvents, logger: logger}
}

// GetProfile returns the account without its password hash.
func (s *UserService) GetProfile(ctx context.Context, userID string) (*domain.User, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id is required")
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	sanitized := *user
	sanitized.PasswordHash = ""
	return &sanitized, nil
}

// ProfileUpdateInput carries the editable profile fields.
type ProfileUpdateInput struct {
	FirstName        string
	LastName         string
	Phone            string
	MarketingConsent *bool
	IP               string
	UserAgent        string
}

// UpdateProfile applies the edit and appends a profile_updated audit event.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, input ProfileUpdateInput) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	if name := strings.TrimSpace(input.FirstName); name != "" {
		user.FirstName = name
	}
	if name := strings.TrimSpace(input.LastName); name != "" {
		user.LastName = name
	}
	if phone := strings.TrimSpace(input.Phone); phone != "" {
		user.Phone = &phone
	}
	if input.MarketingConsent != nil {
		user.MarketingConsent = *input.MarketingConsent
	}

	if err := s.users.UpdateProfile(ctx, *user); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}

	if s.securityEvents != nil {
		event := domain.SecurityEvent{
			ID:        uuid.NewString(),
			UserID:    userID,
			EventType: domain.SecurityEventProfileUpdated,
			IP:        optionalString(input.IP),
			UserAgent: optionalString(input.UserAgent),
			CreatedAt: time.Now().UTC(),
		}
		if err := s.securityEvents.Create(ctx, event); err != nil {
			s.logger.Warn("record security event failed", zap.String("user_id", userID), zap.Error(err))
		}
	}

	sanitized := *user
	sanitized.PasswordHash = ""
	return &sanitized, nil
}

// ListSecurityEvents returns the most recent audit entries for the account.
func (s *UserService) ListSecurityEvents(ctx context.Context, userID string, limit int) ([]domain.SecurityEvent, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id is required")
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	events, err := s.securityEvents.ListForUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list security events: %w", err)
	}
	return events, nil
}
