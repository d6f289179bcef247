// internal/domain/member/service.go
package member

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/your-org/bookstore-backend/internal/config"
	"github.com/your-org/bookstore-backend/internal/pkg/auth"
	"gorm.io/gorm"
)

// ErrInvalidCredentials covers both unknown email and wrong password so the
// response does not reveal which accounts exist
var ErrInvalidCredentials = errors.New("invalid email or password")

// Service handles member account business logic
type Service struct {
	db         *gorm.DB
	config     *config.Config
	jwtManager *auth.JWTManager
	passwords  *auth.PasswordManager
}

// NewService creates a new member service
func NewService(db *gorm.DB, cfg *config.Config) *Service {
	return &Service{
		db:         db,
		config:     cfg,
		jwtManager: auth.NewJWTManager(cfg),
		passwords:  auth.NewPasswordManager(cfg),
	}
}

// RegisterRequest represents member registration data
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Name     string `json:"name" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
}

// LoginRequest represents member login data
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse represents a successful authentication
type AuthResponse struct {
	Member      *Member `json:"member"`
	AccessToken string  `json:"access_token"`
}

// Register creates a new member account
func (s *Service) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	var existing Member
	err := s.db.WithContext(ctx).Where("email = ?", req.Email).First(&existing).Error
	if err == nil {
		return nil, fmt.Errorf("an account with this email already exists")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check existing member: %w", err)
	}

	hash, err := s.passwords.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	m := &Member{
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: hash,
		IsActive:     true,
		JoinedAt:     time.Now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(m).Error; err != nil {
		return nil, fmt.Errorf("failed to create member: %w", err)
	}

	return s.issueToken(m)
}

// Login authenticates a member and issues an access token
func (s *Service) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	var m Member
	err := s.db.WithContext(ctx).Where("email = ? AND is_active = ?", req.Email, true).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to retrieve member: %w", err)
	}

	if err := s.passwords.VerifyPassword(req.Password, m.PasswordHash); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.issueToken(&m)
}

// GetMember retrieves a member by ID
func (s *Service) GetMember(ctx context.Context, id uint) (*Member, error) {
	var m Member
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("member not found")
		}
		return nil, fmt.Errorf("failed to retrieve member: %w", err)
	}
	return &m, nil
}

func (s *Service) issueToken(m *Member) (*AuthResponse, error) {
	token, err := s.jwtManager.GenerateAccessToken(m.ID, m.Email, m.IsStaff)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}
	return &AuthResponse{Member: m, AccessToken: token}, nil
}
