package service

import (
	"context"
	"errors"
	"os"
	"time"

	"budgetdesk/internal/authz"
	"budgetdesk/internal/model"
	"budgetdesk/internal/repository"
	"budgetdesk/pkg/apperr"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// --- DTOs ---

type RegisterRequest struct {
	Email      string `json:"email" binding:"required,email"`
	Password   string `json:"password" binding:"required,min=6"`
	FullName   string `json:"full_name" binding:"required"`
	Department string `json:"department"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type UpdateProfileRequest struct {
	FullName   string `json:"full_name"`
	Department string `json:"department"`
	Password   string `json:"password" binding:"omitempty,min=6"`
}

type TokenResponse struct {
	Token        string        `json:"token"`
	RefreshToken string        `json:"refresh_token"`
	User         *UserResponse `json:"user"`
}

// UserResponse hides credentials and normalizes timestamps for the client.
type UserResponse struct {
	ID         uuid.UUID        `json:"id"`
	Email      string           `json:"email"`
	FullName   string           `json:"full_name"`
	Department string           `json:"department"`
	Role       model.SystemRole `json:"role"`
	IsActive   bool             `json:"is_active"`
	CreatedAt  string           `json:"created_at"`
	UpdatedAt  string           `json:"updated_at"`
}

func toUserResponse(user *model.User) *UserResponse {
	return &UserResponse{
		ID:         user.ID,
		Email:      user.Email,
		FullName:   user.FullName,
		Department: user.Department,
		Role:       user.Role,
		IsActive:   user.IsActive,
		CreatedAt:  user.CreatedAt.Format(time.RFC3339),
		UpdatedAt:  user.UpdatedAt.Format(time.RFC3339),
	}
}

// --- Interface ---

type AuthService interface {
	Register(ctx context.Context, req RegisterRequest) (*TokenResponse, error)
	Login(ctx context.Context, req LoginRequest) (*TokenResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error)
	Logout(ctx context.Context, refreshToken string) error
	GetProfile(ctx context.Context, ident authz.Identity, id uuid.UUID) (*UserResponse, error)
	UpdateProfile(ctx context.Context, ident authz.Identity, id uuid.UUID, req UpdateProfileRequest) (*UserResponse, error)
}

type authService struct {
	userRepo  repository.UserRepository
	txManager repository.TransactionManager
}

func NewAuthService(userRepo repository.UserRepository, txManager repository.TransactionManager) AuthService {
	return &authService{userRepo: userRepo, txManager: txManager}
}

// --- Implementation ---

func (s *authService) Register(ctx context.Context, req RegisterRequest) (*TokenResponse, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	user := &model.User{
		Email:      req.Email,
		Password:   string(hashedPassword),
		FullName:   req.FullName,
		Department: req.Department,
		Role:       model.SystemRoleUser, // elevation only through admin user management
		IsActive:   true,
	}

	// Check-then-insert runs in one transaction; the unique index on email is
	// the actual race guard.
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if _, lookupErr := s.userRepo.GetByEmail(txCtx, req.Email); lookupErr == nil {
			return apperr.Conflict("email already registered")
		} else if !errors.Is(lookupErr, gorm.ErrRecordNotFound) {
			return apperr.Internal(lookupErr)
		}
		if createErr := s.userRepo.Create(txCtx, user); createErr != nil {
			return apperr.Internal(createErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.issueTokens(ctx, user)
}

func (s *authService) Login(ctx context.Context, req LoginRequest) (*TokenResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, apperr.Unauthenticated("invalid email or password")
	}
	if !user.IsActive {
		return nil, apperr.Unauthenticated("account is deactivated")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, apperr.Unauthenticated("invalid email or password")
	}

	return s.issueTokens(ctx, user)
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	if refreshToken == "" {
		return nil, apperr.Unauthenticated("refresh token is missing")
	}

	stored, err := s.userRepo.GetRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, apperr.Unauthenticated("invalid refresh token")
	}
	if time.Now().After(stored.ExpiresAt) {
		_ = s.userRepo.DeleteRefreshToken(ctx, refreshToken)
		return nil, apperr.Unauthenticated("refresh token expired")
	}

	user, err := s.userRepo.GetByID(ctx, stored.UserID)
	if err != nil {
		return nil, apperr.Unauthenticated("user no longer exists")
	}
	if !user.IsActive {
		return nil, apperr.Unauthenticated("account is deactivated")
	}

	// Rotate: the old refresh token is single-use.
	if err := s.userRepo.DeleteRefreshToken(ctx, refreshToken); err != nil {
		return nil, apperr.Internal(err)
	}

	return s.issueTokens(ctx, user)
}

func (s *authService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	if err := s.userRepo.DeleteRefreshToken(ctx, refreshToken); err != nil {
		return apperr.Internal(err)
	}
	return nil
}

func (s *authService) GetProfile(ctx context.Context, ident authz.Identity, id uuid.UUID) (*UserResponse, error) {
	if ident.ID != id && !ident.IsSystemAdmin() {
		return nil, apperr.Forbidden("cannot view another user's profile")
	}

	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, apperr.Internal(err)
	}
	return toUserResponse(user), nil
}

func (s *authService) UpdateProfile(ctx context.Context, ident authz.Identity, id uuid.UUID, req UpdateProfileRequest) (*UserResponse, error) {
	if ident.ID != id && !ident.IsSystemAdmin() {
		return nil, apperr.Forbidden("cannot edit another user's profile")
	}

	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, apperr.Internal(err)
	}

	if req.FullName != "" {
		user.FullName = req.FullName
	}
	if req.Department != "" {
		user.Department = req.Department
	}
	if req.Password != "" {
		hashed, hashErr := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if hashErr != nil {
			return nil, apperr.Internal(hashErr)
		}
		user.Password = string(hashed)
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, apperr.Internal(err)
	}
	return toUserResponse(user), nil
}

// issueTokens signs a 24h access token and persists a 7-day refresh token.
func (s *authService) issueTokens(ctx context.Context, user *model.User) (*TokenResponse, error) {
	claims := jwt.MapClaims{
		"sub": user.ID.String(),
		"exp": time.Now().Add(24 * time.Hour).Unix(),
		"iat": time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "default_super_secret_key"
	}
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return nil, apperr.Internal(err)
	}

	refresh := &model.RefreshToken{
		UserID:    user.ID,
		Token:     uuid.NewString(),
		ExpiresAt: time.Now().Add(7 * 24 * time.Hour),
	}
	if err := s.userRepo.CreateRefreshToken(ctx, refresh); err != nil {
		return nil, apperr.Internal(err)
	}

	return &TokenResponse{
		Token:        signed,
		RefreshToken: refresh.Token,
		User:         toUserResponse(user),
	}, nil
}
