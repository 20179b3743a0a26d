package service

import (
	"context"
	"fmt"
	"time"

	"github.com/SanduniLK/MediLink/internal/models"
	"github.com/SanduniLK/MediLink/internal/store"
	"github.com/SanduniLK/MediLink/pkg/utils"
	"github.com/google/uuid"
)

type AuthService struct {
	store store.DocumentStore
}

func NewAuthService(st store.DocumentStore) *AuthService {
	return &AuthService{store: st}
}

// LoginResponse represents the response structure for login
type LoginResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	User         UserResponse `json:"user"`
}

type UserResponse struct {
	ID       string `json:"id"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

func (s *AuthService) findUserByEmail(ctx context.Context, email string) (*models.User, error) {
	docs, err := s.store.QueryDocuments(ctx, models.CollectionUsers, []store.Filter{
		store.Eq("email", email),
	}, "")
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, store.ErrNotFound
	}
	var user models.User
	if err := store.Decode(docs[0], &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Register creates a new user account
func (s *AuthService) Register(ctx context.Context, fullName, email, password, role, phone string) (*LoginResponse, error) {
	if role != models.RolePatient && role != models.RoleDoctor && role != models.RoleAdmin {
		return nil, fmt.Errorf("%w: unknown role %q", ErrValidation, role)
	}
	if existing, err := s.findUserByEmail(ctx, email); err == nil && existing != nil {
		return nil, fmt.Errorf("%w: %s", ErrUserExists, email)
	}

	passwordHash, err := utils.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		ID:           uuid.NewString(),
		FullName:     fullName,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
		Phone:        phone,
		CreatedAt:    time.Now(),
	}
	fields, err := store.Fields(user)
	if err != nil {
		return nil, err
	}
	if err := s.store.SetDocument(ctx, models.CollectionUsers, user.ID, fields); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return s.issueTokens(ctx, &user)
}

// Login authenticates a user and returns tokens
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	user, err := s.findUserByEmail(ctx, email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if !utils.ComparePassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return s.issueTokens(ctx, user)
}

func (s *AuthService) issueTokens(ctx context.Context, user *models.User) (*LoginResponse, error) {
	accessToken, err := utils.GenerateAccessToken(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := utils.GenerateRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	record := models.RefreshToken{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		TokenHash: utils.HashRefreshToken(refreshToken),
		ExpiresAt: time.Now().Add(utils.GetRefreshTokenExpiry()),
		CreatedAt: time.Now(),
	}
	fields, err := store.Fields(record)
	if err != nil {
		return nil, err
	}
	if err := s.store.SetDocument(ctx, models.CollectionRefreshTokens, record.ID, fields); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User: UserResponse{
			ID:       user.ID,
			FullName: user.FullName,
			Email:    user.Email,
			Role:     user.Role,
		},
	}, nil
}

// RefreshAccessToken generates a new access token from a refresh token
func (s *AuthService) RefreshAccessToken(ctx context.Context, refreshToken string) (string, error) {
	tokenHash := utils.HashRefreshToken(refreshToken)
	docs, err := s.store.QueryDocuments(ctx, models.CollectionRefreshTokens, []store.Filter{
		store.Eq("tokenHash", tokenHash),
		store.Eq("revoked", false),
	}, "")
	if err != nil {
		return "", err
	}
	if len(docs) == 0 {
		return "", fmt.Errorf("%w: invalid or revoked refresh token", ErrInvalidCredentials)
	}

	var record models.RefreshToken
	if err := store.Decode(docs[0], &record); err != nil {
		return "", err
	}
	if time.Now().After(record.ExpiresAt) {
		return "", fmt.Errorf("%w: refresh token expired", ErrInvalidCredentials)
	}

	userDoc, err := s.store.GetDocument(ctx, models.CollectionUsers, record.UserID)
	if err != nil {
		return "", fmt.Errorf("%w: user not found for refresh token", ErrInvalidCredentials)
	}
	var user models.User
	if err := store.Decode(userDoc, &user); err != nil {
		return "", err
	}

	accessToken, err := utils.GenerateAccessToken(user.ID, user.Role)
	if err != nil {
		return "", fmt.Errorf("failed to generate access token: %w", err)
	}
	return accessToken, nil
}

// Logout revokes a refresh token
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	tokenHash := utils.HashRefreshToken(refreshToken)
	docs, err := s.store.QueryDocuments(ctx, models.CollectionRefreshTokens, []store.Filter{
		store.Eq("tokenHash", tokenHash),
	}, "")
	if err != nil {
		return err
	}
	for _, doc := range docs {
		if err := s.store.UpdateDocument(ctx, models.CollectionRefreshTokens, doc.ID, map[string]any{
			"revoked": true,
		}); err != nil {
			return fmt.Errorf("failed to revoke refresh token: %w", err)
		}
	}
	return nil
}
