package auth

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/trekkr-app/trekkr-backend/internal/domain"
)

var (
	_ userRepo   = &userRepoMock{}
	_ tokenRepo  = &tokenRepoMock{}
	_ jwtManager = &jwtManagerMock{}
)

type userRepoMock struct {
	GetByIDFunc    func(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmailFunc func(ctx context.Context, email string) (*domain.User, error)
	CreateFunc     func(ctx context.Context, user *domain.User) (*domain.User, error)

	created []*domain.User
	lock    sync.Mutex
}

func (m *userRepoMock) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	if m.GetByIDFunc == nil {
		panic("userRepoMock.GetByIDFunc: method is nil but userRepo.GetByID was just called")
	}
	return m.GetByIDFunc(ctx, id)
}

func (m *userRepoMock) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if m.GetByEmailFunc == nil {
		panic("userRepoMock.GetByEmailFunc: method is nil but userRepo.GetByEmail was just called")
	}
	return m.GetByEmailFunc(ctx, email)
}

func (m *userRepoMock) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	if m.CreateFunc == nil {
		panic("userRepoMock.CreateFunc: method is nil but userRepo.Create was just called")
	}
	m.lock.Lock()
	m.created = append(m.created, user)
	m.lock.Unlock()
	return m.CreateFunc(ctx, user)
}

type tokenRepoMock struct {
	CreateFunc          func(ctx context.Context, token *domain.RefreshToken) error
	GetByHashFunc       func(ctx context.Context, tokenHash string) (*domain.RefreshToken, error)
	RevokeByIDFunc      func(ctx context.Context, id uuid.UUID) error
	RevokeAllByUserFunc func(ctx context.Context, userID uuid.UUID) error
	DeleteExpiredFunc   func(ctx context.Context) (int, error)

	created []*domain.RefreshToken
	revoked []uuid.UUID
	lock    sync.Mutex
}

func (m *tokenRepoMock) Create(ctx context.Context, token *domain.RefreshToken) error {
	if m.CreateFunc == nil {
		panic("tokenRepoMock.CreateFunc: method is nil but tokenRepo.Create was just called")
	}
	m.lock.Lock()
	m.created = append(m.created, token)
	m.lock.Unlock()
	return m.CreateFunc(ctx, token)
}

func (m *tokenRepoMock) GetByHash(ctx context.Context, tokenHash string) (*domain.RefreshToken, error) {
	if m.GetByHashFunc == nil {
		panic("tokenRepoMock.GetByHashFunc: method is nil but tokenRepo.GetByHash was just called")
	}
	return m.GetByHashFunc(ctx, tokenHash)
}

func (m *tokenRepoMock) RevokeByID(ctx context.Context, id uuid.UUID) error {
	m.lock.Lock()
	m.revoked = append(m.revoked, id)
	m.lock.Unlock()
	if m.RevokeByIDFunc != nil {
		return m.RevokeByIDFunc(ctx, id)
	}
	return nil
}

func (m *tokenRepoMock) RevokeAllByUser(ctx context.Context, userID uuid.UUID) error {
	if m.RevokeAllByUserFunc == nil {
		panic("tokenRepoMock.RevokeAllByUserFunc: method is nil but tokenRepo.RevokeAllByUser was just called")
	}
	return m.RevokeAllByUserFunc(ctx, userID)
}

func (m *tokenRepoMock) DeleteExpired(ctx context.Context) (int, error) {
	if m.DeleteExpiredFunc == nil {
		panic("tokenRepoMock.DeleteExpiredFunc: method is nil but tokenRepo.DeleteExpired was just called")
	}
	return m.DeleteExpiredFunc(ctx)
}

type jwtManagerMock struct {
	GenerateAccessTokenFunc  func(userID uuid.UUID) (string, error)
	ValidateAccessTokenFunc  func(token string) (uuid.UUID, error)
	GenerateRefreshTokenFunc func() (string, string, error)
}

func (m *jwtManagerMock) GenerateAccessToken(userID uuid.UUID) (string, error) {
	if m.GenerateAccessTokenFunc == nil {
		panic("jwtManagerMock.GenerateAccessTokenFunc: method is nil but jwtManager.GenerateAccessToken was just called")
	}
	return m.GenerateAccessTokenFunc(userID)
}

func (m *jwtManagerMock) ValidateAccessToken(token string) (uuid.UUID, error) {
	if m.ValidateAccessTokenFunc == nil {
		panic("jwtManagerMock.ValidateAccessTokenFunc: method is nil but jwtManager.ValidateAccessToken was just called")
	}
	return m.ValidateAccessTokenFunc(token)
}

func (m *jwtManagerMock) GenerateRefreshToken() (string, string, error) {
	if m.GenerateRefreshTokenFunc == nil {
		panic("jwtManagerMock.GenerateRefreshTokenFunc: method is nil but jwtManager.GenerateRefreshToken was just called")
	}
	return m.GenerateRefreshTokenFunc()
}
