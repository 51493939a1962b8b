package service

import (
	"errors"

	"learnly/config"
	"learnly/internal/auth"
	"learnly/internal/domain"
	"learnly/internal/models"
	"learnly/internal/repository"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrEmailExists  = errors.New("email already registered")
	ErrInvalidCreds = errors.New("invalid email or password")
)

type AuthService struct {
	cfg      *config.Config
	userRepo *repository.UserRepository
}

func NewAuthService(cfg *config.Config, userRepo *repository.UserRepository) *AuthService {
	return &AuthService{cfg: cfg, userRepo: userRepo}
}

func (s *AuthService) Register(name, email, password, role string) (*models.User, string, string, error) {
	if role != domain.RoleInstructor {
		role = domain.RoleStudent // admin accounts are seeded, never self-registered
	}
	_, err := s.userRepo.GetByEmail(email)
	if err == nil {
		return nil, "", "", ErrEmailExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", "", err
	}
	u := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
	}
	if err := s.userRepo.Create(u); err != nil {
		return nil, "", "", err
	}
	return s.issueTokens(u)
}

func (s *AuthService) Login(email, password string) (*models.User, string, string, error) {
	u, err := s.userRepo.GetByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", "", ErrInvalidCreds
		}
		return nil, "", "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, "", "", ErrInvalidCreds
	}
	return s.issueTokens(u)
}

// LoginWithGoogle links or creates an account from verified Google profile
// info and returns tokens. isNew reports whether an account was created.
func (s *AuthService) LoginWithGoogle(googleID, email, name, picture string) (*models.User, string, string, bool, error) {
	u, err := s.userRepo.GetByGoogleID(googleID)
	if err == nil {
		user, access, refresh, terr := s.issueTokens(u)
		return user, access, refresh, false, terr
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", "", false, err
	}
	// Link by email when the account predates the Google sign-in.
	u, err = s.userRepo.GetByEmail(email)
	if err == nil {
		u.GoogleID = &googleID
		if u.AvatarURL == "" {
			u.AvatarURL = picture
		}
		if err := s.userRepo.Update(u); err != nil {
			return nil, "", "", false, err
		}
		user, access, refresh, terr := s.issueTokens(u)
		return user, access, refresh, false, terr
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", "", false, err
	}
	u = &models.User{
		Name:      name,
		Email:     email,
		Role:      domain.RoleStudent,
		GoogleID:  &googleID,
		AvatarURL: picture,
	}
	if err := s.userRepo.Create(u); err != nil {
		return nil, "", "", false, err
	}
	user, access, refresh, terr := s.issueTokens(u)
	return user, access, refresh, true, terr
}

// Refresh exchanges a valid refresh token for a new token pair.
func (s *AuthService) Refresh(refreshToken string) (*models.User, string, string, error) {
	userID, err := auth.ParseRefreshToken(&s.cfg.JWT, refreshToken)
	if err != nil {
		return nil, "", "", err
	}
	u, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, "", "", auth.ErrInvalidToken
	}
	return s.issueTokens(u)
}

func (s *AuthService) issueTokens(u *models.User) (*models.User, string, string, error) {
	access, err := auth.GenerateAccessToken(&s.cfg.JWT, u.ID, u.Email, u.Role)
	if err != nil {
		return u, "", "", err
	}
	refresh, err := auth.GenerateRefreshToken(&s.cfg.JWT, u.ID)
	if err != nil {
		return u, access, "", err
	}
	return u, access, refresh, nil
}
