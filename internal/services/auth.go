package services

import (
	"errors"
	"log"

	"fleet-console/internal/models"
	"fleet-console/internal/repository"
	"fleet-console/pkg/jwt"

	"golang.org/x/crypto/bcrypt"
)

type AuthService struct {
	operatorRepo *repository.OperatorRepository
	jwtUtil      *jwt.JWTUtil
}

func NewAuthService(operatorRepo *repository.OperatorRepository) *AuthService {
	return &AuthService{
		operatorRepo: operatorRepo,
		jwtUtil:      jwt.NewJWTUtil(),
	}
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Operator *models.Operator `json:"operator"`
	Token    string           `json:"token"`
}

func (s *AuthService) Login(req *LoginRequest) (*LoginResponse, error) {
	operator, err := s.operatorRepo.FindByUsername(req.Username)
	if err != nil {
		return nil, errors.New("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(operator.Password), []byte(req.Password)); err != nil {
		return nil, errors.New("invalid credentials")
	}

	// Best effort; a failed write should not block the login.
	if err := s.operatorRepo.UpdateLastLogin(operator.ID.Hex()); err != nil {
		log.Printf("failed to update last login for %s: %v", operator.Username, err)
	}

	token, err := s.jwtUtil.GenerateToken(operator.ID.Hex(), operator.Username, operator.Role)
	if err != nil {
		return nil, errors.New("failed to generate token")
	}

	return &LoginResponse{
		Operator: operator,
		Token:    token,
	}, nil
}

func (s *AuthService) RefreshToken(tokenString string) (string, error) {
	newToken, err := s.jwtUtil.RefreshToken(tokenString)
	if err != nil {
		return "", errors.New("failed to refresh token")
	}
	return newToken, nil
}

func (s *AuthService) GetProfile(operatorID string) (*models.Operator, error) {
	operator, err := s.operatorRepo.FindByID(operatorID)
	if err != nil {
		return nil, errors.New("operator not found")
	}
	return operator, nil
}

// EnsureDefaultAdmin seeds an admin account on first boot so the console is
// usable before any operators have been provisioned. No-op when any operator
// already exists or when no bootstrap password is configured.
func (s *AuthService) EnsureDefaultAdmin(username, password string) error {
	if username == "" || password == "" {
		return nil
	}

	count, err := s.operatorRepo.Count()
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	_, err = s.operatorRepo.Create(&models.Operator{
		Username: username,
		Email:    username + "@fleet-console.local",
		Password: string(hashed),
		Role:     "admin",
	})
	if err != nil {
		return err
	}

	log.Printf("seeded default admin operator %q", username)
	return nil
}
