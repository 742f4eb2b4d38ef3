package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/domain/models"
	perm "github.com/SnailyCAD/snaily-cadv4-sub004/internal/domain/permissions"
	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/error/code"
	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/infrastructure/config"
	"github.com/SnailyCAD/snaily-cadv4-sub004/pkg/utils"
)

// InterfaceAuthService defines the auth service
type InterfaceAuthService interface {
	Register(ctx context.Context, username, password string) (*LoginResult, error)
	Login(ctx context.Context, username, password string) (*LoginResult, error)
	GenerateToken(user *models.User) (string, error)
	ValidateToken(tokenString string) (*AuthClaims, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	SetPermissions(ctx context.Context, userID string, permissions []string) (*models.User, error)
}

// LoginResult is returned by Register and Login
type LoginResult struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// AuthClaims are the JWT claims
type AuthClaims struct {
	UserID string `json:"user_id"`
	Rank   string `json:"rank"`
	jwt.RegisteredClaims
}

// AuthService issues and checks HS256 tokens
type AuthService struct {
	DB        *gorm.DB
	secretKey string
	issuer    string
	ttl       time.Duration
}

// NewAuthService creates the auth service
func NewAuthService(db *gorm.DB, cfg *config.Config) InterfaceAuthService {
	hours := cfg.JWTExpirationHours
	if hours <= 0 {
		hours = 24
	}
	return &AuthService{
		DB:        db,
		secretKey: cfg.JWTSecretKey,
		issuer:    "snaily-cad",
		ttl:       time.Duration(hours) * time.Hour,
	}
}

// 1. Register creates an account. The first account of the CAD becomes its owner.
func (s *AuthService) Register(ctx context.Context, username, password string) (*LoginResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || len(password) < 8 {
		return nil, code.Newf(code.ErrValidation, "username is required and password needs 8 characters")
	}

	hashed, err := utils.HashPassword(password)
	if err != nil {
		return nil, code.Wrap(code.ErrUnknown, err)
	}

	user := models.User{Username: username, Password: hashed, Rank: models.RankUser, Permissions: datatypes.JSONSlice[string]{}}
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var taken int64
		if err := tx.Model(&models.User{}).Where("username = ?", username).Count(&taken).Error; err != nil {
			return err
		}
		if taken > 0 {
			return code.New(code.ErrUserAlreadyExist)
		}

		var total int64
		if err := tx.Model(&models.User{}).Count(&total).Error; err != nil {
			return err
		}
		if total == 0 {
			user.Rank = models.RankOwner
		}
		return tx.Create(&user).Error
	})
	if err != nil {
		return nil, dbErr(err, code.ErrUserNotFound)
	}

	return s.issue(&user)
}

// 2. Login checks the credentials and issues a token
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	var user models.User
	if err := s.DB.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, code.New(code.ErrUserPasswordIncorrect)
		}
		return nil, dbErr(err, code.ErrUserNotFound)
	}
	if !utils.CheckPasswordHash(password, user.Password) {
		return nil, code.New(code.ErrUserPasswordIncorrect)
	}
	return s.issue(&user)
}

// 3. GenerateToken signs a JWT for the user
func (s *AuthService) GenerateToken(user *models.User) (string, error) {
	now := time.Now()
	claims := &AuthClaims{
		UserID: user.ID,
		Rank:   string(user.Rank),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    s.issuer,
			Subject:   user.ID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.secretKey))
}

// 4. ValidateToken parses and verifies a JWT
func (s *AuthService) ValidateToken(tokenString string) (*AuthClaims, error) {
	claims := &AuthClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		// HMAC only
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.secretKey), nil
	})
	if err != nil || !token.Valid || claims.UserID == "" {
		return nil, code.Wrap(code.ErrTokenInvalid, err)
	}
	return claims, nil
}

// 5. GetUserByID loads a user
func (s *AuthService) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.DB.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, dbErr(err, code.ErrUserNotFound)
	}
	return &user, nil
}

// 6. SetPermissions replaces the permission grants of a user
func (s *AuthService) SetPermissions(ctx context.Context, userID string, permissions []string) (*models.User, error) {
	for _, p := range permissions {
		if !perm.Permission(p).Valid() {
			return nil, code.Newf(code.ErrValidation, "unknown permission %q", p)
		}
	}

	user, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	user.Permissions = datatypes.JSONSlice[string](permissions)
	if err := s.DB.WithContext(ctx).Model(user).Update("permissions", user.Permissions).Error; err != nil {
		return nil, dbErr(err, code.ErrUserNotFound)
	}
	return user, nil
}

func (s *AuthService) issue(user *models.User) (*LoginResult, error) {
	token, err := s.GenerateToken(user)
	if err != nil {
		return nil, code.Wrap(code.ErrUnknown, err)
	}
	return &LoginResult{Token: token, User: user}, nil
}
