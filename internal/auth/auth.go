package auth

import (
	"context"
	"strings"
	"time"

	"quota-service/internal/models"
	"quota-service/internal/redisclient"
	"quota-service/internal/store"
	"quota-service/internal/util"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Service resolves identities: signup, login, logout, current profile.
// Tokens are JWTs carrying a session id; the session lives in Redis so
// logout actually revokes.
type Service struct {
	store      *store.Store
	redis      *redisclient.Client
	jwtSecret  []byte
	sessionTTL time.Duration
	logger     *zap.Logger
}

// NewService creates a new auth service
func NewService(store *store.Store, redis *redisclient.Client, jwtSecret string, sessionTTL time.Duration) *Service {
	return &Service{
		store:      store,
		redis:      redis,
		jwtSecret:  []byte(jwtSecret),
		sessionTTL: sessionTTL,
		logger:     util.GetLogger(),
	}
}

// SignUpRequest carries the credentials and profile fields for signup
type SignUpRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	FullName string `json:"full_name" binding:"required"`
	Type     string `json:"type" binding:"required"`
	TaxID    string `json:"tax_id"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	City     string `json:"city"`
	State    string `json:"state"`
}

// Claims is the JWT payload
type Claims struct {
	SessionID string `json:"sid"`
	UserID    string `json:"uid"`
	jwt.RegisteredClaims
}

// SignUp creates a profile. Duplicate email or tax id comes back as a
// CONFLICT domain error with a distinct message.
func (s *Service) SignUp(ctx context.Context, req *SignUpRequest) (*models.Profile, error) {
	ctx, span := util.StartSpan(ctx, "Auth.SignUp")
	defer span.End()

	profileType := strings.ToLower(req.Type)
	switch profileType {
	case models.ProfileTypeProducer, models.ProfileTypeSeller:
	default:
		return nil, models.NewError(models.ErrCodeInvalid, "type must be producer or seller")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	profile := &models.Profile{
		ID:           uuid.NewString(),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: string(hash),
		FullName:     req.FullName,
		Type:         profileType,
		TaxID:        req.TaxID,
		Phone:        req.Phone,
		Address:      req.Address,
		City:         req.City,
		State:        req.State,
	}
	if err := s.store.CreateProfile(ctx, profile); err != nil {
		return nil, err
	}

	s.logger.Info("Profile created",
		zap.String("profile_id", profile.ID),
		zap.String("type", profile.Type))
	return profile, nil
}

// Login verifies credentials and issues a token backed by a Redis session
func (s *Service) Login(ctx context.Context, email, password string) (token string, profile *models.Profile, err error) {
	ctx, span := util.StartSpan(ctx, "Auth.Login")
	defer span.End()

	profile, err = s.store.GetProfileByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if models.IsCode(err, models.ErrCodeNotFound) {
			return "", nil, models.ErrInvalidCredentials
		}
		return "", nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(profile.PasswordHash), []byte(password)) != nil {
		return "", nil, models.ErrInvalidCredentials
	}

	sessionID := uuid.NewString()
	if err := s.redis.SetSession(ctx, sessionID, profile.ID, s.sessionTTL); err != nil {
		return "", nil, err
	}

	now := time.Now()
	claims := &Claims{
		SessionID: sessionID,
		UserID:    profile.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.sessionTTL)),
		},
	}
	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return "", nil, err
	}
	return token, profile, nil
}

// Logout revokes the session carried by the token
func (s *Service) Logout(ctx context.Context, token string) error {
	claims, err := s.parseToken(token)
	if err != nil {
		return err
	}
	return s.redis.DeleteSession(ctx, claims.SessionID)
}

// Authenticate resolves a token to the signed-in profile. An expired token
// or a revoked session yields UNAUTHORIZED.
func (s *Service) Authenticate(ctx context.Context, token string) (*models.Profile, error) {
	claims, err := s.parseToken(token)
	if err != nil {
		return nil, err
	}

	userID, err := s.redis.GetSession(ctx, claims.SessionID)
	if err != nil {
		return nil, err
	}
	if userID == "" || userID != claims.UserID {
		return nil, models.ErrUnauthorized
	}

	return s.store.GetProfileByID(ctx, userID)
}

// UpdateProfileRequest carries the mutable contact fields
type UpdateProfileRequest struct {
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	City     string `json:"city"`
	State    string `json:"state"`
}

// UpdateProfile applies contact-field changes to the caller's own profile
func (s *Service) UpdateProfile(ctx context.Context, profile *models.Profile, req *UpdateProfileRequest) (*models.Profile, error) {
	if req.FullName != "" {
		profile.FullName = req.FullName
	}
	if req.Phone != "" {
		profile.Phone = req.Phone
	}
	if req.Address != "" {
		profile.Address = req.Address
	}
	if req.City != "" {
		profile.City = req.City
	}
	if req.State != "" {
		profile.State = req.State
	}
	if err := s.store.UpdateProfile(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

func (s *Service) parseToken(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, models.ErrUnauthorized
		}
		return s.jwtSecret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, models.ErrUnauthorized
	}
	return claims, nil
}
