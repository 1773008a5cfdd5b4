package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/chandruydv805026/my-web/internal/auth"
	"github.com/chandruydv805026/my-web/internal/entity"
	"github.com/chandruydv805026/my-web/internal/notify"
	"github.com/chandruydv805026/my-web/internal/repository"
)

const minPasswordLength = 6

var pincodePattern = regexp.MustCompile(`^[1-9]\d{5}$`)

// OTPPolicy controls login code lifetime and retries.
type OTPPolicy struct {
	TTL         time.Duration
	MaxAttempts int
}

// AuthService registers customers and logs them in by emailed OTP or password.
type AuthService struct {
	users  repository.UserRepository
	carts  repository.CartRepository
	otps   repository.OTPStore
	mailer notify.Mailer
	tokens *auth.TokenService
	policy OTPPolicy
	now    func() time.Time
}

func NewAuthService(users repository.UserRepository, carts repository.CartRepository, otps repository.OTPStore, mailer notify.Mailer, tokens *auth.TokenService, policy OTPPolicy) *AuthService {
	if policy.TTL <= 0 {
		policy.TTL = 2 * time.Minute
	}
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = 3
	}
	return &AuthService{
		users:  users,
		carts:  carts,
		otps:   otps,
		mailer: mailer,
		tokens: tokens,
		policy: policy,
		now:    time.Now,
	}
}

type SignupInput struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	Address  string `json:"address"`
	Pincode  string `json:"pincode"`
	Area     string `json:"area"`
	Password string `json:"password,omitempty"`
}

// Session is returned on successful login.
type Session struct {
	Token string       `json:"token"`
	User  *entity.User `json:"user"`
}

func (in *SignupInput) normalize() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Address = strings.TrimSpace(in.Address)
	in.Pincode = strings.TrimSpace(in.Pincode)
	in.Area = strings.TrimSpace(in.Area)

	switch {
	case in.Name == "":
		return validationError("name is required")
	case !phonePattern.MatchString(in.Phone):
		return validationError("phone must be a 10 digit mobile number")
	case in.Address == "":
		return validationError("address is required")
	case !pincodePattern.MatchString(in.Pincode):
		return validationError("pincode must be 6 digits")
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return validationError("a valid email is required")
	}
	if in.Password != "" && len(in.Password) < minPasswordLength {
		return validationError("password must be at least %d characters", minPasswordLength)
	}
	return nil
}

// Signup registers a customer and gives them an empty cart.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*entity.User, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}

	user := &entity.User{
		ID:        uuid.NewString(),
		Name:      in.Name,
		Phone:     in.Phone,
		Email:     in.Email,
		Address:   in.Address,
		Pincode:   in.Pincode,
		Area:      in.Area,
		CreatedAt: s.now().UTC(),
	}
	if in.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash = string(hash)
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if err := s.carts.Save(ctx, entity.NewCart(user.ID)); err != nil {
		slog.Warn("Failed to create cart for new user", "user_id", user.ID, "err", err)
	}

	slog.Info("Service: User signed up", "user_id", user.ID)
	return user, nil
}

// RequestOTP emails a fresh login code to the customer registered with phone.
// Requesting again replaces the previous code and resets its attempts.
func (s *AuthService) RequestOTP(ctx context.Context, phone string) error {
	user, err := s.findByPhone(ctx, phone)
	if err != nil {
		return err
	}

	code, err := generateOTP()
	if err != nil {
		return err
	}
	if err := s.otps.Save(ctx, user.Phone, code, s.policy.TTL); err != nil {
		return fmt.Errorf("failed to store otp: %w", err)
	}

	msg, err := notify.OTPMessage(user.Email, code, s.policy.TTL)
	if err != nil {
		return err
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		slog.Error("Failed to email otp", "user_id", user.ID, "err", err)
		return newError(ErrUpstream, "could not send the login code, try again")
	}

	slog.Info("Service: OTP sent", "user_id", user.ID)
	return nil
}

// VerifyOTP checks the code and issues a bearer token. A code is single use.
func (s *AuthService) VerifyOTP(ctx context.Context, phone, code string) (*Session, error) {
	code = strings.TrimSpace(code)
	if len(code) != 6 {
		return nil, validationError("otp must be 6 digits")
	}
	user, err := s.findByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}

	switch err := s.otps.Verify(ctx, user.Phone, code, s.policy.MaxAttempts); {
	case errors.Is(err, repository.ErrOTPMissing):
		return nil, ErrOTPExpired
	case errors.Is(err, repository.ErrOTPMismatch):
		return nil, ErrInvalidOTP
	case errors.Is(err, repository.ErrOTPLocked):
		return nil, ErrOTPLocked
	case err != nil:
		return nil, fmt.Errorf("failed to verify otp: %w", err)
	}

	return s.session(user)
}

// LoginWithPassword authenticates a customer who set a password at signup.
func (s *AuthService) LoginWithPassword(ctx context.Context, phone, password string) (*Session, error) {
	user, err := s.findByPhone(ctx, phone)
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if user.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.session(user)
}

// Authenticate resolves a bearer token to its user id.
func (s *AuthService) Authenticate(token string) (string, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return "", newError(ErrUnauthorized, "invalid or expired token")
	}
	return claims.UserID, nil
}

// Profile returns the customer's stored details.
func (s *AuthService) Profile(ctx context.Context, userID string) (*entity.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return user, nil
}

func (s *AuthService) findByPhone(ctx context.Context, phone string) (*entity.User, error) {
	phone = strings.TrimSpace(phone)
	if !phonePattern.MatchString(phone) {
		return nil, validationError("phone must be a 10 digit mobile number")
	}
	user, err := s.users.FindByPhone(ctx, phone)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return user, nil
}

func (s *AuthService) session(user *entity.User) (*Session, error) {
	token, err := s.tokens.Issue(user.ID, user.Phone)
	if err != nil {
		return nil, err
	}
	slog.Info("Service: User logged in", "user_id", user.ID)
	return &Session{Token: token, User: user}, nil
}

func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", fmt.Errorf("failed to generate otp: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
