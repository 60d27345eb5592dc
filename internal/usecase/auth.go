package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode"

	"github.com/dgrijalva/jwt-go"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"storefront-backend/internal/domain"
)

type JWTClaims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Role   string `json:"role"`
	jwt.StandardClaims
}

type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UserPage struct {
	Users      []domain.User     `json:"users"`
	Pagination domain.Pagination `json:"pagination"`
}

type AuthOptions struct {
	Secret      []byte
	TTL         time.Duration
	AdminEmails []string
}

type AuthUseCase struct {
	users  domain.UserStore
	opts   AuthOptions
	admins map[string]struct{}
	log    *logrus.Logger
	now    func() time.Time
}

func NewAuthUseCase(users domain.UserStore, opts AuthOptions, logger *logrus.Logger) *AuthUseCase {
	if opts.TTL <= 0 {
		opts.TTL = 24 * time.Hour
	}
	admins := make(map[string]struct{}, len(opts.AdminEmails))
	for _, e := range opts.AdminEmails {
		admins[strings.ToLower(strings.TrimSpace(e))] = struct{}{}
	}
	return &AuthUseCase{users: users, opts: opts, admins: admins, log: logger, now: time.Now}
}

func validatePassword(pw string) error {
	if len(pw) < 6 {
		return domain.Validation(domain.CodeInvalidInput, "password must be at least 6 characters")
	}
	var upper, lower, digit bool
	for _, r := range pw {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !upper || !lower || !digit {
		return domain.Validation(domain.CodeInvalidInput, "password must contain an uppercase letter, a lowercase letter and a digit")
	}
	return nil
}

func (uc *AuthUseCase) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if len([]rune(name)) < 2 {
		return nil, domain.Validation(domain.CodeInvalidInput, "name must be at least 2 characters")
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return nil, domain.Validation(domain.CodeInvalidInput, "invalid email address")
	}
	if err := validatePassword(in.Password); err != nil {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	role := domain.RoleCustomer
	if _, ok := uc.admins[email]; ok {
		role = domain.RoleAdmin
	}

	u, err := uc.users.Create(ctx, &domain.User{Name: name, Email: email, PasswordHash: string(hashed), Role: role})
	if errors.Is(err, domain.ErrDuplicateKey) {
		uc.log.Warnf("Use Case: Registration with existing email %s", email)
		return nil, domain.Conflict(domain.CodeEmailTaken, "an account with this email already exists")
	}
	if err != nil {
		uc.log.Errorf("Use Case: Repository failed to create user %s: %v", email, err)
		return nil, err
	}
	uc.log.Infof("Use Case: User %s registered with role %s", u.Email, u.Role)
	return u, nil
}

// Login checks the password and issues a signed session token.
func (uc *AuthUseCase) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	u, err := uc.users.GetByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, domain.ErrNotFound) {
		return nil, "", domain.Unauthorized("invalid email or password")
	}
	if err != nil {
		return nil, "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		uc.log.Warnf("Use Case: Wrong password for %s", u.Email)
		return nil, "", domain.Unauthorized("invalid email or password")
	}

	token, err := uc.IssueToken(u.Identity())
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

func (uc *AuthUseCase) IssueToken(id domain.Identity) (string, error) {
	now := uc.now()
	claims := JWTClaims{
		UserID: id.UserID,
		Email:  id.Email,
		Name:   id.Name,
		Role:   id.Role,
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(uc.opts.TTL).Unix(),
			Subject:   id.UserID,
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(uc.opts.Secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ParseToken validates a bearer token and returns the identity it carries.
func (uc *AuthUseCase) ParseToken(tokenStr string) (domain.Identity, error) {
	claims := &JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return uc.opts.Secret, nil
	})
	if err != nil || !token.Valid {
		return domain.Identity{}, domain.Unauthorized("invalid or expired token")
	}
	if claims.Email == "" {
		return domain.Identity{}, domain.Unauthorized("invalid or expired token")
	}
	return domain.Identity{UserID: claims.UserID, Email: claims.Email, Name: claims.Name, Role: claims.Role}, nil
}

func (uc *AuthUseCase) Profile(ctx context.Context, caller domain.Identity) (*domain.User, error) {
	id, err := parseID(caller.UserID, "user")
	if err != nil {
		return nil, domain.Unauthorized("invalid session")
	}
	u, err := uc.users.Get(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.NotFound(domain.CodeUserNotFound, "user not found")
	}
	return u, err
}

func (uc *AuthUseCase) ListUsers(ctx context.Context, page, limit int) (*UserPage, error) {
	page, limit = domain.NormalizePage(page, limit, 20)
	users, total, err := uc.users.List(ctx, page, limit)
	if err != nil {
		uc.log.Errorf("Use Case: Repository failed to list users: %v", err)
		return nil, err
	}
	return &UserPage{Users: users, Pagination: domain.NewPagination(page, limit, total)}, nil
}
