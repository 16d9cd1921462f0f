package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/mowamiyya/leaveMangement/internal/models"
	appErrors "github.com/mowamiyya/leaveMangement/pkg/errors"
)

type authUserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	CreateStudent(ctx context.Context, user *models.User, profile *models.StudentProfile, audit *models.AuditLog) error
	CreateTeacher(ctx context.Context, user *models.User, profile *models.TeacherProfile, audit *models.AuditLog) error
	UpdatePassword(ctx context.Context, id, passwordHash string, audit *models.AuditLog) error
}

type authClassRepository interface {
	FindByID(ctx context.Context, id string) (*models.Class, error)
}

type authDepartmentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Department, error)
}

type resetCodeStore interface {
	Store(ctx context.Context, email, code string) error
	Consume(ctx context.Context, email string) (string, error)
}

type refreshTokenStore interface {
	Store(ctx context.Context, token, userID string) error
	Consume(ctx context.Context, token string) (string, error)
	Revoke(ctx context.Context, token string) error
}

type auditWriter interface {
	Create(ctx context.Context, entry *models.AuditLog) error
}

type tokenIssuer interface {
	Issue(user *models.User) (string, time.Time, error)
}

// AuthService provides identity use cases: login, registration, and the
// password lifecycle.
type AuthService struct {
	users         authUserRepository
	classes       authClassRepository
	departments   authDepartmentRepository
	resetCodes    resetCodeStore
	refreshTokens refreshTokenStore
	audit         auditWriter
	tokens        tokenIssuer
	validator     *validator.Validate
	logger        *zap.Logger
	expiry        time.Duration
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(users authUserRepository, classes authClassRepository, departments authDepartmentRepository, resetCodes resetCodeStore, refreshTokens refreshTokenStore, audit auditWriter, tokens tokenIssuer, validate *validator.Validate, logger *zap.Logger, expiry time.Duration) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AuthService{
		users:         users,
		classes:       classes,
		departments:   departments,
		resetCodes:    resetCodes,
		refreshTokens: refreshTokens,
		audit:         audit,
		tokens:        tokens,
		validator:     validate,
		logger:        logger,
		expiry:        expiry,
	}
}

// Login authenticates a user and returns an issued token. Unknown emails and
// wrong passwords produce the same generic error.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}

	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid email or password")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch user")
	}

	if !user.Active {
		return nil, appErrors.Clone(appErrors.ErrInactiveAccount, "account is inactive")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid email or password")
	}

	response, err := s.issueTokenPair(ctx, user)
	if err != nil {
		return nil, err
	}

	if err := s.audit.Create(ctx, &models.AuditLog{
		EntityType: models.AuditEntityUser,
		EntityID:   user.ID,
		Action:     models.AuditActionLogin,
		ActionBy:   user.ID,
		NewValue:   []byte(`{"status":"success"}`),
		IPAddress:  optionalString(req.IP),
	}); err != nil {
		s.logger.Warn("failed to record login audit log", zap.Error(err))
	}

	return response, nil
}

// Refresh rotates a refresh token: the presented one is consumed whether or
// not the rotation succeeds, and a fresh pair is issued for the owner.
func (s *AuthService) Refresh(ctx context.Context, req models.RefreshRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid refresh payload")
	}

	userID, err := s.refreshTokens.Consume(ctx, req.RefreshToken)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "refresh token is invalid or expired")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load refresh token")
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "refresh token is invalid or expired")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch user")
	}
	if !user.Active {
		return nil, appErrors.Clone(appErrors.ErrInactiveAccount, "account is inactive")
	}

	return s.issueTokenPair(ctx, user)
}

// Logout revokes the caller's refresh token and records the event.
func (s *AuthService) Logout(ctx context.Context, userID string, req models.LogoutRequest) error {
	if req.RefreshToken != "" {
		if err := s.refreshTokens.Revoke(ctx, req.RefreshToken); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to revoke refresh token")
		}
	}

	if err := s.audit.Create(ctx, &models.AuditLog{
		EntityType: models.AuditEntityUser,
		EntityID:   userID,
		Action:     models.AuditActionLogout,
		ActionBy:   userID,
		IPAddress:  optionalString(req.IP),
	}); err != nil {
		s.logger.Warn("failed to record logout audit log", zap.Error(err))
	}
	return nil
}

func (s *AuthService) issueTokenPair(ctx context.Context, user *models.User) (*models.LoginResponse, error) {
	accessToken, _, err := s.tokens.Issue(user)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create access token")
	}

	refreshToken, err := generateRefreshToken()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create refresh token")
	}
	if err := s.refreshTokens.Store(ctx, refreshToken, user.ID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store refresh token")
	}

	return &models.LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.expiry.Seconds()),
		User: models.UserInfo{
			ID:       user.ID,
			Email:    user.Email,
			FullName: user.FullName,
			Role:     user.Role,
		},
	}, nil
}

// Register creates a student or teacher account. Admin accounts are created
// only by the seeder.
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.RegisterResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid registration payload")
	}

	exists, err := s.users.EmailExists(ctx, req.Email)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "email is already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	user := &models.User{
		Email:        req.Email,
		PasswordHash: string(hash),
		FullName:     req.FullName,
		Role:         req.Role,
		Active:       true,
	}

	switch req.Role {
	case models.RoleStudent:
		if req.ClassID == "" || req.DepartmentID == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "student registration requires class and department")
		}
		class, err := s.classes.FindByID(ctx, req.ClassID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrValidation, "class does not exist")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
		}
		if !class.Active || class.DepartmentID != req.DepartmentID {
			return nil, appErrors.Clone(appErrors.ErrValidation, "class does not belong to the department")
		}
		profile := &models.StudentProfile{ClassID: req.ClassID, DepartmentID: req.DepartmentID}
		if err := s.users.CreateStudent(ctx, user, profile, s.registrationAudit(req.IP)); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
		}
	case models.RoleTeacher:
		if req.TeacherDepartmentID == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "teacher registration requires a department")
		}
		department, err := s.departments.FindByID(ctx, req.TeacherDepartmentID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrValidation, "department does not exist")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load department")
		}
		if !department.Active {
			return nil, appErrors.Clone(appErrors.ErrValidation, "department is inactive")
		}
		profile := &models.TeacherProfile{DepartmentID: req.TeacherDepartmentID}
		if err := s.users.CreateTeacher(ctx, user, profile, s.registrationAudit(req.IP)); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create teacher")
		}
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "role must be STUDENT or TEACHER")
	}

	return &models.RegisterResponse{
		Message:  "registration successful",
		UserID:   user.ID,
		FullName: user.FullName,
		Email:    user.Email,
		Role:     user.Role,
	}, nil
}

func (s *AuthService) registrationAudit(ip string) *models.AuditLog {
	return &models.AuditLog{
		EntityType: models.AuditEntityUser,
		Action:     models.AuditActionCreate,
		NewValue:   []byte(`{"event":"registered"}`),
		IPAddress:  optionalString(ip),
	}
}

// UpdatePassword changes the password of the authenticated user after
// verifying the current one.
func (s *AuthService) UpdatePassword(ctx context.Context, userID string, req models.UpdatePasswordRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid password payload")
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		return appErrors.Clone(appErrors.ErrForbidden, "current password does not match")
	}

	newHash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	audit := &models.AuditLog{
		EntityType: models.AuditEntityUser,
		EntityID:   userID,
		Action:     models.AuditActionPasswordChange,
		ActionBy:   userID,
		NewValue:   []byte(`{"status":"changed"}`),
		IPAddress:  optionalString(req.IP),
	}
	if err := s.users.UpdatePassword(ctx, userID, string(newHash), audit); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update password")
	}
	return nil
}

// ForgotPassword issues a short-lived six digit confirmation code. The
// response is identical whether or not the email exists.
func (s *AuthService) ForgotPassword(ctx context.Context, req models.ForgotPasswordRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid forgot password payload")
	}

	if _, err := s.users.FindByEmail(ctx, req.Email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Do not reveal whether the account exists.
			return nil
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch user")
	}

	code, err := generateConfirmationCode()
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate code")
	}
	if err := s.resetCodes.Store(ctx, req.Email, code); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store code")
	}

	// No mail transport is wired yet, the code is surfaced through the log.
	s.logger.Info("password reset code issued", zap.String("email", req.Email), zap.String("code", code))
	return nil
}

// ResetPassword completes the reset flow. Codes are single use: even a
// failed attempt consumes the outstanding code.
func (s *AuthService) ResetPassword(ctx context.Context, req models.ResetPasswordRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid reset payload")
	}

	stored, err := s.resetCodes.Consume(ctx, req.Email)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return appErrors.Clone(appErrors.ErrForbidden, "confirmation code is invalid or expired")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load code")
	}
	if stored != req.ConfirmationCode {
		return appErrors.Clone(appErrors.ErrForbidden, "confirmation code is invalid or expired")
	}

	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrForbidden, "confirmation code is invalid or expired")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch user")
	}

	newHash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	newValue, _ := json.Marshal(map[string]string{"status": "reset"})
	audit := &models.AuditLog{
		EntityType: models.AuditEntityUser,
		EntityID:   user.ID,
		Action:     models.AuditActionPasswordChange,
		ActionBy:   user.ID,
		NewValue:   newValue,
		IPAddress:  optionalString(req.IP),
	}
	if err := s.users.UpdatePassword(ctx, user.ID, string(newHash), audit); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update password")
	}
	return nil
}

func generateRefreshToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func generateConfirmationCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func optionalString(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
