package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/mowamiyya/leaveMangement/internal/models"
	appErrors "github.com/mowamiyya/leaveMangement/pkg/errors"
)

type authUserRepoStub struct {
	users          map[string]*models.User
	emailTaken     bool
	createdStudent *models.User
	createdTeacher *models.User
	passwordHash   string
	passwordAudit  *models.AuditLog
}

func (s *authUserRepoStub) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, user := range s.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *authUserRepoStub) FindByID(ctx context.Context, id string) (*models.User, error) {
	if user, ok := s.users[id]; ok {
		return user, nil
	}
	return nil, sql.ErrNoRows
}

func (s *authUserRepoStub) EmailExists(ctx context.Context, email string) (bool, error) {
	return s.emailTaken, nil
}

func (s *authUserRepoStub) CreateStudent(ctx context.Context, user *models.User, profile *models.StudentProfile, audit *models.AuditLog) error {
	user.ID = "student-new"
	s.createdStudent = user
	return nil
}

func (s *authUserRepoStub) CreateTeacher(ctx context.Context, user *models.User, profile *models.TeacherProfile, audit *models.AuditLog) error {
	user.ID = "teacher-new"
	s.createdTeacher = user
	return nil
}

func (s *authUserRepoStub) UpdatePassword(ctx context.Context, id, passwordHash string, audit *models.AuditLog) error {
	s.passwordHash = passwordHash
	s.passwordAudit = audit
	return nil
}

type authClassRepoStub struct {
	classes map[string]*models.Class
}

func (s authClassRepoStub) FindByID(ctx context.Context, id string) (*models.Class, error) {
	if class, ok := s.classes[id]; ok {
		return class, nil
	}
	return nil, sql.ErrNoRows
}

type authDepartmentRepoStub struct {
	departments map[string]*models.Department
}

func (s authDepartmentRepoStub) FindByID(ctx context.Context, id string) (*models.Department, error) {
	if department, ok := s.departments[id]; ok {
		return department, nil
	}
	return nil, sql.ErrNoRows
}

type resetCodeStoreStub struct {
	stored   map[string]string
	consumed []string
}

func (s *resetCodeStoreStub) Store(ctx context.Context, email, code string) error {
	if s.stored == nil {
		s.stored = map[string]string{}
	}
	s.stored[email] = code
	return nil
}

func (s *resetCodeStoreStub) Consume(ctx context.Context, email string) (string, error) {
	s.consumed = append(s.consumed, email)
	code, ok := s.stored[email]
	if !ok {
		return "", redis.Nil
	}
	delete(s.stored, email)
	return code, nil
}

type refreshTokenStoreStub struct {
	tokens  map[string]string
	revoked []string
}

func (s *refreshTokenStoreStub) Store(ctx context.Context, token, userID string) error {
	if s.tokens == nil {
		s.tokens = map[string]string{}
	}
	s.tokens[token] = userID
	return nil
}

func (s *refreshTokenStoreStub) Consume(ctx context.Context, token string) (string, error) {
	userID, ok := s.tokens[token]
	if !ok {
		return "", redis.Nil
	}
	delete(s.tokens, token)
	return userID, nil
}

func (s *refreshTokenStoreStub) Revoke(ctx context.Context, token string) error {
	s.revoked = append(s.revoked, token)
	delete(s.tokens, token)
	return nil
}

type auditWriterStub struct {
	entries []*models.AuditLog
}

func (s *auditWriterStub) Create(ctx context.Context, entry *models.AuditLog) error {
	s.entries = append(s.entries, entry)
	return nil
}

type tokenIssuerStub struct {
	token string
	err   error
}

func (s tokenIssuerStub) Issue(user *models.User) (string, time.Time, error) {
	return s.token, time.Now().Add(time.Hour), s.err
}

func hashPassword(t *testing.T, password string) string {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func newAuthService(users *authUserRepoStub, codes *resetCodeStoreStub, audit *auditWriterStub) *AuthService {
	return newAuthServiceWithRefresh(users, codes, &refreshTokenStoreStub{}, audit)
}

func newAuthServiceWithRefresh(users *authUserRepoStub, codes *resetCodeStoreStub, refresh *refreshTokenStoreStub, audit *auditWriterStub) *AuthService {
	classes := authClassRepoStub{classes: map[string]*models.Class{
		"class-1": {ID: "class-1", DepartmentID: "dept-1", Active: true},
	}}
	departments := authDepartmentRepoStub{departments: map[string]*models.Department{
		"dept-1": {ID: "dept-1", Active: true},
	}}
	if codes == nil {
		codes = &resetCodeStoreStub{}
	}
	if audit == nil {
		audit = &auditWriterStub{}
	}
	return NewAuthService(users, classes, departments, codes, refresh, audit,
		tokenIssuerStub{token: "signed-token"}, nil, zap.NewNop(), time.Hour)
}

func TestAuthServiceLoginSuccess(t *testing.T) {
	users := &authUserRepoStub{users: map[string]*models.User{
		"user-1": {
			ID:           "user-1",
			Email:        "ana@school.edu",
			PasswordHash: hashPassword(t, "secret123"),
			FullName:     "Ana Silva",
			Role:         models.RoleStudent,
			Active:       true,
		},
	}}
	audit := &auditWriterStub{}
	svc := newAuthService(users, nil, audit)

	resp, err := svc.Login(context.Background(), models.LoginRequest{Email: "ana@school.edu", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, "signed-token", resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "user-1", resp.User.ID)
	require.Len(t, audit.entries, 1)
	assert.Equal(t, models.AuditActionLogin, audit.entries[0].Action)
}

func TestAuthServiceRefreshRotatesToken(t *testing.T) {
	users := &authUserRepoStub{users: map[string]*models.User{
		"user-1": {
			ID:           "user-1",
			Email:        "ana@school.edu",
			PasswordHash: hashPassword(t, "secret123"),
			Role:         models.RoleStudent,
			Active:       true,
		},
	}}
	refresh := &refreshTokenStoreStub{}
	svc := newAuthServiceWithRefresh(users, nil, refresh, nil)

	login, err := svc.Login(context.Background(), models.LoginRequest{Email: "ana@school.edu", Password: "secret123"})
	require.NoError(t, err)

	rotated, err := svc.Refresh(context.Background(), models.RefreshRequest{RefreshToken: login.RefreshToken})
	require.NoError(t, err)
	assert.Equal(t, "user-1", rotated.User.ID)
	assert.NotEqual(t, login.RefreshToken, rotated.RefreshToken)

	// Tokens are single use.
	_, err = svc.Refresh(context.Background(), models.RefreshRequest{RefreshToken: login.RefreshToken})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceRefreshInactiveAccount(t *testing.T) {
	users := &authUserRepoStub{users: map[string]*models.User{
		"user-1": {ID: "user-1", Role: models.RoleStudent, Active: false},
	}}
	refresh := &refreshTokenStoreStub{tokens: map[string]string{"stale": "user-1"}}
	svc := newAuthServiceWithRefresh(users, nil, refresh, nil)

	_, err := svc.Refresh(context.Background(), models.RefreshRequest{RefreshToken: "stale"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLogoutRevokesToken(t *testing.T) {
	refresh := &refreshTokenStoreStub{tokens: map[string]string{"live": "user-1"}}
	audit := &auditWriterStub{}
	svc := newAuthServiceWithRefresh(&authUserRepoStub{}, nil, refresh, audit)

	err := svc.Logout(context.Background(), "user-1", models.LogoutRequest{RefreshToken: "live"})
	require.NoError(t, err)
	assert.Contains(t, refresh.revoked, "live")
	require.Len(t, audit.entries, 1)
	assert.Equal(t, models.AuditActionLogout, audit.entries[0].Action)
}

func TestAuthServiceLoginGenericError(t *testing.T) {
	users := &authUserRepoStub{users: map[string]*models.User{
		"user-1": {
			ID:           "user-1",
			Email:        "ana@school.edu",
			PasswordHash: hashPassword(t, "secret123"),
			Role:         models.RoleStudent,
			Active:       true,
		},
	}}
	svc := newAuthService(users, nil, nil)

	// Unknown email and wrong password must be indistinguishable.
	_, unknownErr := svc.Login(context.Background(), models.LoginRequest{Email: "ghost@school.edu", Password: "secret123"})
	require.Error(t, unknownErr)
	_, wrongErr := svc.Login(context.Background(), models.LoginRequest{Email: "ana@school.edu", Password: "wrong"})
	require.Error(t, wrongErr)
	assert.Equal(t, appErrors.FromError(unknownErr).Code, appErrors.FromError(wrongErr).Code)
	assert.Equal(t, appErrors.FromError(unknownErr).Message, appErrors.FromError(wrongErr).Message)
}

func TestAuthServiceLoginInactiveAccount(t *testing.T) {
	users := &authUserRepoStub{users: map[string]*models.User{
		"user-1": {
			ID:           "user-1",
			Email:        "ana@school.edu",
			PasswordHash: hashPassword(t, "secret123"),
			Role:         models.RoleStudent,
			Active:       false,
		},
	}}
	svc := newAuthService(users, nil, nil)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "ana@school.edu", Password: "secret123"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceRegisterStudent(t *testing.T) {
	users := &authUserRepoStub{users: map[string]*models.User{}}
	svc := newAuthService(users, nil, nil)

	resp, err := svc.Register(context.Background(), models.RegisterRequest{
		FullName:     "Ana Silva",
		Email:        "ana@school.edu",
		Password:     "secret123",
		Role:         models.RoleStudent,
		ClassID:      "class-1",
		DepartmentID: "dept-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "student-new", resp.UserID)
	require.NotNil(t, users.createdStudent)
	assert.True(t, users.createdStudent.Active)
	assert.NotEqual(t, "secret123", users.createdStudent.PasswordHash)
}

func TestAuthServiceRegisterDuplicateEmail(t *testing.T) {
	users := &authUserRepoStub{users: map[string]*models.User{}, emailTaken: true}
	svc := newAuthService(users, nil, nil)

	_, err := svc.Register(context.Background(), models.RegisterRequest{
		FullName:     "Ana Silva",
		Email:        "ana@school.edu",
		Password:     "secret123",
		Role:         models.RoleStudent,
		ClassID:      "class-1",
		DepartmentID: "dept-1",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceRegisterStudentClassMismatch(t *testing.T) {
	users := &authUserRepoStub{users: map[string]*models.User{}}
	svc := newAuthService(users, nil, nil)

	_, err := svc.Register(context.Background(), models.RegisterRequest{
		FullName:     "Ana Silva",
		Email:        "ana@school.edu",
		Password:     "secret123",
		Role:         models.RoleStudent,
		ClassID:      "class-1",
		DepartmentID: "dept-other",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceRegisterAdminRefused(t *testing.T) {
	users := &authUserRepoStub{users: map[string]*models.User{}}
	svc := newAuthService(users, nil, nil)

	_, err := svc.Register(context.Background(), models.RegisterRequest{
		FullName: "Root",
		Email:    "root@school.edu",
		Password: "secret123",
		Role:     models.RoleAdmin,
	})
	require.Error(t, err)
}

func TestAuthServiceUpdatePasswordWrongCurrent(t *testing.T) {
	users := &authUserRepoStub{users: map[string]*models.User{
		"user-1": {ID: "user-1", PasswordHash: hashPassword(t, "secret123"), Active: true},
	}}
	svc := newAuthService(users, nil, nil)

	err := svc.UpdatePassword(context.Background(), "user-1", models.UpdatePasswordRequest{
		CurrentPassword: "wrong",
		NewPassword:     "newsecret",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	assert.Empty(t, users.passwordHash)
}

func TestAuthServiceResetPasswordFlow(t *testing.T) {
	users := &authUserRepoStub{users: map[string]*models.User{
		"user-1": {ID: "user-1", Email: "ana@school.edu", PasswordHash: hashPassword(t, "secret123"), Active: true},
	}}
	codes := &resetCodeStoreStub{}
	svc := newAuthService(users, codes, nil)

	require.NoError(t, svc.ForgotPassword(context.Background(), models.ForgotPasswordRequest{Email: "ana@school.edu"}))
	code, ok := codes.stored["ana@school.edu"]
	require.True(t, ok)
	require.Len(t, code, 6)

	require.NoError(t, svc.ResetPassword(context.Background(), models.ResetPasswordRequest{
		Email:            "ana@school.edu",
		ConfirmationCode: code,
		NewPassword:      "newsecret",
	}))
	assert.NotEmpty(t, users.passwordHash)

	// Single use: the same code cannot be replayed.
	err := svc.ResetPassword(context.Background(), models.ResetPasswordRequest{
		Email:            "ana@school.edu",
		ConfirmationCode: code,
		NewPassword:      "another",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceResetPasswordWrongCodeConsumes(t *testing.T) {
	users := &authUserRepoStub{users: map[string]*models.User{
		"user-1": {ID: "user-1", Email: "ana@school.edu", PasswordHash: hashPassword(t, "secret123"), Active: true},
	}}
	codes := &resetCodeStoreStub{stored: map[string]string{"ana@school.edu": "123456"}}
	svc := newAuthService(users, codes, nil)

	err := svc.ResetPassword(context.Background(), models.ResetPasswordRequest{
		Email:            "ana@school.edu",
		ConfirmationCode: "654321",
		NewPassword:      "newsecret",
	})
	require.Error(t, err)
	// A failed attempt still burns the outstanding code.
	_, stillStored := codes.stored["ana@school.edu"]
	assert.False(t, stillStored)
}

func TestAuthServiceForgotPasswordUnknownEmailSilent(t *testing.T) {
	users := &authUserRepoStub{users: map[string]*models.User{}}
	codes := &resetCodeStoreStub{}
	svc := newAuthService(users, codes, nil)

	require.NoError(t, svc.ForgotPassword(context.Background(), models.ForgotPasswordRequest{Email: "ghost@school.edu"}))
	assert.Empty(t, codes.stored)
}
