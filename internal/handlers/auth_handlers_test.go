package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/workshala/server/internal/config"
	"github.com/workshala/server/internal/models"
	"github.com/workshala/server/internal/service"
)

// --- fakes ---

type fakeUserStore struct {
	users map[string]*models.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: map[string]*models.User{}}
}

func (f *fakeUserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	user, ok := f.users[email]
	if !ok {
		return nil, nil
	}
	cp := *user
	return &cp, nil
}

func (f *fakeUserStore) Create(ctx context.Context, user *models.User) error {
	if _, ok := f.users[user.Email]; ok {
		return fmt.Errorf("user already exists")
	}
	cp := *user
	f.users[user.Email] = &cp
	return nil
}

func (f *fakeUserStore) RefreshPending(ctx context.Context, email, name, contact, passwordHash string, vt models.VerificationToken) error {
	user, ok := f.users[email]
	if !ok {
		return fmt.Errorf("user not found")
	}
	user.Name = name
	user.Contact = contact
	user.PasswordHash = passwordHash
	user.VerificationToken = &vt
	return nil
}

func (f *fakeUserStore) MarkVerified(ctx context.Context, email string) error {
	user, ok := f.users[email]
	if !ok {
		return fmt.Errorf("user not found")
	}
	user.IsVerified = true
	user.VerificationToken = nil
	return nil
}

func (f *fakeUserStore) UpdatePassword(ctx context.Context, email, passwordHash string) error {
	user, ok := f.users[email]
	if !ok {
		return fmt.Errorf("user not found")
	}
	user.PasswordHash = passwordHash
	return nil
}

type verifyEntry struct {
	email     string
	expiresAt time.Time
}

type fakeVerifyStore struct {
	tokens map[string]verifyEntry
}

func newFakeVerifyStore() *fakeVerifyStore {
	return &fakeVerifyStore{tokens: map[string]verifyEntry{}}
}

func (f *fakeVerifyStore) Store(ctx context.Context, token, email string, expiresAt time.Time) error {
	f.tokens[token] = verifyEntry{email: email, expiresAt: expiresAt}
	return nil
}

func (f *fakeVerifyStore) Lookup(ctx context.Context, token string) (string, time.Time, error) {
	entry, ok := f.tokens[token]
	if !ok {
		return "", time.Time{}, nil
	}
	return entry.email, entry.expiresAt, nil
}

func (f *fakeVerifyStore) Delete(ctx context.Context, token string) error {
	delete(f.tokens, token)
	return nil
}

// fakeOTPRecords implements service.OTPStore so the real OTPService can run
// against memory in tests.
type fakeOTPRecords struct {
	records map[string]models.OTPRecord
}

func newFakeOTPRecords() *fakeOTPRecords {
	return &fakeOTPRecords{records: map[string]models.OTPRecord{}}
}

func (f *fakeOTPRecords) Save(ctx context.Context, record models.OTPRecord) error {
	f.records[record.Email] = record
	return nil
}

func (f *fakeOTPRecords) Get(ctx context.Context, email string) (*models.OTPRecord, error) {
	record, ok := f.records[email]
	if !ok {
		return nil, nil
	}
	return &record, nil
}

func (f *fakeOTPRecords) Delete(ctx context.Context, email string) error {
	delete(f.records, email)
	return nil
}

// recordingMailer captures dispatched artifacts so tests can replay them.
type recordingMailer struct {
	links []string
	codes []string
}

func (m *recordingMailer) EnqueueVerificationEmail(ctx context.Context, email, link string) error {
	m.links = append(m.links, link)
	return nil
}

func (m *recordingMailer) EnqueueOTPEmail(ctx context.Context, email, code string) error {
	m.codes = append(m.codes, code)
	return nil
}

type authFixture struct {
	handlers *AuthHandlers
	users    *fakeUserStore
	verify   *fakeVerifyStore
	otp      *fakeOTPRecords
	tokens   *service.TokenService
	mailer   *recordingMailer
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	logger := logrus.New()
	tokens, err := service.NewTokenService(&config.JWTConfig{
		SecretKey:     "0123456789abcdef0123456789abcdef",
		AccessExpiry:  15 * time.Minute,
		RefreshExpiry: 24 * time.Hour,
		ResetExpiry:   10 * time.Minute,
	}, logger)
	require.NoError(t, err)

	users := newFakeUserStore()
	verify := newFakeVerifyStore()
	otpRecords := newFakeOTPRecords()
	otpService := service.NewOTPService(otpRecords, &config.OTPConfig{Expiry: 10 * time.Minute, MaxAttempts: 5}, logger)
	mailer := &recordingMailer{}

	mailCfg := &config.MailConfig{
		Sender:        "no-reply@workshala.app",
		VerifyBaseURL: "https://workshala.app/verifyEmailPage",
		VerifyExpiry:  24 * time.Hour,
	}

	return &authFixture{
		handlers: NewAuthHandlers(users, verify, otpService, tokens, mailer, mailCfg, logger),
		users:    users,
		verify:   verify,
		otp:      otpRecords,
		tokens:   tokens,
		mailer:   mailer,
	}
}

func doJSON(t *testing.T, handler http.HandlerFunc, method, target string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, target, &buf)
	rec := httptest.NewRecorder()
	handler(rec, req)

	decoded := map[string]interface{}{}
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	}
	return rec, decoded
}

func signupBody(email string) map[string]string {
	return map[string]string{
		"email":    email,
		"password": "password1",
		"name":     "A",
		"number":   "5551234567",
	}
}

// --- signup ---

func TestSignup_CreatesPendingUser(t *testing.T) {
	t.Parallel()

	fx := newAuthFixture(t)
	rec, body := doJSON(t, fx.handlers.Signup, http.MethodPost, "/signup", signupBody("a@x.com"))

	require.Equal(t, http.StatusCreated, rec.Code)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "a@x.com", data["email"])
	assert.Equal(t, "A", data["name"])

	require.Len(t, fx.users.users, 1)
	user := fx.users.users["a@x.com"]
	assert.False(t, user.IsVerified)
	assert.NotEqual(t, "password1", user.PasswordHash)
	assert.True(t, service.CheckPassword(user.PasswordHash, "password1"))
	require.NotNil(t, user.VerificationToken)
	assert.Len(t, fx.verify.tokens, 1)
	assert.Len(t, fx.mailer.links, 1)
}

func TestSignup_ValidationErrors(t *testing.T) {
	t.Parallel()

	fx := newAuthFixture(t)
	rec, body := doJSON(t, fx.handlers.Signup, http.MethodPost, "/signup", map[string]string{
		"email":    "not-an-email",
		"password": "short",
	})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	errs := body["errors"].(map[string]interface{})
	assert.Contains(t, errs, "email")
	assert.Contains(t, errs, "password")
	assert.Contains(t, errs, "name")
	assert.Empty(t, fx.users.users)
}

func TestSignup_PasswordLengthBoundary(t *testing.T) {
	t.Parallel()

	fx := newAuthFixture(t)

	// 100 ASCII characters: caught by request validation, itemized 400.
	body := signupBody("a@x.com")
	body["password"] = strings.Repeat("p", 100)
	rec, resp := doJSON(t, fx.handlers.Signup, http.MethodPost, "/signup", body)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	errs := resp["errors"].(map[string]interface{})
	assert.Contains(t, errs, "password")

	// 72 runes but 144 bytes: passes the rune-counted validator, must still
	// come back as an itemized 400 rather than a 500 from the hasher.
	body["password"] = strings.Repeat("é", 72)
	rec, resp = doJSON(t, fx.handlers.Signup, http.MethodPost, "/signup", body)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	errs = resp["errors"].(map[string]interface{})
	assert.Contains(t, errs, "password")

	assert.Empty(t, fx.users.users)
}

func TestSignup_ResignupRefreshesArtifact(t *testing.T) {
	t.Parallel()

	fx := newAuthFixture(t)

	rec, _ := doJSON(t, fx.handlers.Signup, http.MethodPost, "/signup", signupBody("a@x.com"))
	require.Equal(t, http.StatusCreated, rec.Code)
	firstToken := fx.users.users["a@x.com"].VerificationToken.Token

	rec, _ = doJSON(t, fx.handlers.Signup, http.MethodPost, "/signup", signupBody("a@x.com"))
	require.Equal(t, http.StatusOK, rec.Code)

	require.Len(t, fx.users.users, 1, "re-signup must not create a second record")
	secondToken := fx.users.users["a@x.com"].VerificationToken.Token
	assert.NotEqual(t, firstToken, secondToken)

	_, ok := fx.verify.tokens[firstToken]
	assert.False(t, ok, "superseded token must be removed")
	_, ok = fx.verify.tokens[secondToken]
	assert.True(t, ok)
	assert.Len(t, fx.mailer.links, 2, "notification re-dispatched")
}

func TestSignup_VerifiedConflict(t *testing.T) {
	t.Parallel()

	fx := newAuthFixture(t)
	fx.users.users["a@x.com"] = &models.User{Email: "a@x.com", IsVerified: true}

	rec, _ := doJSON(t, fx.handlers.Signup, http.MethodPost, "/signup", signupBody("a@x.com"))
	require.Equal(t, http.StatusConflict, rec.Code)
}

// --- verify email ---

func TestVerifyEmail(t *testing.T) {
	t.Parallel()

	fx := newAuthFixture(t)
	doJSON(t, fx.handlers.Signup, http.MethodPost, "/signup", signupBody("a@x.com"))
	token := fx.users.users["a@x.com"].VerificationToken.Token

	req := httptest.NewRequest(http.MethodGet, "/verify?token="+token, nil)
	rec := httptest.NewRecorder()
	fx.handlers.VerifyEmail(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.True(t, fx.users.users["a@x.com"].IsVerified)
	assert.Nil(t, fx.users.users["a@x.com"].VerificationToken)

	// A consumed token cannot verify again.
	rec = httptest.NewRecorder()
	fx.handlers.VerifyEmail(rec, httptest.NewRequest(http.MethodGet, "/verify?token="+token, nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestVerifyEmail_UnknownOrExpired(t *testing.T) {
	t.Parallel()

	fx := newAuthFixture(t)

	rec := httptest.NewRecorder()
	fx.handlers.VerifyEmail(rec, httptest.NewRequest(http.MethodGet, "/verify?token=deadbeef", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)

	fx.users.users["a@x.com"] = &models.User{Email: "a@x.com"}
	fx.verify.tokens["stale"] = verifyEntry{email: "a@x.com", expiresAt: time.Now().Add(-time.Hour)}

	rec = httptest.NewRecorder()
	fx.handlers.VerifyEmail(rec, httptest.NewRequest(http.MethodGet, "/verify?token=stale", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.False(t, fx.users.users["a@x.com"].IsVerified)
}

// --- login ---

func verifiedUser(t *testing.T, fx *authFixture, email, password string) {
	t.Helper()
	hash, err := service.HashPassword(password)
	require.NoError(t, err)
	fx.users.users[email] = &models.User{
		Email:        email,
		Name:         "A",
		PasswordHash: hash,
		IsVerified:   true,
	}
}

func TestLogin_UnknownEmail(t *testing.T) {
	t.Parallel()

	fx := newAuthFixture(t)
	rec, _ := doJSON(t, fx.handlers.Login, http.MethodPost, "/login", map[string]string{
		"email": "nobody@x.com", "password": "pw",
	})
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLogin_UnverifiedRejectedEvenWithCorrectPassword(t *testing.T) {
	t.Parallel()

	fx := newAuthFixture(t)
	hash, err := service.HashPassword("password1")
	require.NoError(t, err)
	fx.users.users["a@x.com"] = &models.User{Email: "a@x.com", PasswordHash: hash, IsVerified: false}

	rec, _ := doJSON(t, fx.handlers.Login, http.MethodPost, "/login", map[string]string{
		"email": "a@x.com", "password": "password1",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogin_WrongPassword(t *testing.T) {
	t.Parallel()

	fx := newAuthFixture(t)
	verifiedUser(t, fx, "a@x.com", "password1")

	rec, _ := doJSON(t, fx.handlers.Login, http.MethodPost, "/login", map[string]string{
		"email": "a@x.com", "password": "wrong-password",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogin_Success(t *testing.T) {
	t.Parallel()

	fx := newAuthFixture(t)
	verifiedUser(t, fx, "a@x.com", "password1")

	rec, body := doJSON(t, fx.handlers.Login, http.MethodPost, "/login", map[string]string{
		"email": "a@x.com", "password": "password1",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	user := body["user"].(map[string]interface{})
	assert.Equal(t, "a@x.com", user["email"])

	email, err := fx.tokens.VerifyAccessToken(body["accessToken"].(string))
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", email)

	email, err = fx.tokens.VerifyRefreshToken(body["refreshToken"].(string))
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", email)
}

// --- refresh ---

func TestRefreshToken_Missing(t *testing.T) {
	t.Parallel()

	fx := newAuthFixture(t)
	rec, _ := doJSON(t, fx.handlers.RefreshToken, http.MethodPost, "/refresh-token", map[string]string{})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRefreshToken_Invalid(t *testing.T) {
	t.Parallel()

	fx := newAuthFixture(t)
	rec, _ := doJSON(t, fx.handlers.RefreshToken, http.MethodPost, "/refresh-token", map[string]string{
		"refToken": "garbage",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	// An access token is not acceptable as a refresh token.
	access, err := fx.tokens.SignAccessToken("a@x.com")
	require.NoError(t, err)
	rec, _ = doJSON(t, fx.handlers.RefreshToken, http.MethodPost, "/refresh-token", map[string]string{
		"refToken": access,
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRefreshToken_Success(t *testing.T) {
	t.Parallel()

	fx := newAuthFixture(t)
	refresh, err := fx.tokens.SignRefreshToken("a@x.com")
	require.NoError(t, err)

	rec, body := doJSON(t, fx.handlers.RefreshToken, http.MethodPost, "/refresh-token", map[string]string{
		"refToken": refresh,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	email, err := fx.tokens.VerifyAccessToken(body["accessToken"].(string))
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", email)

	email, err = fx.tokens.VerifyRefreshToken(body["refreshToken"].(string))
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", email)
}

// --- forgot password / verify otp / change password ---

func TestForgotPassword_UnknownAndUnverified(t *testing.T) {
	t.Parallel()

	fx := newAuthFixture(t)
	rec, _ := doJSON(t, fx.handlers.ForgotPassword, http.MethodPost, "/forgot-password", map[string]string{
		"email": "nobody@x.com",
	})
	require.Equal(t, http.StatusNotFound, rec.Code)

	fx.users.users["a@x.com"] = &models.User{Email: "a@x.com", IsVerified: false}
	rec, _ = doJSON(t, fx.handlers.ForgotPassword, http.MethodPost, "/forgot-password", map[string]string{
		"email": "a@x.com",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestForgotPassword_IssuesOTP(t *testing.T) {
	t.Parallel()

	fx := newAuthFixture(t)
	verifiedUser(t, fx, "a@x.com", "password1")

	rec, body := doJSON(t, fx.handlers.ForgotPassword, http.MethodPost, "/forgot-password", map[string]string{
		"email": "a@x.com",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
	require.Len(t, fx.mailer.codes, 1)
	require.Len(t, fx.otp.records, 1)
}

func TestVerifyOTP_NotFound(t *testing.T) {
	t.Parallel()

	fx := newAuthFixture(t)
	rec, _ := doJSON(t, fx.handlers.VerifyOTP, http.MethodPost, "/verify-otp", map[string]string{
		"email": "a@x.com", "otp": "1234",
	})
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestVerifyOTP_MismatchReturnsEarly(t *testing.T) {
	t.Parallel()

	fx := newAuthFixture(t)
	verifiedUser(t, fx, "a@x.com", "password1")
	doJSON(t, fx.handlers.ForgotPassword, http.MethodPost, "/forgot-password", map[string]string{"email": "a@x.com"})
	code := fx.mailer.codes[0]

	wrong := "1234"
	if wrong == code {
		wrong = "4321"
	}
	rec, body := doJSON(t, fx.handlers.VerifyOTP, http.MethodPost, "/verify-otp", map[string]string{
		"email": "a@x.com", "otp": wrong,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	_, hasData := body["data"]
	assert.False(t, hasData, "mismatch must not hand out a reset token")
}

func TestVerifyOTP_SuccessIsOneTime(t *testing.T) {
	t.Parallel()

	fx := newAuthFixture(t)
	verifiedUser(t, fx, "a@x.com", "password1")
	doJSON(t, fx.handlers.ForgotPassword, http.MethodPost, "/forgot-password", map[string]string{"email": "a@x.com"})
	code := fx.mailer.codes[0]

	rec, body := doJSON(t, fx.handlers.VerifyOTP, http.MethodPost, "/verify-otp", map[string]string{
		"email": "a@x.com", "otp": code,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	data := body["data"].(map[string]interface{})
	resetToken := data["resetPasswordToken"].(string)
	email, err := fx.tokens.VerifyResetToken(resetToken)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", email)

	// Replaying the same code fails: the record was consumed.
	rec, _ = doJSON(t, fx.handlers.VerifyOTP, http.MethodPost, "/verify-otp", map[string]string{
		"email": "a@x.com", "otp": code,
	})
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestVerifyOTP_LockedAfterRepeatedGuesses(t *testing.T) {
	t.Parallel()

	fx := newAuthFixture(t)
	verifiedUser(t, fx, "a@x.com", "password1")
	doJSON(t, fx.handlers.ForgotPassword, http.MethodPost, "/forgot-password", map[string]string{"email": "a@x.com"})
	code := fx.mailer.codes[0]

	wrong := "1234"
	if wrong == code {
		wrong = "4321"
	}

	// The fixture allows 5 wrong guesses.
	for i := 0; i < 5; i++ {
		rec, _ := doJSON(t, fx.handlers.VerifyOTP, http.MethodPost, "/verify-otp", map[string]string{
			"email": "a@x.com", "otp": wrong,
		})
		require.Equal(t, http.StatusBadRequest, rec.Code)
	}

	// The correct code no longer helps; the record is invalidated.
	rec, body := doJSON(t, fx.handlers.VerifyOTP, http.MethodPost, "/verify-otp", map[string]string{
		"email": "a@x.com", "otp": code,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Too many invalid attempts", body["message"])

	rec, _ = doJSON(t, fx.handlers.VerifyOTP, http.MethodPost, "/verify-otp", map[string]string{
		"email": "a@x.com", "otp": code,
	})
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func changePasswordRequestWithToken(t *testing.T, token string, body interface{}) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(body))
	req := httptest.NewRequest(http.MethodPost, "/change-password", &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func TestChangePassword_MissingHeader(t *testing.T) {
	t.Parallel()

	fx := newAuthFixture(t)
	req := changePasswordRequestWithToken(t, "", map[string]string{
		"email": "a@x.com", "newPassword": "password2",
	})
	rec := httptest.NewRecorder()
	fx.handlers.ChangePassword(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestChangePassword_InvalidToken(t *testing.T) {
	t.Parallel()

	fx := newAuthFixture(t)
	req := changePasswordRequestWithToken(t, "garbage", map[string]string{
		"email": "a@x.com", "newPassword": "password2",
	})
	rec := httptest.NewRecorder()
	fx.handlers.ChangePassword(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	// An access token must not authorize a password change.
	access, err := fx.tokens.SignAccessToken("a@x.com")
	require.NoError(t, err)
	req = changePasswordRequestWithToken(t, access, map[string]string{
		"email": "a@x.com", "newPassword": "password2",
	})
	rec = httptest.NewRecorder()
	fx.handlers.ChangePassword(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChangePassword_EmailMismatch(t *testing.T) {
	t.Parallel()

	fx := newAuthFixture(t)
	verifiedUser(t, fx, "a@x.com", "password1")
	token, err := fx.tokens.SignResetToken("a@x.com")
	require.NoError(t, err)

	req := changePasswordRequestWithToken(t, token, map[string]string{
		"email": "b@x.com", "newPassword": "password2",
	})
	rec := httptest.NewRecorder()
	fx.handlers.ChangePassword(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChangePassword_PasswordLengthBoundary(t *testing.T) {
	t.Parallel()

	fx := newAuthFixture(t)
	verifiedUser(t, fx, "a@x.com", "password1")
	token, err := fx.tokens.SignResetToken("a@x.com")
	require.NoError(t, err)

	for _, password := range []string{
		strings.Repeat("p", 100), // fails validation outright
		strings.Repeat("é", 72),  // 72 runes, 144 bytes: fails at the hasher
	} {
		req := changePasswordRequestWithToken(t, token, map[string]string{
			"email": "a@x.com", "newPassword": password,
		})
		rec := httptest.NewRecorder()
		fx.handlers.ChangePassword(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code)

		resp := map[string]interface{}{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		errs := resp["errors"].(map[string]interface{})
		assert.Contains(t, errs, "newPassword")
	}

	assert.True(t, service.CheckPassword(fx.users.users["a@x.com"].PasswordHash, "password1"),
		"password must be unchanged")
}

func TestChangePassword_Success(t *testing.T) {
	t.Parallel()

	fx := newAuthFixture(t)
	verifiedUser(t, fx, "a@x.com", "password1")
	token, err := fx.tokens.SignResetToken("a@x.com")
	require.NoError(t, err)

	req := changePasswordRequestWithToken(t, token, map[string]string{
		"email": "a@x.com", "newPassword": "password2",
	})
	rec := httptest.NewRecorder()
	fx.handlers.ChangePassword(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	user := fx.users.users["a@x.com"]
	assert.True(t, service.CheckPassword(user.PasswordHash, "password2"))
	assert.False(t, service.CheckPassword(user.PasswordHash, "password1"))
}

// --- end-to-end scenario ---

func TestSignupVerifyLoginScenario(t *testing.T) {
	t.Parallel()

	fx := newAuthFixture(t)

	rec, _ := doJSON(t, fx.handlers.Signup, http.MethodPost, "/signup", signupBody("a@x.com"))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, _ = doJSON(t, fx.handlers.Signup, http.MethodPost, "/signup", signupBody("a@x.com"))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, fx.users.users, 1)

	token := fx.users.users["a@x.com"].VerificationToken.Token
	verifyRec := httptest.NewRecorder()
	fx.handlers.VerifyEmail(verifyRec, httptest.NewRequest(http.MethodGet, "/verify?token="+token, nil))
	require.Equal(t, http.StatusOK, verifyRec.Code)
	require.True(t, fx.users.users["a@x.com"].IsVerified)

	rec, body := doJSON(t, fx.handlers.Login, http.MethodPost, "/login", map[string]string{
		"email": "a@x.com", "password": "password1",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, body["accessToken"])
	assert.NotEmpty(t, body["refreshToken"])

	rec, _ = doJSON(t, fx.handlers.Login, http.MethodPost, "/login", map[string]string{
		"email": "a@x.com", "password": "wrong-password",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
