package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/martin13396/secure-media-library/internal/domain"
	"github.com/martin13396/secure-media-library/internal/dto"
)

type authFixture struct {
	auth     AuthService
	sessions SessionService
	users    *mockUserRepo
	tokens   *TokenManager
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hashing fixture password: %v", err)
	}

	users := newMockUserRepo(&domain.User{
		ID:           "user-1",
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: string(hash),
		DisplayName:  "Alice",
		Role:         domain.RoleUser,
		IsActive:     true,
	})

	tokens := testTokenManager()
	sessions := NewSessionService(newMockSessionRepo(), newMockSessionCache(), 7*24*time.Hour, nil)

	auth, err := NewAuthService(users, sessions, tokens, &AuthServiceConfig{BcryptCost: bcrypt.MinCost}, nil)
	if err != nil {
		t.Fatalf("NewAuthService failed: %v", err)
	}
	return &authFixture{auth: auth, sessions: sessions, users: users, tokens: tokens}
}

func (f *authFixture) login(t *testing.T, deviceID string) *dto.LoginResponse {
	t.Helper()
	resp, err := f.auth.Login(context.Background(), &dto.LoginRequest{
		Identifier: "alice@example.com",
		Password:   "correct horse",
		DeviceID:   deviceID,
		DeviceName: "test device",
	}, "10.8.0.2")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	return resp
}

func TestAuthService_Login(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	resp := f.login(t, "device-a")

	claims, err := f.tokens.VerifyAccessToken(resp.AccessToken)
	if err != nil {
		t.Fatalf("issued access token does not verify: %v", err)
	}
	if claims.UserID != "user-1" {
		t.Errorf("claims UserID = %q, want user-1", claims.UserID)
	}
	if resp.User.Email != "alice@example.com" {
		t.Errorf("response user email = %q", resp.User.Email)
	}

	// Both tokens must carry the id of the session that was actually stored
	session, err := f.sessions.Get(ctx, claims.SessionID)
	if err != nil {
		t.Fatalf("session behind the access token not found: %v", err)
	}
	refreshClaims, err := f.tokens.VerifyRefreshToken(resp.RefreshToken)
	if err != nil {
		t.Fatalf("issued refresh token does not verify: %v", err)
	}
	if refreshClaims.SessionID != session.ID {
		t.Errorf("refresh token bound to %q, session is %q", refreshClaims.SessionID, session.ID)
	}
	if session.IPAddress != "10.8.0.2" {
		t.Errorf("session origin = %q, want 10.8.0.2", session.IPAddress)
	}

	user, err := f.users.GetByID(ctx, "user-1")
	if err != nil || user == nil {
		t.Fatalf("user lookup failed: %v", err)
	}
	if user.LastLoginAt == nil {
		t.Error("last login not stamped")
	}
}

func TestAuthService_LoginByUsername(t *testing.T) {
	f := newAuthFixture(t)

	if _, err := f.auth.Login(context.Background(), &dto.LoginRequest{
		Identifier: "alice",
		Password:   "correct horse",
		DeviceID:   "device-a",
	}, "10.8.0.2"); err != nil {
		t.Fatalf("username login failed: %v", err)
	}
}

func TestAuthService_LoginFailuresAreUniform(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	// Wrong password and unknown identifier must be indistinguishable
	_, errWrongPassword := f.auth.Login(ctx, &dto.LoginRequest{
		Identifier: "alice@example.com",
		Password:   "wrong",
		DeviceID:   "device-a",
	}, "10.8.0.2")
	_, errUnknownUser := f.auth.Login(ctx, &dto.LoginRequest{
		Identifier: "nobody@example.com",
		Password:   "wrong",
		DeviceID:   "device-a",
	}, "10.8.0.2")

	if !errors.Is(errWrongPassword, ErrInvalidCredentials) {
		t.Errorf("wrong password: %v, want ErrInvalidCredentials", errWrongPassword)
	}
	if !errors.Is(errUnknownUser, ErrInvalidCredentials) {
		t.Errorf("unknown identifier: %v, want ErrInvalidCredentials", errUnknownUser)
	}
	if errWrongPassword.Error() != errUnknownUser.Error() {
		t.Error("failure messages differ between wrong password and unknown user")
	}
}

func TestAuthService_LoginReplacesDeviceSession(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	first := f.login(t, "device-a")
	second := f.login(t, "device-a")

	if _, err := f.auth.Refresh(ctx, first.RefreshToken); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("refresh with replaced token: %v, want ErrSessionNotFound", err)
	}
	if _, err := f.auth.Refresh(ctx, second.RefreshToken); err != nil {
		t.Errorf("refresh with current token failed: %v", err)
	}
}

func TestAuthService_Refresh(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	login := f.login(t, "device-a")

	resp, err := f.auth.Refresh(ctx, login.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	claims, err := f.tokens.VerifyAccessToken(resp.AccessToken)
	if err != nil {
		t.Fatalf("refreshed access token does not verify: %v", err)
	}
	loginClaims, err := f.tokens.VerifyRefreshToken(login.RefreshToken)
	if err != nil {
		t.Fatalf("verify login refresh token: %v", err)
	}
	if claims.SessionID != loginClaims.SessionID {
		t.Errorf("refresh moved the session: %q vs %q", claims.SessionID, loginClaims.SessionID)
	}
}

func TestAuthService_RefreshRejectsAccessToken(t *testing.T) {
	f := newAuthFixture(t)

	login := f.login(t, "device-a")

	if _, err := f.auth.Refresh(context.Background(), login.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("access token accepted for refresh: %v", err)
	}
}

func TestAuthService_RefreshAfterRevoke(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	login := f.login(t, "device-a")
	claims, err := f.tokens.VerifyRefreshToken(login.RefreshToken)
	if err != nil {
		t.Fatalf("verify refresh token: %v", err)
	}
	if err := f.sessions.Revoke(ctx, claims.SessionID); err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}

	if _, err := f.auth.Refresh(ctx, login.RefreshToken); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("refresh after revoke: %v, want ErrSessionNotFound", err)
	}
}

func TestAuthService_RefreshInactiveUser(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	login := f.login(t, "device-a")

	f.users.mu.Lock()
	f.users.users["user-1"].IsActive = false
	f.users.mu.Unlock()

	if _, err := f.auth.Refresh(ctx, login.RefreshToken); !errors.Is(err, ErrUserInactive) {
		t.Errorf("refresh for inactive user: %v, want ErrUserInactive", err)
	}
}

func TestAuthService_Logout(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	login := f.login(t, "device-a")

	revoked, err := f.auth.Logout(ctx, login.RefreshToken, false)
	if err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if revoked != 1 {
		t.Errorf("revoked = %d, want 1", revoked)
	}

	// Second logout with the same token is a no-op
	revoked, err = f.auth.Logout(ctx, login.RefreshToken, false)
	if err != nil {
		t.Fatalf("repeat Logout failed: %v", err)
	}
	if revoked != 0 {
		t.Errorf("repeat logout revoked = %d, want 0", revoked)
	}
}

func TestAuthService_LogoutAll(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	f.login(t, "device-a")
	second := f.login(t, "device-b")

	revoked, err := f.auth.Logout(ctx, second.RefreshToken, true)
	if err != nil {
		t.Fatalf("Logout all failed: %v", err)
	}
	if revoked != 2 {
		t.Errorf("revoked = %d, want 2", revoked)
	}

	sessions, err := f.sessions.List(ctx, "user-1")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(sessions) != 0 {
		t.Errorf("%d sessions remain after logout all", len(sessions))
	}
}
