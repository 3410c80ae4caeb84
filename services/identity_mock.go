package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// MockIdentityGateway is an in-memory IdentityGateway for testing
type MockIdentityGateway struct {
	users      map[string]mockIdentityUser // by email
	tokens     map[string]*Auth0UserInfo   // access token -> user
	resetSent  []string
	lookupErr  error
	nextUserID int
	mu         sync.Mutex
}

type mockIdentityUser struct {
	info     Auth0UserInfo
	password string
}

// NewMockIdentityGateway creates an empty mock identity provider
func NewMockIdentityGateway() *MockIdentityGateway {
	return &MockIdentityGateway{
		users:  make(map[string]mockIdentityUser),
		tokens: make(map[string]*Auth0UserInfo),
	}
}

// SetAsMockForTesting sets this mock as the global identity gateway for testing
func (m *MockIdentityGateway) SetAsMockForTesting() {
	SetIdentityGateway(m)
}

// FailLookups makes CheckEmailExists return err
func (m *MockIdentityGateway) FailLookups(err error) {
	m.mu.Lock()
	m.lookupErr = err
	m.mu.Unlock()
}

// AddUser registers an account directly
func (m *MockIdentityGateway) AddUser(uid, email, name, password string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[strings.ToLower(email)] = mockIdentityUser{
		info:     Auth0UserInfo{Sub: uid, Email: email, Name: name},
		password: password,
	}
}

// SignIn checks the password and issues an opaque token
func (m *MockIdentityGateway) SignIn(_ context.Context, email, password string) (*AuthSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[strings.ToLower(email)]
	if !ok || user.password != password {
		return nil, &IdentityError{Kind: IdentityInvalidCredential, Message: "Wrong email or password."}
	}

	token := "token-" + user.info.Sub
	info := user.info
	m.tokens[token] = &info
	return &AuthSession{AccessToken: token, TokenType: "Bearer", ExpiresIn: 86400}, nil
}

// Register creates an account unless the address is taken or the password is short
func (m *MockIdentityGateway) Register(_ context.Context, email, password, displayName string) (*Principal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.users[strings.ToLower(email)]; exists {
		return nil, &IdentityError{Kind: IdentityEmailInUse, Message: "The user already exists."}
	}
	if len(password) < 6 {
		return nil, &IdentityError{Kind: IdentityWeakPassword, Message: "Password is too weak"}
	}

	m.nextUserID++
	uid := fmt.Sprintf("auth0|mock%d", m.nextUserID)
	m.users[strings.ToLower(email)] = mockIdentityUser{
		info:     Auth0UserInfo{Sub: uid, Email: email, Name: displayName},
		password: password,
	}
	return &Principal{UID: uid, Email: email, DisplayName: displayName}, nil
}

// SendPasswordResetEmail records the request
func (m *MockIdentityGateway) SendPasswordResetEmail(_ context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resetSent = append(m.resetSent, email)
	return nil
}

// CheckEmailExists reports whether an account uses the address
func (m *MockIdentityGateway) CheckEmailExists(_ context.Context, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lookupErr != nil {
		return false, m.lookupErr
	}
	_, exists := m.users[strings.ToLower(email)]
	return exists, nil
}

// GetUserInfo resolves a token issued by SignIn
func (m *MockIdentityGateway) GetUserInfo(_ context.Context, accessToken string) (*Auth0UserInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	info, ok := m.tokens[accessToken]
	if !ok {
		return nil, &IdentityError{Kind: IdentityInvalidCredential, Message: "Unauthorized"}
	}
	return info, nil
}

// PasswordResetsSent returns the addresses reset emails were requested for
func (m *MockIdentityGateway) PasswordResetsSent() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.resetSent...)
}
