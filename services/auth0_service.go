package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/auth0/go-auth0/authentication"
	"github.com/auth0/go-auth0/authentication/database"
	"github.com/auth0/go-auth0/authentication/oauth"
	"github.com/auth0/go-auth0/management"
	"github.com/kendall-kelly/volunteer-hours-api/config"
	"golang.org/x/oauth2"
)

// IdentityErrorKind discriminates identity provider failures for the caller
type IdentityErrorKind string

const (
	IdentityInvalidCredential IdentityErrorKind = "invalid-credential"
	IdentityEmailInUse        IdentityErrorKind = "email-in-use"
	IdentityTooManyRequests   IdentityErrorKind = "too-many-requests"
	IdentityWeakPassword      IdentityErrorKind = "weak-password"
	IdentityInvalidEmail      IdentityErrorKind = "invalid-email"
	IdentityNetworkFailure    IdentityErrorKind = "network-failure"
	IdentityUnknown           IdentityErrorKind = "unknown"
)

// IdentityError is a tagged identity provider failure
type IdentityError struct {
	Kind    IdentityErrorKind
	Message string
}

func (e *IdentityError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// IdentityKind returns the kind of an identity error, or IdentityUnknown
func IdentityKind(err error) IdentityErrorKind {
	var identityErr *IdentityError
	if errors.As(err, &identityErr) {
		return identityErr.Kind
	}
	return IdentityUnknown
}

// Principal is an authenticated identity
type Principal struct {
	UID         string
	Email       string
	DisplayName string
}

// AuthSession is the token set issued on sign-in
type AuthSession struct {
	AccessToken string `json:"access_token"`
	IDToken     string `json:"id_token,omitempty"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// IdentityGateway is the contract of the managed identity provider
type IdentityGateway interface {
	SignIn(ctx context.Context, email, password string) (*AuthSession, error)
	Register(ctx context.Context, email, password, displayName string) (*Principal, error)
	SendPasswordResetEmail(ctx context.Context, email string) error
	CheckEmailExists(ctx context.Context, email string) (bool, error)
	GetUserInfo(ctx context.Context, accessToken string) (*Auth0UserInfo, error)
}

var identityGatewayInstance IdentityGateway

// InitIdentityGateway sets the process-wide identity gateway
func InitIdentityGateway(gateway IdentityGateway) IdentityGateway {
	identityGatewayInstance = gateway
	return identityGatewayInstance
}

// GetIdentityGateway returns the configured identity gateway; by default an
// Auth0Service built from the current config
func GetIdentityGateway() IdentityGateway {
	if identityGatewayInstance != nil {
		return identityGatewayInstance
	}
	return NewAuth0Service(config.GetConfig())
}

// SetIdentityGateway overrides the identity gateway (primarily for testing)
func SetIdentityGateway(gateway IdentityGateway) {
	identityGatewayInstance = gateway
}

// Auth0UserInfo represents the user information returned from Auth0's /userinfo endpoint
type Auth0UserInfo struct {
	Sub   string `json:"sub"` // Auth0 user ID
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Principal converts userinfo into a principal
func (u *Auth0UserInfo) Principal() Principal {
	return Principal{UID: u.Sub, Email: u.Email, DisplayName: u.Name}
}

// Auth0Service handles interactions with the Auth0 Authentication and Management APIs.
// The SDK clients are built on first use and reused afterwards, so the
// management token is fetched once and refreshed by the SDK.
type Auth0Service struct {
	domain       string
	audience     string
	clientID     string
	clientSecret string
	connection   string
	httpClient   *http.Client

	authOnce sync.Once
	auth     *authentication.Authentication
	authErr  error

	mgmtOnce sync.Once
	mgmt     *management.Management
	mgmtErr  error
}

// NewAuth0Service creates a new Auth0 service instance
func NewAuth0Service(cfg *config.Config) *Auth0Service {
	if cfg == nil {
		cfg = &config.Config{}
	}
	return &Auth0Service{
		domain:       cfg.Auth0Domain,
		audience:     cfg.Auth0Audience,
		clientID:     cfg.Auth0ClientID,
		clientSecret: cfg.Auth0ClientSecret,
		connection:   cfg.Auth0Connection,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// baseURL returns the tenant origin. If domain already includes a protocol
// (for testing), it is used as-is.
func (s *Auth0Service) baseURL() string {
	if strings.HasPrefix(s.domain, "http://") || strings.HasPrefix(s.domain, "https://") {
		return strings.TrimSuffix(s.domain, "/")
	}
	return "https://" + s.domain
}

// tenant is the bare host the SDK expects
func (s *Auth0Service) tenant() string {
	return strings.TrimPrefix(strings.TrimPrefix(s.baseURL(), "https://"), "http://")
}

func (s *Auth0Service) authAPI(ctx context.Context) (*authentication.Authentication, error) {
	s.authOnce.Do(func() {
		s.auth, s.authErr = authentication.New(
			context.WithoutCancel(ctx),
			s.tenant(),
			authentication.WithClientID(s.clientID),
			authentication.WithClientSecret(s.clientSecret),
			authentication.WithClient(s.httpClient),
		)
	})
	if s.authErr != nil {
		return nil, &IdentityError{Kind: IdentityUnknown, Message: fmt.Sprintf("failed to create Auth0 client: %v", s.authErr)}
	}
	return s.auth, nil
}

func (s *Auth0Service) managementAPI(ctx context.Context) (*management.Management, error) {
	s.mgmtOnce.Do(func() {
		// the client-credentials token source outlives this request
		tokenCtx := context.WithValue(context.WithoutCancel(ctx), oauth2.HTTPClient, s.httpClient)
		s.mgmt, s.mgmtErr = management.New(
			s.tenant(),
			management.WithClientCredentials(tokenCtx, s.clientID, s.clientSecret),
			management.WithClient(s.httpClient),
		)
	})
	if s.mgmtErr != nil {
		return nil, &IdentityError{Kind: IdentityUnknown, Message: fmt.Sprintf("failed to create Auth0 management client: %v", s.mgmtErr)}
	}
	return s.mgmt, nil
}

// GetUserInfo fetches user information from Auth0's /userinfo endpoint
// accessToken is the JWT access token from the Authorization header
func (s *Auth0Service) GetUserInfo(ctx context.Context, accessToken string) (*Auth0UserInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL()+"/userinfo", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Add("Authorization", "Bearer "+accessToken)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		log.Printf("Auth0 userinfo request failed: %v", err)
		return nil, &IdentityError{Kind: IdentityNetworkFailure, Message: err.Error()}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &IdentityError{Kind: IdentityNetworkFailure, Message: fmt.Sprintf("failed to read response: %v", err)}
	}
	if resp.StatusCode != http.StatusOK {
		log.Printf("Auth0 userinfo returned status %d: %s", resp.StatusCode, string(body))
		return nil, classifyAuth0Error(resp.StatusCode, "", http.StatusText(resp.StatusCode))
	}

	var userInfo Auth0UserInfo
	if err := json.Unmarshal(body, &userInfo); err != nil {
		return nil, fmt.Errorf("failed to decode userinfo response: %w", err)
	}
	return &userInfo, nil
}

// SignIn exchanges email and password for tokens (password realm grant)
func (s *Auth0Service) SignIn(ctx context.Context, email, password string) (*AuthSession, error) {
	if email == "" || password == "" {
		return nil, &IdentityError{Kind: IdentityInvalidCredential, Message: "email and password are required"}
	}

	api, err := s.authAPI(ctx)
	if err != nil {
		return nil, err
	}

	tokens, err := api.OAuth.LoginWithPassword(ctx, oauth.LoginWithPasswordRequest{
		Username: email,
		Password: password,
		Realm:    s.connection,
		Audience: s.audience,
		Scope:    "openid profile email",
	}, oauth.IDTokenValidationOptions{})
	if err != nil {
		return nil, identityErrorFrom("sign in", err)
	}

	return &AuthSession{
		AccessToken: tokens.AccessToken,
		IDToken:     tokens.IDToken,
		TokenType:   tokens.TokenType,
		ExpiresIn:   int(tokens.ExpiresIn),
	}, nil
}

// Register creates a database-connection user
func (s *Auth0Service) Register(ctx context.Context, email, password, displayName string) (*Principal, error) {
	api, err := s.authAPI(ctx)
	if err != nil {
		return nil, err
	}

	created, err := api.Database.Signup(ctx, database.SignupRequest{
		ClientID:   s.clientID,
		Connection: s.connection,
		Email:      email,
		Password:   password,
		Name:       displayName,
	})
	if err != nil {
		return nil, identityErrorFrom("sign up", err)
	}

	return &Principal{
		UID:         "auth0|" + created.ID,
		Email:       created.Email,
		DisplayName: displayName,
	}, nil
}

// SendPasswordResetEmail asks Auth0 to send a reset link. Auth0 answers the
// same way whether or not the address exists.
func (s *Auth0Service) SendPasswordResetEmail(ctx context.Context, email string) error {
	api, err := s.authAPI(ctx)
	if err != nil {
		return err
	}

	if _, err := api.Database.ChangePassword(ctx, database.ChangePasswordRequest{
		ClientID:   s.clientID,
		Connection: s.connection,
		Email:      email,
	}); err != nil {
		return identityErrorFrom("password reset", err)
	}
	return nil
}

// CheckEmailExists looks the address up through the Management API
func (s *Auth0Service) CheckEmailExists(ctx context.Context, email string) (bool, error) {
	api, err := s.managementAPI(ctx)
	if err != nil {
		return false, err
	}

	users, err := api.User.ListByEmail(ctx, email)
	if err != nil {
		return false, identityErrorFrom("users-by-email", err)
	}
	return len(users) > 0, nil
}

// identityErrorFrom maps SDK errors onto IdentityError. Anything that is not an
// API response (dial, TLS, token fetch) counts as a network failure.
func identityErrorFrom(operation string, err error) *IdentityError {
	log.Printf("Auth0 %s failed: %v", operation, err)

	var authErr *authentication.Error
	if errors.As(err, &authErr) {
		return classifyAuth0Error(authErr.StatusCode, authErr.Err, authErr.Message)
	}

	var mgmtErr management.Error
	if errors.As(err, &mgmtErr) {
		return classifyAuth0Error(mgmtErr.Status(), "", mgmtErr.Error())
	}

	return &IdentityError{Kind: IdentityNetworkFailure, Message: err.Error()}
}

// classifyAuth0Error maps an Auth0 status, error code and description to a kind.
// The SDK does not always keep the code, so the description is matched too.
func classifyAuth0Error(status int, code, message string) *IdentityError {
	if message == "" {
		message = http.StatusText(status)
	}
	text := strings.ToLower(code + " " + message)

	kind := IdentityUnknown
	switch {
	case status == http.StatusTooManyRequests || strings.Contains(text, "too_many_attempts") || strings.Contains(text, "too many"):
		kind = IdentityTooManyRequests
	case status == http.StatusUnauthorized || status == http.StatusForbidden ||
		strings.Contains(text, "invalid_grant") || strings.Contains(text, "access_denied"):
		kind = IdentityInvalidCredential
	case strings.Contains(text, "user_exists") || strings.Contains(text, "username_exists") ||
		strings.Contains(text, "invalid_signup") || strings.Contains(text, "invalid sign up") ||
		strings.Contains(text, "already exists"):
		kind = IdentityEmailInUse
	case strings.Contains(text, "password"):
		kind = IdentityWeakPassword
	case strings.Contains(text, "bad.email") || strings.Contains(text, "invalid_email") || strings.Contains(text, "invalid email"):
		kind = IdentityInvalidEmail
	case status >= 500:
		kind = IdentityNetworkFailure
	}

	return &IdentityError{Kind: kind, Message: message}
}
