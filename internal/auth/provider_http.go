package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	id "usemy/pkg/domain"
	derrors "usemy/pkg/domain-errors"
	"usemy/pkg/platform/sentinel"
)

// HTTPProvider talks to a hosted auth API (GoTrue-compatible endpoints:
// /token, /signup, /logout). It keeps the current session in memory and
// republishes auth transitions on the change stream.
type HTTPProvider struct {
	baseURL string
	apiKey  string
	client  *http.Client

	mu      sync.Mutex
	current *Session
	bc      *Broadcaster
}

func NewHTTPProvider(baseURL, apiKey string) *HTTPProvider {
	p := &HTTPProvider{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
	p.bc = NewBroadcaster(p.snapshot)
	return p
}

func (p *HTTPProvider) snapshot() *Session {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return nil
	}
	copied := *p.current
	return &copied
}

func (p *HTTPProvider) setCurrent(s *Session) {
	p.mu.Lock()
	p.current = s
	p.mu.Unlock()
}

// GetSession returns the current session, dropping it when expired.
func (p *HTTPProvider) GetSession(ctx context.Context) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s := p.snapshot()
	if s == nil {
		return nil, nil
	}
	if s.Expired(time.Now()) {
		p.setCurrent(nil)
		return nil, nil
	}
	return s, nil
}

func (p *HTTPProvider) Subscribe(ctx context.Context) (<-chan Change, func()) {
	return p.bc.Subscribe(ctx)
}

// tokenResponse is the shape shared by /token and confirmed /signup answers.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	User         struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
}

func (p *HTTPProvider) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	body := map[string]string{"email": email, "password": password}
	var resp tokenResponse
	status, err := p.post(ctx, "/token?grant_type=password", body, &resp)
	if err != nil {
		return nil, err
	}
	if status == http.StatusBadRequest || status == http.StatusUnauthorized {
		return nil, derrors.New(derrors.CodeUnauthorized, "invalid email or password")
	}
	if status != http.StatusOK {
		return nil, derrors.Newf(derrors.CodeUnavailable, "auth provider returned %d", status)
	}

	session, err := p.sessionFromToken(resp)
	if err != nil {
		return nil, err
	}
	p.setCurrent(session)
	p.bc.Publish(Change{Event: EventSignedIn, Session: session})
	return session, nil
}

func (p *HTTPProvider) SignUp(ctx context.Context, email, password string, meta SignUpMetadata) (*SignUpResult, error) {
	body := map[string]any{
		"email":    email,
		"password": password,
		"data":     meta,
	}
	var resp tokenResponse
	status, err := p.post(ctx, "/signup", body, &resp)
	if err != nil {
		return nil, err
	}
	switch {
	case status == http.StatusUnprocessableEntity || status == http.StatusConflict:
		return nil, derrors.Wrap(sentinel.ErrConflict, derrors.CodeConflict, "an account with this email already exists")
	case status != http.StatusOK:
		return nil, derrors.Newf(derrors.CodeUnavailable, "auth provider returned %d", status)
	}

	userID, err := id.ParseUserID(resp.User.ID)
	if err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "auth provider returned a malformed user id")
	}
	result := &SignUpResult{User: User{ID: userID, Email: resp.User.Email}}

	// No access token means the backend wants email confirmation first; the
	// caller gets an identity but no session.
	if resp.AccessToken != "" {
		session, err := p.sessionFromToken(resp)
		if err != nil {
			return nil, err
		}
		result.Session = session
		p.setCurrent(session)
		p.bc.Publish(Change{Event: EventSignedIn, Session: session})
	}
	return result, nil
}

func (p *HTTPProvider) SignOut(ctx context.Context) error {
	s := p.snapshot()
	p.setCurrent(nil)
	p.bc.Publish(Change{Event: EventSignedOut, Session: nil})

	if s == nil {
		return nil
	}
	// Best-effort server-side revocation; the local state is already cleared.
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/logout", nil)
	if err != nil {
		return nil
	}
	req.Header.Set("Authorization", "Bearer "+s.AccessToken)
	p.addAPIKey(req)
	resp, err := p.client.Do(req)
	if err == nil {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}
	return nil
}

func (p *HTTPProvider) sessionFromToken(resp tokenResponse) (*Session, error) {
	userID, email, expiresAt, err := ParseAccessToken(resp.AccessToken)
	if err != nil {
		// Fall back to the envelope when the token is opaque.
		userID, err = id.ParseUserID(resp.User.ID)
		if err != nil {
			return nil, derrors.Wrap(err, derrors.CodeInternal, "auth provider returned a malformed user id")
		}
		email = resp.User.Email
		expiresAt = time.Now().Add(time.Duration(resp.ExpiresIn) * time.Second)
	}
	return &Session{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		UserID:       userID,
		Email:        email,
		ExpiresAt:    expiresAt,
	}, nil
}

func (p *HTTPProvider) post(ctx context.Context, path string, body any, out any) (int, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return 0, fmt.Errorf("marshal auth request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return 0, fmt.Errorf("build auth request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	p.addAPIKey(req)

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, derrors.Wrap(err, derrors.CodeUnavailable, "auth provider unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, derrors.Wrap(err, derrors.CodeInternal, "decode auth response")
		}
	} else {
		io.Copy(io.Discard, resp.Body)
	}
	return resp.StatusCode, nil
}

func (p *HTTPProvider) addAPIKey(req *http.Request) {
	if p.apiKey != "" {
		req.Header.Set("apikey", p.apiKey)
	}
}
