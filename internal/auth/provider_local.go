package auth

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	id "usemy/pkg/domain"
	derrors "usemy/pkg/domain-errors"
	"usemy/pkg/platform/sentinel"
)

// LocalProvider is an in-process auth provider for development and tests.
// Passwords are bcrypt-hashed; sessions are opaque tokens with a TTL.
//
// OnUserCreated mimics the backend's profile-creation trigger: it runs in its
// own goroutine after sign-up, racing the caller exactly like the hosted
// trigger does, which is what the sign-up grace window exists to tolerate.
type LocalProvider struct {
	mu      sync.Mutex
	users   map[string]localUser // keyed by lowercased email
	current *Session
	bc      *Broadcaster

	// OnUserCreated, when set, is invoked asynchronously with the new user
	// and sign-up metadata. Wire it to profile creation to mirror the hosted
	// backend's handle_new_user trigger.
	OnUserCreated func(ctx context.Context, user User, meta SignUpMetadata)

	// TriggerDelay postpones OnUserCreated to widen the race window.
	TriggerDelay time.Duration

	// SessionTTL bounds issued sessions. Zero means one hour.
	SessionTTL time.Duration
}

type localUser struct {
	id           id.UserID
	email        string
	passwordHash []byte
}

func NewLocalProvider() *LocalProvider {
	p := &LocalProvider{users: make(map[string]localUser)}
	p.bc = NewBroadcaster(p.snapshot)
	return p
}

func (p *LocalProvider) snapshot() *Session {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return nil
	}
	copied := *p.current
	return &copied
}

// GetSession returns the provider's current session, or nil when signed out
// or expired.
func (p *LocalProvider) GetSession(ctx context.Context) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s := p.snapshot()
	if s != nil && s.Expired(time.Now()) {
		return nil, nil
	}
	return s, nil
}

// Subscribe exposes the auth-state change stream with the eager initial emit.
func (p *LocalProvider) Subscribe(ctx context.Context) (<-chan Change, func()) {
	return p.bc.Subscribe(ctx)
}

// SignInWithPassword verifies credentials and installs a fresh session.
func (p *LocalProvider) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	u, ok := p.users[normalizeEmail(email)]
	p.mu.Unlock()
	if !ok {
		return nil, derrors.New(derrors.CodeUnauthorized, "invalid email or password")
	}
	if err := bcrypt.CompareHashAndPassword(u.passwordHash, []byte(password)); err != nil {
		return nil, derrors.New(derrors.CodeUnauthorized, "invalid email or password")
	}

	session := p.issueSession(u)
	p.bc.Publish(Change{Event: EventSignedIn, Session: session})
	return session, nil
}

// SignUp registers the identity, issues a session and fires the user-created
// hook asynchronously.
func (p *LocalProvider) SignUp(ctx context.Context, email, password string, meta SignUpMetadata) (*SignUpResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "hash password")
	}

	key := normalizeEmail(email)
	p.mu.Lock()
	if _, exists := p.users[key]; exists {
		p.mu.Unlock()
		return nil, derrors.Wrap(sentinel.ErrConflict, derrors.CodeConflict, "an account with this email already exists")
	}
	u := localUser{id: id.NewUserID(), email: key, passwordHash: hash}
	p.users[key] = u
	hook := p.OnUserCreated
	delay := p.TriggerDelay
	p.mu.Unlock()

	session := p.issueSession(u)
	p.bc.Publish(Change{Event: EventSignedIn, Session: session})

	if hook != nil {
		user := User{ID: u.id, Email: u.email}
		go func() {
			if delay > 0 {
				time.Sleep(delay)
			}
			hook(context.WithoutCancel(ctx), user, meta)
		}()
	}

	return &SignUpResult{User: User{ID: u.id, Email: u.email}, Session: session}, nil
}

// SignOut drops the current session and notifies subscribers.
func (p *LocalProvider) SignOut(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	p.current = nil
	p.mu.Unlock()
	p.bc.Publish(Change{Event: EventSignedOut, Session: nil})
	return nil
}

func (p *LocalProvider) issueSession(u localUser) *Session {
	ttl := p.SessionTTL
	if ttl == 0 {
		ttl = time.Hour
	}
	session := &Session{
		AccessToken:  "local_" + uuid.NewString(),
		RefreshToken: "localr_" + uuid.NewString(),
		UserID:       u.id,
		Email:        u.email,
		ExpiresAt:    time.Now().Add(ttl),
	}
	p.mu.Lock()
	p.current = session
	p.mu.Unlock()
	copied := *session
	return &copied
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
