package httptransport

import (
	"encoding/json"
	"net/http"
	"time"

	"usemy/internal/account"
	"usemy/internal/auth"
	"usemy/internal/profile"
	derrors "usemy/pkg/domain-errors"
)

type companyRequest struct {
	CompanyName string   `json:"company_name"`
	SIRET       string   `json:"siret"`
	Website     string   `json:"website"`
	Category    string   `json:"category"`
	Tags        []string `json:"tags,omitempty"`
}

type signUpRequest struct {
	Email    string          `json:"email"`
	Password string          `json:"password"`
	FullName string          `json:"full_name"`
	UserType string          `json:"user_type"`
	Company  *companyRequest `json:"company,omitempty"`
}

type sessionView struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type userView struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type signUpResponse struct {
	User                 userView     `json:"user"`
	Session              *sessionView `json:"session,omitempty"`
	ConfirmationRequired bool         `json:"confirmation_required"`
}

func (h *Handler) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, derrors.New(derrors.CodeInvalidInput, "invalid request body"))
		return
	}

	in := account.SignUpInput{
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
		UserType: profile.UserType(req.UserType),
	}
	if req.Company != nil {
		in.Company = &account.CompanyInput{
			CompanyName: req.Company.CompanyName,
			SIRET:       req.Company.SIRET,
			Website:     req.Company.Website,
			Category:    req.Company.Category,
			Tags:        req.Company.Tags,
		}
	}

	out, err := h.accounts.SignUp(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := signUpResponse{
		User:                 userView{ID: out.User.ID.String(), Email: out.User.Email},
		ConfirmationRequired: out.Session == nil,
	}
	if out.Session != nil {
		resp.Session = viewSession(out.Session)
	}
	writeJSON(w, http.StatusCreated, resp)
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, derrors.New(derrors.CodeInvalidInput, "invalid request body"))
		return
	}

	sess, err := h.accounts.SignIn(r.Context(), account.SignInInput{
		Email:    req.Email,
		Password: req.Password,
		Device:   DeviceFrom(r.Context()),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"session": viewSession(sess),
		"user":    userView{ID: sess.UserID.String(), Email: sess.Email},
	})
}

func (h *Handler) handleSignOut(w http.ResponseWriter, r *http.Request) {
	snap := h.state.Snapshot()
	if snap.Session == nil {
		writeError(w, derrors.New(derrors.CodeUnauthorized, "no active session"))
		return
	}
	if err := h.accounts.SignOut(r.Context(), snap.Session.UserID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSession exposes the bootstrap state: loading until the protocol has
// resolved, then whichever (session, user, profile) triple is current.
func (h *Handler) handleSession(w http.ResponseWriter, r *http.Request) {
	snap := h.state.Snapshot()
	resp := map[string]any{"loading": snap.Loading}
	if snap.Session != nil {
		resp["session"] = viewSession(snap.Session)
	}
	if snap.User != nil {
		resp["user"] = userView{ID: snap.User.ID.String(), Email: snap.User.Email}
	}
	if snap.Profile != nil {
		resp["profile"] = viewProfile(snap.Profile)
	}
	writeJSON(w, http.StatusOK, resp)
}

func viewSession(sess *auth.Session) *sessionView {
	return &sessionView{
		AccessToken: sess.AccessToken,
		ExpiresAt:   sess.ExpiresAt,
	}
}
