package httptransport

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"usemy/internal/profile"
	derrors "usemy/pkg/domain-errors"
	"usemy/pkg/platform/sentinel"
)

type profileView struct {
	ID         string    `json:"id"`
	UserType   string    `json:"user_type"`
	FullName   string    `json:"full_name"`
	AvatarURL  string    `json:"avatar_url,omitempty"`
	Bio        string    `json:"bio,omitempty"`
	Phone      string    `json:"phone,omitempty"`
	Address    string    `json:"address,omitempty"`
	City       string    `json:"city,omitempty"`
	PostalCode string    `json:"postal_code,omitempty"`
	Latitude   *float64  `json:"latitude,omitempty"`
	Longitude  *float64  `json:"longitude,omitempty"`
	Points     int       `json:"points"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func viewProfile(p *profile.Profile) profileView {
	return profileView{
		ID:         p.ID.String(),
		UserType:   string(p.UserType),
		FullName:   p.FullName,
		AvatarURL:  p.AvatarURL,
		Bio:        p.Bio,
		Phone:      p.Phone,
		Address:    p.Address,
		City:       p.City,
		PostalCode: p.PostalCode,
		Latitude:   p.Latitude,
		Longitude:  p.Longitude,
		Points:     p.Points,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
}

type professionalView struct {
	ID           string    `json:"id"`
	CompanyName  string    `json:"company_name"`
	SIRET        string    `json:"siret"`
	Website      string    `json:"website,omitempty"`
	Category     string    `json:"category,omitempty"`
	ActivityCode string    `json:"activity_code,omitempty"`
	Tags         []string  `json:"tags,omitempty"`
	Verified     bool      `json:"verified"`
	CreatedAt    time.Time `json:"created_at"`
}

func (h *Handler) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	snap := h.state.Snapshot()
	if snap.Session == nil {
		writeError(w, derrors.New(derrors.CodeUnauthorized, "no active session"))
		return
	}
	if snap.Profile == nil {
		writeError(w, derrors.New(derrors.CodeNotFound, "profile not loaded"))
		return
	}

	resp := map[string]any{"profile": viewProfile(snap.Profile)}
	if snap.Profile.UserType == profile.UserTypeProfessional {
		pro, err := h.store.FindProfessionalByUserID(r.Context(), snap.Profile.ID)
		switch {
		case err == nil:
			resp["professional"] = professionalView{
				ID:           pro.ID.String(),
				CompanyName:  pro.CompanyName,
				SIRET:        pro.SIRET,
				Website:      pro.Website,
				Category:     pro.Category,
				ActivityCode: pro.ActivityCode,
				Tags:         pro.Tags,
				Verified:     pro.Verified,
				CreatedAt:    pro.CreatedAt,
			}
		case errors.Is(err, sentinel.ErrNotFound):
			// A professional without a company row is legal mid-sign-up.
		default:
			writeError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

type patchRequest struct {
	FullName   *string  `json:"full_name"`
	AvatarURL  *string  `json:"avatar_url"`
	Bio        *string  `json:"bio"`
	Phone      *string  `json:"phone"`
	Address    *string  `json:"address"`
	City       *string  `json:"city"`
	PostalCode *string  `json:"postal_code"`
	Latitude   *float64 `json:"latitude"`
	Longitude  *float64 `json:"longitude"`
}

func (h *Handler) handlePatchProfile(w http.ResponseWriter, r *http.Request) {
	snap := h.state.Snapshot()
	if snap.Session == nil {
		writeError(w, derrors.New(derrors.CodeUnauthorized, "no active session"))
		return
	}

	var req patchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, derrors.New(derrors.CodeInvalidInput, "invalid request body"))
		return
	}
	if req.FullName != nil && *req.FullName == "" {
		writeError(w, derrors.New(derrors.CodeInvalidInput, "full_name must not be empty"))
		return
	}

	updated, err := h.store.Update(r.Context(), snap.Session.UserID, profile.Patch{
		FullName:   req.FullName,
		AvatarURL:  req.AvatarURL,
		Bio:        req.Bio,
		Phone:      req.Phone,
		Address:    req.Address,
		City:       req.City,
		PostalCode: req.PostalCode,
		Latitude:   req.Latitude,
		Longitude:  req.Longitude,
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			writeError(w, derrors.New(derrors.CodeNotFound, "profile does not exist"))
			return
		}
		writeError(w, err)
		return
	}

	// Keep the bootstrap state's copy in step with what we just wrote.
	h.state.SetProfile(updated)
	writeJSON(w, http.StatusOK, map[string]any{"profile": viewProfile(updated)})
}
