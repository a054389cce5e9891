// Package registry looks companies up in the French public company registry
// (SIRENE, via the recherche-entreprises API) so professional sign-ups can be
// verified against a real establishment.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"usemy/internal/platform/metrics"
	"usemy/internal/registry/naf"
	derrors "usemy/pkg/domain-errors"
	"usemy/pkg/platform/sentinel"
)

// Company is the registry's view of an establishment, flattened from the
// search response's head office ("siège") record.
type Company struct {
	SIRET         string   `json:"siret"`
	SIREN         string   `json:"siren"`
	Name          string   `json:"name"`
	Address       string   `json:"address"`
	City          string   `json:"city"`
	PostalCode    string   `json:"postal_code"`
	ActivityCode  string   `json:"activity_code"`
	ActivityLabel string   `json:"activity_label"`
	Latitude      *float64 `json:"latitude,omitempty"`
	Longitude     *float64 `json:"longitude,omitempty"`
	Active        bool     `json:"active"`
}

var siretDigits = regexp.MustCompile(`^[0-9]{14}$`)

// NormalizeSIRET strips formatting whitespace and validates the 14-digit
// shape. Format validation happens before any network call; a malformed
// number is an input error, not a lookup miss.
func NormalizeSIRET(raw string) (string, error) {
	s := strings.ReplaceAll(strings.TrimSpace(raw), " ", "")
	if !siretDigits.MatchString(s) {
		return "", derrors.New(derrors.CodeInvalidInput, "SIRET must be exactly 14 digits")
	}
	return s, nil
}

// Cache sits in front of the registry. Get misses are silent; lookups that
// hit the network populate it on success.
type Cache interface {
	Get(ctx context.Context, siret string) (*Company, bool)
	Set(ctx context.Context, siret string, c *Company)
}

// NopCache disables caching.
type NopCache struct{}

func (NopCache) Get(context.Context, string) (*Company, bool) { return nil, false }
func (NopCache) Set(context.Context, string, *Company)        {}

// Client queries the public registry API over HTTP.
type Client struct {
	httpClient *http.Client
	baseURL    string
	cache      Cache
	log        *zap.Logger
	metrics    *metrics.Metrics
}

func NewClient(baseURL string, cache Cache, log *zap.Logger, m *metrics.Metrics) *Client {
	if cache == nil {
		cache = NopCache{}
	}
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
		cache:      cache,
		log:        log,
		metrics:    m,
	}
}

// searchResponse mirrors the recherche-entreprises /search payload, reduced
// to the fields we read.
type searchResponse struct {
	Results []struct {
		SIREN             string `json:"siren"`
		NomComplet        string `json:"nom_complet"`
		NomRaisonSociale  string `json:"nom_raison_sociale"`
		ActivitePrincipal string `json:"activite_principale"`
		Siege             struct {
			SIRET              string `json:"siret"`
			Adresse            string `json:"adresse"`
			CodePostal         string `json:"code_postal"`
			LibelleCommune     string `json:"libelle_commune"`
			ActivitePrincipale string `json:"activite_principale"`
			Latitude           string `json:"latitude"`
			Longitude          string `json:"longitude"`
			EtatAdministratif  string `json:"etat_administratif"`
		} `json:"siege"`
	} `json:"results"`
	TotalResults int `json:"total_results"`
}

// Lookup resolves a SIRET to its establishment. A number that is well-formed
// but matches no establishment returns sentinel.ErrNotFound wrapped with a
// user-facing message; rate limiting and upstream failures surface as
// unavailable so callers can tell the user to retry.
func (c *Client) Lookup(ctx context.Context, rawSIRET string) (*Company, error) {
	siret, err := NormalizeSIRET(rawSIRET)
	if err != nil {
		return nil, err
	}

	tracer := otel.Tracer("usemy/registry")
	ctx, span := tracer.Start(ctx, "registry.lookup")
	defer span.End()
	span.SetAttributes(attribute.String("registry.siret", siret))

	if company, ok := c.cache.Get(ctx, siret); ok {
		span.SetAttributes(attribute.Bool("registry.cache_hit", true))
		return company, nil
	}

	company, err := c.fetch(ctx, siret)
	if err != nil {
		return nil, err
	}

	c.cache.Set(ctx, siret, company)
	c.metrics.RegistryLookups.WithLabelValues(metrics.RegistryValid).Inc()
	return company, nil
}

func (c *Client) fetch(ctx context.Context, siret string) (*Company, error) {
	u := fmt.Sprintf("%s/search?q=%s&page=1&per_page=1", c.baseURL, url.QueryEscape(siret))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build registry request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.RegistryLookups.WithLabelValues(metrics.RegistryError).Inc()
		return nil, derrors.Wrap(err, derrors.CodeUnavailable, "company registry is unreachable")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		c.metrics.RegistryLookups.WithLabelValues(metrics.RegistryRateLimited).Inc()
		return nil, derrors.New(derrors.CodeUnavailable, "company registry is rate limiting us, try again shortly")
	case resp.StatusCode == http.StatusNotFound:
		c.metrics.RegistryLookups.WithLabelValues(metrics.RegistryNotFound).Inc()
		return nil, derrors.Wrap(sentinel.ErrNotFound, derrors.CodeNotFound, "no company found for this SIRET")
	case resp.StatusCode != http.StatusOK:
		c.metrics.RegistryLookups.WithLabelValues(metrics.RegistryError).Inc()
		c.log.Warn("registry returned unexpected status",
			zap.Int("status", resp.StatusCode),
			zap.String("siret", siret))
		return nil, derrors.Newf(derrors.CodeUnavailable, "company registry returned status %d", resp.StatusCode)
	}

	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		c.metrics.RegistryLookups.WithLabelValues(metrics.RegistryError).Inc()
		return nil, derrors.Wrap(err, derrors.CodeUnavailable, "company registry sent a malformed response")
	}

	for _, r := range body.Results {
		if r.Siege.SIRET != siret {
			// The search matched on the SIREN prefix but this establishment
			// is not the one asked for.
			continue
		}
		company := &Company{
			SIRET:         r.Siege.SIRET,
			SIREN:         r.SIREN,
			Name:          companyName(r.NomRaisonSociale, r.NomComplet),
			Address:       r.Siege.Adresse,
			City:          r.Siege.LibelleCommune,
			PostalCode:    r.Siege.CodePostal,
			ActivityCode:  naf.Normalize(firstNonEmpty(r.Siege.ActivitePrincipale, r.ActivitePrincipal)),
			ActivityLabel: naf.Label(firstNonEmpty(r.Siege.ActivitePrincipale, r.ActivitePrincipal)),
			Latitude:      parseCoordinate(r.Siege.Latitude),
			Longitude:     parseCoordinate(r.Siege.Longitude),
			Active:        r.Siege.EtatAdministratif == "A",
		}
		return company, nil
	}

	c.metrics.RegistryLookups.WithLabelValues(metrics.RegistryNotFound).Inc()
	return nil, derrors.Wrap(sentinel.ErrNotFound, derrors.CodeNotFound, "no company found for this SIRET")
}

func companyName(raisonSociale, nomComplet string) string {
	if raisonSociale != "" {
		return raisonSociale
	}
	return nomComplet
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

func parseCoordinate(raw string) *float64 {
	if raw == "" {
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &f
}
