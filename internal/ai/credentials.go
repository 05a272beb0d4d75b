package ai

import (
	"net/http"
	"strings"

	"github.com/routewise/triphub/internal/config"
)

// Credentials is the effective key/model pair for one outbound call.
type Credentials struct {
	APIKey string
	Model  string
}

// ResolveCredentials picks the key and model for a request. A per-request
// key beats the configured default; an explicit model beats the configured
// one. Fails closed when no key is resolvable from either source.
func ResolveCredentials(requestKey, requestModel string, cfg config.AIConfig) (Credentials, error) {
	key := strings.TrimSpace(requestKey)

	if key == "" {
		key = strings.TrimSpace(cfg.APIKey)
	}

	if key == "" {
		return Credentials{}, &Failure{
			Kind:    KindMissingKey,
			Status:  http.StatusUnauthorized,
			Message: "no API key supplied and none configured",
		}
	}

	model := strings.TrimSpace(requestModel)

	if model == "" {
		model = cfg.Model
	}

	return Credentials{APIKey: key, Model: model}, nil
}

// BearerFromHeader extracts the raw token from an Authorization header.
// Returns "" when the header is absent or not a bearer scheme.
func BearerFromHeader(header string) string {
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}

	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer"))
}
