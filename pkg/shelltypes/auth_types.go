package shelltypes

import (
	"fmt"
	"strings"
)

// AuthType identifies the selected login mechanism.
// The zero value means no strategy was selected.
type AuthType string

const (
	// AuthTypeLoginWithGoogle signs in with a personal Google account via OAuth.
	AuthTypeLoginWithGoogle AuthType = "oauth-personal"
	// AuthTypeGeminiAPIKey uses a Gemini API key from the environment.
	AuthTypeGeminiAPIKey AuthType = "gemini-api-key"
	// AuthTypeVertexAI uses Vertex AI with project/location or a Google API key.
	AuthTypeVertexAI AuthType = "vertex-ai"
	// AuthTypeCloudShell uses the ambient credentials of Cloud Shell.
	AuthTypeCloudShell AuthType = "cloud-shell"
	// AuthTypeComputeADC uses Application Default Credentials.
	AuthTypeComputeADC AuthType = "compute-default-credentials"
)

// AllAuthTypes lists every supported strategy in display order.
func AllAuthTypes() []AuthType {
	return []AuthType{
		AuthTypeLoginWithGoogle,
		AuthTypeGeminiAPIKey,
		AuthTypeVertexAI,
		AuthTypeCloudShell,
		AuthTypeComputeADC,
	}
}

// ParseAuthType converts a configuration string into an AuthType.
// An empty string yields the zero AuthType and no error.
func ParseAuthType(s string) (AuthType, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return "", nil
	}
	for _, t := range AllAuthTypes() {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown auth type %q", s)
}

// UsesOAuth reports whether requests for this strategy carry an OAuth bearer token.
func (t AuthType) UsesOAuth() bool {
	switch t {
	case AuthTypeLoginWithGoogle, AuthTypeCloudShell, AuthTypeComputeADC:
		return true
	default:
		return false
	}
}
