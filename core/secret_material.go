package core

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const (
	SecretPayloadFormatJSONV1 = "secret_material_json"
	SecretPayloadVersionV1    = 1
)

// SecretMaterial is the structured content of a credential's secret payload:
// the OAuth app configuration captured at begin time plus the token fields
// merged in by the callback handler and refresh sweeper.
type SecretMaterial struct {
	ClientID         string       `json:"client_id"`
	ClientSecret     string       `json:"client_secret,omitempty"`
	AuthorizationURL string       `json:"authorization_url"`
	TokenURL         string       `json:"token_url,omitempty"`
	RedirectURI      string       `json:"redirect_uri,omitempty"`
	Scope            string       `json:"scope,omitempty"`
	Status           SecretStatus `json:"status"`
	AccessToken      string       `json:"access_token,omitempty"`
	RefreshToken     string       `json:"refresh_token,omitempty"`
	TokenType        string       `json:"token_type,omitempty"`
	ExpiresIn        int64        `json:"expires_in,omitempty"`
	ExpiresAt        *time.Time   `json:"expires_at,omitempty"`
	LastError        string       `json:"last_error,omitempty"`

	// Metadata carries caller-supplied context from the begin request, opaque
	// to the flow itself.
	Metadata map[string]any `json:"metadata,omitempty"`
}

type SecretCodec interface {
	Format() string
	Version() int
	Encode(material SecretMaterial) ([]byte, error)
	Decode(payload []byte) (SecretMaterial, error)
}

type JSONSecretCodec struct{}

func (JSONSecretCodec) Format() string {
	return SecretPayloadFormatJSONV1
}

func (JSONSecretCodec) Version() int {
	return SecretPayloadVersionV1
}

func (JSONSecretCodec) Encode(material SecretMaterial) ([]byte, error) {
	material.ClientID = strings.TrimSpace(material.ClientID)
	material.AuthorizationURL = strings.TrimSpace(material.AuthorizationURL)
	material.TokenURL = strings.TrimSpace(material.TokenURL)
	material.ExpiresAt = cloneTimePointer(material.ExpiresAt)
	encoded, err := json.Marshal(material)
	if err != nil {
		return nil, fmt.Errorf("core: encode secret material: %w", err)
	}
	return encoded, nil
}

func (JSONSecretCodec) Decode(payload []byte) (SecretMaterial, error) {
	if len(payload) == 0 {
		return SecretMaterial{}, fmt.Errorf("core: secret payload is empty")
	}
	decoded := SecretMaterial{}
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return SecretMaterial{}, fmt.Errorf("core: decode secret material: %w", err)
	}
	decoded.ExpiresAt = cloneTimePointer(decoded.ExpiresAt)
	return decoded, nil
}

func cloneTimePointer(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	clone := value.UTC()
	return &clone
}
