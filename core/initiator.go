package core

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// BeginAuthorization provisions a pending credential and returns the provider
// authorization URL. The new credential's id doubles as the OAuth state
// parameter, binding the eventual callback to this record.
func (s *Service) BeginAuthorization(ctx context.Context, req BeginAuthorizationRequest) (BeginAuthorizationResponse, error) {
	if s == nil {
		return BeginAuthorizationResponse{}, fmt.Errorf("core: service is nil")
	}
	startedAt := s.now()
	store, err := s.requireStore()
	if err != nil {
		return BeginAuthorizationResponse{}, s.mapError(err)
	}

	if err := validateBeginAuthorizationRequest(req); err != nil {
		mapped := s.mapError(err)
		s.observeOperation(ctx, startedAt, "begin_authorization", mapped, map[string]any{
			"role_id":    req.RoleID,
			"company_id": req.CompanyID,
		})
		return BeginAuthorizationResponse{}, mapped
	}

	generator := s.idGenerator
	if generator == nil {
		return BeginAuthorizationResponse{}, s.mapError(fmt.Errorf("core: id generator is not configured"))
	}
	credentialID := strings.TrimSpace(generator())
	if credentialID == "" {
		return BeginAuthorizationResponse{}, s.mapError(fmt.Errorf("core: id generator returned an empty id"))
	}

	material := SecretMaterial{
		ClientID:         strings.TrimSpace(req.Provider.ClientID),
		ClientSecret:     strings.TrimSpace(req.Provider.ClientSecret),
		AuthorizationURL: strings.TrimSpace(req.Provider.AuthorizationURL),
		TokenURL:         strings.TrimSpace(req.Provider.TokenURL),
		RedirectURI:      strings.TrimSpace(req.Provider.RedirectURI),
		Scope:            strings.TrimSpace(req.Provider.Scope),
		Status:           SecretStatusPending,
	}
	if len(req.Metadata) > 0 {
		material.Metadata = copyAnyMap(req.Metadata)
	}
	payload, err := s.encodeMaterial(material)
	if err != nil {
		mapped := s.mapError(err)
		s.observeOperation(ctx, startedAt, "begin_authorization", mapped, nil)
		return BeginAuthorizationResponse{}, mapped
	}

	now := s.now()
	credential := Credential{
		ID:             credentialID,
		RoleID:         strings.TrimSpace(req.RoleID),
		CompanyID:      strings.TrimSpace(req.CompanyID),
		DisplayName:    pendingDisplayName(req.DisplayName),
		TargetEndpoint: strings.TrimSpace(req.TargetEndpoint),
		AuthKind:       AuthKindOAuth,
		SecretPayload:  payload,
		IsActive:       false,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	created, err := store.Create(ctx, credential)
	if err != nil {
		mapped := s.mapError(err)
		s.observeOperation(ctx, startedAt, "begin_authorization", mapped, map[string]any{
			"credential_id": credentialID,
		})
		return BeginAuthorizationResponse{}, mapped
	}

	authorizationURL := buildAuthorizationURL(material, created.ID)

	var session *ConsentSession
	if s.consentBroker != nil {
		session, err = s.consentBroker.Open(created.ID)
		if err != nil {
			mapped := s.mapError(err)
			s.observeOperation(ctx, startedAt, "begin_authorization", mapped, map[string]any{
				"credential_id": created.ID,
			})
			return BeginAuthorizationResponse{}, mapped
		}
	}

	s.observeOperation(ctx, startedAt, "begin_authorization", nil, map[string]any{
		"credential_id": created.ID,
		"role_id":       created.RoleID,
		"company_id":    created.CompanyID,
	})
	return BeginAuthorizationResponse{
		CredentialID:     created.ID,
		AuthorizationURL: authorizationURL,
		Session:          session,
	}, nil
}

func validateBeginAuthorizationRequest(req BeginAuthorizationRequest) error {
	if strings.TrimSpace(req.Provider.ClientID) == "" {
		return fmt.Errorf("core: client id is required")
	}
	if strings.TrimSpace(req.Provider.AuthorizationURL) == "" {
		return fmt.Errorf("core: authorization url is required")
	}
	if strings.TrimSpace(req.DisplayName) == "" {
		return fmt.Errorf("core: display name is required")
	}
	return nil
}

func pendingDisplayName(name string) string {
	name = strings.TrimSpace(name)
	if strings.HasSuffix(name, PendingNameSuffix) {
		return name
	}
	return name + PendingNameSuffix
}

func buildAuthorizationURL(material SecretMaterial, state string) string {
	values := url.Values{}
	values.Set("response_type", "code")
	values.Set("client_id", material.ClientID)
	if material.RedirectURI != "" {
		values.Set("redirect_uri", material.RedirectURI)
	}
	if material.Scope != "" {
		values.Set("scope", material.Scope)
	}
	values.Set("state", state)

	authURL := material.AuthorizationURL
	if strings.Contains(authURL, "?") {
		return authURL + "&" + values.Encode()
	}
	return authURL + "?" + values.Encode()
}
