package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// CompleteAuthorization handles the provider redirect. The state parameter is
// the credential id minted by BeginAuthorization; anything that does not
// resolve to a pending record is rejected before a token request goes out.
func (s *Service) CompleteAuthorization(ctx context.Context, req CallbackRequest) (CallbackResult, error) {
	if s == nil {
		return CallbackResult{}, fmt.Errorf("core: service is nil")
	}
	startedAt := s.now()
	store, err := s.requireStore()
	if err != nil {
		return CallbackResult{}, s.mapError(err)
	}

	state := strings.TrimSpace(req.State)

	if errParam := strings.TrimSpace(req.ErrorParam); errParam != "" {
		message := errParam
		if description := strings.TrimSpace(req.ErrorDescription); description != "" {
			message = errParam + ": " + description
		}
		s.signalConsent(state, ConsentSignal{Outcome: ConsentOutcomeError, Message: message})
		mapped := s.mapError(fmt.Errorf("core: provider returned error %s", message))
		s.observeOperation(ctx, startedAt, "complete_authorization", mapped, map[string]any{
			"credential_id":  state,
			"provider_error": errParam,
		})
		return CallbackResult{}, mapped
	}

	if state == "" || strings.TrimSpace(req.Code) == "" {
		var cause error
		if state == "" {
			cause = fmt.Errorf("core: state parameter is required")
		} else {
			cause = fmt.Errorf("core: missing authorization code")
		}
		s.signalConsent(state, ConsentSignal{Outcome: ConsentOutcomeError, Message: cause.Error()})
		mapped := s.mapError(cause)
		s.observeOperation(ctx, startedAt, "complete_authorization", mapped, map[string]any{
			"credential_id": state,
		})
		return CallbackResult{}, mapped
	}

	credential, err := store.Get(ctx, state)
	if err != nil {
		// Only a definitive miss is a state-validation verdict. A store that
		// cannot answer must not look like a forged state.
		cause := fmt.Errorf("core: load credential for state %q: %w", state, err)
		if errors.Is(err, ErrCredentialNotFound) {
			cause = fmt.Errorf("core: state %q does not resolve to a credential", state)
		}
		s.signalConsent(state, ConsentSignal{Outcome: ConsentOutcomeError, Message: cause.Error()})
		mapped := s.mapError(cause)
		s.observeOperation(ctx, startedAt, "complete_authorization", mapped, map[string]any{
			"credential_id": state,
		})
		return CallbackResult{}, mapped
	}

	material, err := s.decodeMaterial(credential)
	if err != nil {
		mapped := s.mapError(err)
		s.signalConsent(state, ConsentSignal{Outcome: ConsentOutcomeError, Message: "stored credential material is unreadable"})
		s.observeOperation(ctx, startedAt, "complete_authorization", mapped, map[string]any{
			"credential_id": state,
		})
		return CallbackResult{}, mapped
	}

	if material.Status != SecretStatusPending {
		cause := fmt.Errorf("core: state %q does not resolve to a pending authorization", state)
		s.signalConsent(state, ConsentSignal{Outcome: ConsentOutcomeError, Message: cause.Error()})
		mapped := s.mapError(cause)
		s.observeOperation(ctx, startedAt, "complete_authorization", mapped, map[string]any{
			"credential_id": state,
			"status":        string(material.Status),
		})
		return CallbackResult{}, mapped
	}

	payload, err := s.tokenClient.Exchange(ctx, material, req.Code)
	if err != nil {
		// The pending record is left untouched so the user can retry the
		// consent flow against the same credential.
		s.signalConsent(state, ConsentSignal{Outcome: ConsentOutcomeError, Message: err.Error()})
		mapped := s.mapError(err)
		s.observeOperation(ctx, startedAt, "complete_authorization", mapped, map[string]any{
			"credential_id": state,
		})
		return CallbackResult{}, mapped
	}

	if err := material.Status.TransitionTo(SecretStatusConnected); err != nil {
		mapped := s.mapError(err)
		s.signalConsent(state, ConsentSignal{Outcome: ConsentOutcomeError, Message: err.Error()})
		s.observeOperation(ctx, startedAt, "complete_authorization", mapped, map[string]any{
			"credential_id": state,
		})
		return CallbackResult{}, mapped
	}

	now := s.now()
	material.Status = SecretStatusConnected
	material.AccessToken = strings.TrimSpace(payload.AccessToken)
	material.RefreshToken = strings.TrimSpace(payload.RefreshToken)
	material.TokenType = normalizeTokenType(payload.TokenType)
	material.ExpiresIn = payload.ExpiresIn
	material.ExpiresAt = resolveExpiresAt(now, payload.ExpiresIn)
	material.LastError = ""
	if scope := strings.TrimSpace(payload.Scope); scope != "" {
		material.Scope = scope
	}

	encoded, err := s.encodeMaterial(material)
	if err != nil {
		mapped := s.mapError(err)
		s.signalConsent(state, ConsentSignal{Outcome: ConsentOutcomeError, Message: err.Error()})
		s.observeOperation(ctx, startedAt, "complete_authorization", mapped, map[string]any{
			"credential_id": state,
		})
		return CallbackResult{}, mapped
	}

	credential.SecretPayload = encoded
	credential.DisplayName = strings.TrimSuffix(credential.DisplayName, PendingNameSuffix)
	credential.syncActiveFlag(material.Status)
	credential.LastVerifiedAt = &now
	credential.UpdatedAt = now

	updated, err := store.Update(ctx, credential)
	if err != nil {
		mapped := s.mapError(err)
		s.signalConsent(state, ConsentSignal{Outcome: ConsentOutcomeError, Message: err.Error()})
		s.observeOperation(ctx, startedAt, "complete_authorization", mapped, map[string]any{
			"credential_id": state,
		})
		return CallbackResult{}, mapped
	}

	s.signalConsent(state, ConsentSignal{Outcome: ConsentOutcomeSuccess})
	s.observeOperation(ctx, startedAt, "complete_authorization", nil, map[string]any{
		"credential_id": updated.ID,
		"role_id":       updated.RoleID,
		"company_id":    updated.CompanyID,
	})
	return CallbackResult{Credential: updated}, nil
}

func (s *Service) signalConsent(credentialID string, signal ConsentSignal) {
	if s == nil || s.consentBroker == nil {
		return
	}
	if strings.TrimSpace(credentialID) == "" {
		return
	}
	s.consentBroker.Resolve(credentialID, signal)
}
