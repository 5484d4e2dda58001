package core

import (
	"context"
	"fmt"
	"strings"
)

// RefreshCredential forces a refresh attempt for one credential regardless of
// how close its access token is to expiry.
func (s *Service) RefreshCredential(ctx context.Context, id string) (RefreshResult, error) {
	if s == nil {
		return RefreshResult{}, fmt.Errorf("core: service is nil")
	}
	startedAt := s.now()
	store, err := s.requireStore()
	if err != nil {
		return RefreshResult{}, s.mapError(err)
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return RefreshResult{}, s.mapError(fmt.Errorf("core: credential id is required"))
	}

	credential, err := store.Get(ctx, id)
	if err != nil {
		mapped := s.mapError(err)
		s.observeOperation(ctx, startedAt, "refresh_credential", mapped, map[string]any{"credential_id": id})
		return RefreshResult{}, mapped
	}

	result, err := s.refreshOne(ctx, credential, true)
	s.observeOperation(ctx, startedAt, "refresh_credential", err, map[string]any{
		"credential_id": id,
		"outcome":       string(result.Outcome),
	})
	if err != nil {
		return result, s.mapError(err)
	}
	return result, nil
}

// SweepRefresh walks every active OAuth credential and refreshes the ones
// whose access token expires inside the lead window. Credentials are handled
// sequentially and one failure never stops the sweep.
func (s *Service) SweepRefresh(ctx context.Context) (SweepReport, error) {
	if s == nil {
		return SweepReport{}, fmt.Errorf("core: service is nil")
	}
	startedAt := s.now()
	store, err := s.requireStore()
	if err != nil {
		return SweepReport{}, s.mapError(err)
	}

	candidates, err := store.ListActiveOAuth(ctx)
	if err != nil {
		mapped := s.mapError(err)
		s.observeOperation(ctx, startedAt, "sweep_refresh", mapped, nil)
		return SweepReport{}, mapped
	}

	report := SweepReport{Candidates: len(candidates)}
	for _, candidate := range candidates {
		if ctx != nil && ctx.Err() != nil {
			mapped := s.mapError(ctx.Err())
			s.observeOperation(ctx, startedAt, "sweep_refresh", mapped, map[string]any{
				"candidates": report.Candidates,
				"refreshed":  report.Refreshed,
			})
			return report, mapped
		}

		result, refreshErr := s.refreshOne(ctx, candidate, false)
		switch {
		case refreshErr != nil:
			report.Failed++
			report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", candidate.ID, refreshErr))
			s.logError(ctx, "credential refresh failed", map[string]any{
				"credential_id": candidate.ID,
				"error":         refreshErr.Error(),
			})
		case result.Outcome == RefreshOutcomeRefreshed:
			report.Refreshed++
		default:
			report.Skipped++
		}
	}

	s.observeOperation(ctx, startedAt, "sweep_refresh", nil, map[string]any{
		"candidates": report.Candidates,
		"refreshed":  report.Refreshed,
		"skipped":    report.Skipped,
		"failed":     report.Failed,
	})
	return report, nil
}

// refreshOne refreshes a single credential. When force is false the freshness
// lead window decides whether the attempt happens at all.
func (s *Service) refreshOne(ctx context.Context, credential Credential, force bool) (RefreshResult, error) {
	store, err := s.requireStore()
	if err != nil {
		return RefreshResult{Credential: credential, Outcome: RefreshOutcomeFailed}, err
	}

	material, err := s.decodeMaterial(credential)
	if err != nil {
		return RefreshResult{Credential: credential, Outcome: RefreshOutcomeFailed}, err
	}

	if material.Status != SecretStatusConnected {
		return RefreshResult{Credential: credential, Outcome: RefreshOutcomeSkipped},
			fmt.Errorf("core: credential %q is %s, not connected", credential.ID, material.Status)
	}

	now := s.now()
	if !force {
		state := ResolveTokenState(now, material, s.config.Refresh.LeadWindow)
		if !ShouldRefresh(now, state, s.config.Refresh.LeadWindow) {
			return RefreshResult{Credential: credential, Outcome: RefreshOutcomeSkipped}, nil
		}
	}

	// A connected credential without a refresh token cannot self-heal. Record
	// the problem but leave the credential usable until its token lapses.
	if strings.TrimSpace(material.RefreshToken) == "" {
		material.LastError = "refresh token is missing"
		if encoded, encodeErr := s.encodeMaterial(material); encodeErr == nil {
			credential.SecretPayload = encoded
			credential.UpdatedAt = s.now()
			if _, updateErr := store.Update(ctx, credential); updateErr != nil {
				s.logError(ctx, "record missing refresh token", map[string]any{
					"credential_id": credential.ID,
					"error":         updateErr.Error(),
				})
			}
		}
		return RefreshResult{Credential: credential, Outcome: RefreshOutcomeFailed},
			fmt.Errorf("core: refresh token is required for credential %q", credential.ID)
	}

	payload, exchangeErr := s.tokenClient.Refresh(ctx, material)
	if exchangeErr != nil {
		if err := material.Status.TransitionTo(SecretStatusRefreshFailed); err != nil {
			return RefreshResult{Credential: credential, Outcome: RefreshOutcomeFailed}, err
		}
		material.Status = SecretStatusRefreshFailed
		material.LastError = exchangeErr.Error()

		encoded, encodeErr := s.encodeMaterial(material)
		if encodeErr != nil {
			return RefreshResult{Credential: credential, Outcome: RefreshOutcomeFailed}, encodeErr
		}
		credential.SecretPayload = encoded
		credential.syncActiveFlag(material.Status)
		credential.UpdatedAt = s.now()

		updated, updateErr := store.Update(ctx, credential)
		if updateErr != nil {
			return RefreshResult{Credential: credential, Outcome: RefreshOutcomeFailed}, updateErr
		}
		return RefreshResult{Credential: updated, Outcome: RefreshOutcomeFailed}, exchangeErr
	}

	refreshedAt := s.now()
	material.AccessToken = strings.TrimSpace(payload.AccessToken)
	// Providers may omit refresh_token on rotation; the previous one stays.
	if nextRefresh := strings.TrimSpace(payload.RefreshToken); nextRefresh != "" {
		material.RefreshToken = nextRefresh
	}
	material.TokenType = normalizeTokenType(payload.TokenType)
	material.ExpiresIn = payload.ExpiresIn
	material.ExpiresAt = resolveExpiresAt(refreshedAt, payload.ExpiresIn)
	material.LastError = ""
	if scope := strings.TrimSpace(payload.Scope); scope != "" {
		material.Scope = scope
	}

	encoded, err := s.encodeMaterial(material)
	if err != nil {
		return RefreshResult{Credential: credential, Outcome: RefreshOutcomeFailed}, err
	}
	credential.SecretPayload = encoded
	credential.syncActiveFlag(material.Status)
	credential.LastVerifiedAt = &refreshedAt
	credential.UpdatedAt = refreshedAt

	updated, err := store.Update(ctx, credential)
	if err != nil {
		return RefreshResult{Credential: credential, Outcome: RefreshOutcomeFailed}, err
	}
	return RefreshResult{Credential: updated, Outcome: RefreshOutcomeRefreshed}, nil
}
