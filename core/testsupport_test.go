package core

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"
)

// memoryCredentialStore is a map-backed CredentialStore for tests.
type memoryCredentialStore struct {
	mu      sync.Mutex
	records map[string]Credential

	createErr error
	getErr    error
	updateErr error
	listErr   error
}

func newMemoryCredentialStore() *memoryCredentialStore {
	return &memoryCredentialStore{records: map[string]Credential{}}
}

func (s *memoryCredentialStore) Create(_ context.Context, credential Credential) (Credential, error) {
	if s.createErr != nil {
		return Credential{}, s.createErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[credential.ID]; exists {
		return Credential{}, fmt.Errorf("memory store: credential %q already exists", credential.ID)
	}
	s.records[credential.ID] = credential
	return credential, nil
}

func (s *memoryCredentialStore) Get(_ context.Context, id string) (Credential, error) {
	if s.getErr != nil {
		return Credential{}, s.getErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	credential, ok := s.records[strings.TrimSpace(id)]
	if !ok {
		return Credential{}, ErrCredentialNotFound
	}
	return credential, nil
}

func (s *memoryCredentialStore) Update(_ context.Context, credential Credential) (Credential, error) {
	if s.updateErr != nil {
		return Credential{}, s.updateErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[credential.ID]; !ok {
		return Credential{}, ErrCredentialNotFound
	}
	s.records[credential.ID] = credential
	return credential, nil
}

func (s *memoryCredentialStore) List(_ context.Context, filter ListCredentialsFilter) ([]Credential, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []Credential{}
	for _, credential := range s.records {
		if filter.RoleID != "" && credential.RoleID != filter.RoleID {
			continue
		}
		if filter.CompanyID != "" && credential.CompanyID != filter.CompanyID {
			continue
		}
		if filter.AuthKind != "" && credential.AuthKind != filter.AuthKind {
			continue
		}
		if filter.ActiveOnly && !credential.IsActive {
			continue
		}
		out = append(out, credential)
	}
	return out, nil
}

func (s *memoryCredentialStore) ListActiveOAuth(_ context.Context) ([]Credential, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []Credential{}
	for _, credential := range s.records {
		if credential.AuthKind == AuthKindOAuth && credential.IsActive {
			out = append(out, credential)
		}
	}
	// Stable order keeps multi-credential sweep tests deterministic.
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memoryCredentialStore) mustGet(id string) Credential {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.records[id]
}

var _ CredentialStore = (*memoryCredentialStore)(nil)

// scriptedHTTPDoer replays canned token-endpoint responses.
type scriptedHTTPDoer struct {
	mu        sync.Mutex
	responses []scriptedResponse
	requests  []*http.Request
	bodies    []string
}

type scriptedResponse struct {
	status      int
	contentType string
	body        string
	err         error
}

func (d *scriptedHTTPDoer) Do(req *http.Request) (*http.Response, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	body := ""
	if req.Body != nil {
		raw, _ := io.ReadAll(req.Body)
		body = string(raw)
	}
	d.requests = append(d.requests, req)
	d.bodies = append(d.bodies, body)

	if len(d.responses) == 0 {
		return nil, fmt.Errorf("scripted doer: no response queued")
	}
	next := d.responses[0]
	d.responses = d.responses[1:]
	if next.err != nil {
		return nil, next.err
	}
	contentType := next.contentType
	if contentType == "" {
		contentType = "application/json"
	}
	status := next.status
	if status == 0 {
		status = http.StatusOK
	}
	response := &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{contentType}},
		Body:       io.NopCloser(bytes.NewBufferString(next.body)),
	}
	return response, nil
}

func (d *scriptedHTTPDoer) callCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.requests)
}

var _ HTTPDoer = (*scriptedHTTPDoer)(nil)

func newTestService(t interface{ Fatalf(string, ...any) }, store CredentialStore, doer HTTPDoer, options ...Option) *Service {
	counter := 0
	base := []Option{
		WithCredentialStore(store),
		WithHTTPClient(doer),
		WithIDGenerator(func() string {
			counter++
			return fmt.Sprintf("cred-%04d", counter)
		}),
	}
	service, err := NewService(Config{}, append(base, options...)...)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return service
}

func mustEncodeMaterial(t interface{ Fatalf(string, ...any) }, material SecretMaterial) []byte {
	payload, err := (JSONSecretCodec{}).Encode(material)
	if err != nil {
		t.Fatalf("encode material: %v", err)
	}
	return payload
}

func connectedCredential(t interface{ Fatalf(string, ...any) }, id string, material SecretMaterial) Credential {
	material.Status = SecretStatusConnected
	now := time.Now().UTC()
	return Credential{
		ID:            id,
		RoleID:        "role-1",
		CompanyID:     "company-1",
		DisplayName:   "Connected Integration",
		AuthKind:      AuthKindOAuth,
		SecretPayload: mustEncodeMaterial(t, material),
		IsActive:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func timePointer(value time.Time) *time.Time {
	utc := value.UTC()
	return &utc
}
