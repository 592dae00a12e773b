package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/bilalbayram/eventscli/internal/auth"
	"github.com/bilalbayram/eventscli/internal/config"
	"github.com/bilalbayram/eventscli/internal/events"
	"github.com/bilalbayram/eventscli/internal/testutil"
)

const testTokenRef = "keychain://eventscli/prod/token"

type memorySecretStore struct {
	mu      sync.Mutex
	secrets map[string]string
}

func newMemorySecretStore() *memorySecretStore {
	return &memorySecretStore{secrets: map[string]string{}}
}

func (s *memorySecretStore) Set(ref string, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.secrets[ref] = value
	return nil
}

func (s *memorySecretStore) Get(ref string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.secrets[ref]
	if !ok {
		return "", fmt.Errorf("%w for %q", auth.ErrSecretNotFound, ref)
	}
	return value, nil
}

func (s *memorySecretStore) Delete(ref string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.secrets, ref)
	return nil
}

type recordedRequest struct {
	Method string
	Path   string
	Query  string
	Header http.Header
	Body   string
}

type commandTestEnv struct {
	configPath string
	store      *memorySecretStore
	server     *httptest.Server

	mu       sync.Mutex
	requests []recordedRequest
}

func (e *commandTestEnv) recorded() []recordedRequest {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]recordedRequest(nil), e.requests...)
}

func testProfile() config.Profile {
	return config.Profile{
		OrgID:       "112233",
		OrgCode:     "IMSORG@AdobeOrg",
		ProjectID:   "projectId",
		WorkspaceID: "workspaceId",
		ClientID:    "client-1",
		TokenRef:    testTokenRef,
	}
}

// useCommandEnv points every package-level dependency at a temp config, an
// in-memory keychain and an httptest server running handler.
func useCommandEnv(t *testing.T, handler http.HandlerFunc) *commandTestEnv {
	t.Helper()

	env := &commandTestEnv{
		configPath: filepath.Join(t.TempDir(), "config.yaml"),
		store:      newMemorySecretStore(),
	}
	cfg := config.New()
	if err := cfg.UpsertProfile("prod", testProfile()); err != nil {
		t.Fatalf("upsert profile: %v", err)
	}
	if err := config.Save(env.configPath, cfg); err != nil {
		t.Fatalf("save config: %v", err)
	}
	if err := env.store.Set(testTokenRef, "test-token"); err != nil {
		t.Fatalf("store token: %v", err)
	}

	if handler == nil {
		handler = func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}
	}
	env.server = testutil.NewJSONServer(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		env.mu.Lock()
		env.requests = append(env.requests, recordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.RawQuery,
			Header: r.Header.Clone(),
			Body:   string(body),
		})
		env.mu.Unlock()
		handler(w, r)
	})
	t.Cleanup(env.server.Close)

	originalConfigPath := configPath
	originalSecretStore := newSecretStore
	originalClient := newEventsClient
	originalGetenv := getenv
	originalEnviron := hookEnviron
	t.Cleanup(func() {
		configPath = originalConfigPath
		newSecretStore = originalSecretStore
		newEventsClient = originalClient
		getenv = originalGetenv
		hookEnviron = originalEnviron
	})

	configPath = func() (string, error) { return env.configPath, nil }
	newSecretStore = func() auth.SecretStore { return env.store }
	newEventsClient = func(_ string, logger *zap.Logger) *events.Client {
		client := events.NewClient(env.server.Client(), env.server.URL)
		client.Sleep = func(time.Duration) {}
		client.Logger = logger
		return client
	}
	getenv = func(string) string { return "" }
	hookEnviron = func() []string { return nil }
	return env
}

func testRuntime(profile string) Runtime {
	output := "json"
	debug := false
	return Runtime{
		Profile: &profile,
		Output:  &output,
		Debug:   &debug,
	}
}

func decodeEnvelope(t *testing.T, raw []byte) map[string]any {
	t.Helper()

	decoded := map[string]any{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("decode envelope: %v (raw=%q)", err, string(raw))
	}
	return decoded
}

func assertEnvelopeBasics(t *testing.T, envelope map[string]any, command string) {
	t.Helper()

	if got, _ := envelope["command"].(string); got != command {
		t.Fatalf("unexpected envelope command %q", got)
	}
	success, ok := envelope["success"].(bool)
	if !ok {
		t.Fatalf("expected success bool, got %T", envelope["success"])
	}
	if !success {
		t.Fatalf("expected successful envelope, got %+v", envelope)
	}
}

func decodeErrorInfo(t *testing.T, raw []byte) map[string]any {
	t.Helper()

	envelope := decodeEnvelope(t, raw)
	if success, _ := envelope["success"].(bool); success {
		t.Fatalf("expected failed envelope, got %+v", envelope)
	}
	info, ok := envelope["error"].(map[string]any)
	if !ok {
		t.Fatalf("expected error object, got %T", envelope["error"])
	}
	return info
}

func remediationCategory(t *testing.T, info map[string]any) string {
	t.Helper()

	remediation, ok := info["remediation"].(map[string]any)
	if !ok {
		t.Fatalf("expected remediation object, got %T", info["remediation"])
	}
	category, _ := remediation["category"].(string)
	return category
}
