package cmd

import (
	"bytes"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bilalbayram/eventscli/internal/config"
	"github.com/bilalbayram/eventscli/internal/testutil"
)

const workspaceRegistrationsPath = "/events/112233/projectId/workspaceId/registrations"

func runRegistrationCommand(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()

	cmd := NewRegistrationCommand(testRuntime(""))
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestRegistrationListFollowsPagination(t *testing.T) {
	env := useCommandEnv(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "1" {
			testutil.WriteJSON(w, http.StatusOK, testutil.HALPage("registrations",
				[]map[string]any{{"registration_id": "R2", "name": "second"}}, r.URL.String(), ""))
			return
		}
		testutil.WriteJSON(w, http.StatusOK, testutil.HALPage("registrations",
			[]map[string]any{{"registration_id": "R1", "name": "first"}}, r.URL.Path, workspaceRegistrationsPath+"?page=1"))
	})

	stdout, _, err := runRegistrationCommand(t, "", "list")
	if err != nil {
		t.Fatalf("execute registration list: %v", err)
	}
	envelope := decodeEnvelope(t, []byte(stdout))
	assertEnvelopeBasics(t, envelope, "events registration list")
	registrations := envelope["data"].([]any)
	if len(registrations) != 2 {
		t.Fatalf("expected two registrations across pages, got %d", len(registrations))
	}
	if got := len(env.recorded()); got != 2 {
		t.Fatalf("expected two page requests, got %d", got)
	}
}

func TestRegistrationCreateDefaultsClientIDFromProfile(t *testing.T) {
	env := useCommandEnv(t, func(w http.ResponseWriter, r *http.Request) {
		testutil.WriteJSON(w, http.StatusCreated, map[string]any{"registration_id": "NEW1", "name": "Orders hook"})
	})

	body := `{
  "name": "Orders hook",
  "description": "Order events",
  "delivery_type": "webhook",
  "webhook_url": "https://example.com/hook",
  "events_of_interest": [{"provider_id": "provider-1", "event_code": "order.created"}]
}`
	stdout, _, err := runRegistrationCommand(t, body, "create", "-")
	if err != nil {
		t.Fatalf("execute registration create: %v", err)
	}
	assertEnvelopeBasics(t, decodeEnvelope(t, []byte(stdout)), "events registration create")

	requests := env.recorded()
	if len(requests) != 1 {
		t.Fatalf("expected one request, got %d", len(requests))
	}
	if requests[0].Method != http.MethodPost || requests[0].Path != workspaceRegistrationsPath {
		t.Fatalf("unexpected request %s %s", requests[0].Method, requests[0].Path)
	}
	sent := map[string]any{}
	if err := json.Unmarshal([]byte(requests[0].Body), &sent); err != nil {
		t.Fatalf("decode request body: %v", err)
	}
	if sent["client_id"] != "client-1" {
		t.Fatalf("expected profile client id, got %v", sent["client_id"])
	}
}

func TestRegistrationCreateReadsBodyFile(t *testing.T) {
	env := useCommandEnv(t, func(w http.ResponseWriter, r *http.Request) {
		testutil.WriteJSON(w, http.StatusCreated, map[string]any{"registration_id": "NEW1"})
	})

	path := filepath.Join(t.TempDir(), "registration.json")
	raw := `{"name":"Journal","client_id":"other-client","delivery_type":"journal","events_of_interest":[{"provider_id":"p","event_code":"c"}]}`
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatalf("write body file: %v", err)
	}

	if _, _, err := runRegistrationCommand(t, "", "create", path); err != nil {
		t.Fatalf("execute registration create: %v", err)
	}
	sent := map[string]any{}
	if err := json.Unmarshal([]byte(env.recorded()[0].Body), &sent); err != nil {
		t.Fatalf("decode request body: %v", err)
	}
	if sent["client_id"] != "other-client" {
		t.Fatalf("explicit client id must be kept, got %v", sent["client_id"])
	}
}

func TestRegistrationCreateRejectsInvalidInput(t *testing.T) {
	cases := map[string]string{
		"unknown field":      `{"name":"ok","unexpected":true}`,
		"invalid name":       `{"name":"bad<name>","delivery_type":"journal","events_of_interest":[{"provider_id":"p","event_code":"c"}]}`,
		"invalid event code": `{"name":"ok","delivery_type":"journal","events_of_interest":[{"provider_id":"p","event_code":"bad code"}]}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			env := useCommandEnv(t, nil)

			_, _, err := runRegistrationCommand(t, body, "create", "-")
			if err == nil {
				t.Fatal("expected input error")
			}
			if ExitCode(err) != exitInput {
				t.Fatalf("expected input exit code, got %d (%v)", ExitCode(err), err)
			}
			if len(env.recorded()) != 0 {
				t.Fatal("invalid input must not reach the service")
			}
		})
	}
}

func TestRegistrationRequiresWorkspaceProfile(t *testing.T) {
	env := useCommandEnv(t, nil)

	cfg, err := config.Load(env.configPath)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	profile := cfg.Profiles["prod"]
	profile.ProjectID = ""
	profile.WorkspaceID = ""
	if err := cfg.UpsertProfile("prod", profile); err != nil {
		t.Fatalf("upsert profile: %v", err)
	}
	if err := config.Save(env.configPath, cfg); err != nil {
		t.Fatalf("save config: %v", err)
	}

	_, stderr, err := runRegistrationCommand(t, "", "list")
	if err == nil {
		t.Fatal("expected missing workspace error")
	}
	if ExitCode(err) != exitInput {
		t.Fatalf("expected input exit code, got %d", ExitCode(err))
	}
	info := decodeErrorInfo(t, []byte(stderr))
	if message, _ := info["message"].(string); !strings.Contains(message, "no project/workspace selected") {
		t.Fatalf("unexpected message %q", message)
	}
}

func TestRegistrationDeleteCallsWorkspaceEndpoint(t *testing.T) {
	env := useCommandEnv(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	stdout, _, err := runRegistrationCommand(t, "", "delete", "R1")
	if err != nil {
		t.Fatalf("execute registration delete: %v", err)
	}
	envelope := decodeEnvelope(t, []byte(stdout))
	assertEnvelopeBasics(t, envelope, "events registration delete")
	if data := envelope["data"].(map[string]any); data["registration_id"] != "R1" {
		t.Fatalf("unexpected data %+v", data)
	}
	requests := env.recorded()
	if len(requests) != 1 || requests[0].Method != http.MethodDelete || requests[0].Path != workspaceRegistrationsPath+"/R1" {
		t.Fatalf("unexpected requests %+v", requests)
	}
}
