package cmd

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/bilalbayram/eventscli/internal/auth"
	"github.com/bilalbayram/eventscli/internal/config"
)

func signedTestToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-signing-key"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func runAuthCommand(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()

	cmd := NewAuthCommand(testRuntime(""))
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

func TestAuthLoginStoresTokenAndUpdatesProfile(t *testing.T) {
	env := useCommandEnv(t, nil)

	cfg, err := config.Load(env.configPath)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	profile := cfg.Profiles["prod"]
	profile.TokenRef = ""
	cfg.Profiles["prod"] = profile
	if err := config.Save(env.configPath, cfg); err != nil {
		t.Fatalf("save config: %v", err)
	}

	expiresAt := time.Now().Add(2 * time.Hour).UTC().Truncate(time.Second)
	token := signedTestToken(t, jwt.MapClaims{
		"client_id": "client-1",
		"exp":       expiresAt.Unix(),
	})

	stdout, _, err := runAuthCommand(t, token+"\n", "login", "--token-stdin")
	if err != nil {
		t.Fatalf("execute login: %v", err)
	}

	envelope := decodeEnvelope(t, []byte(stdout))
	assertEnvelopeBasics(t, envelope, "events auth login")
	data := envelope["data"].(map[string]any)
	if data["token_ref"] != testTokenRef {
		t.Fatalf("unexpected token ref %v", data["token_ref"])
	}
	if data["expires_at"] != expiresAt.Format(time.RFC3339) {
		t.Fatalf("unexpected expires_at %v", data["expires_at"])
	}
	if data["token_client_id"] != "client-1" {
		t.Fatalf("unexpected token client id %v", data["token_client_id"])
	}

	stored, err := env.store.Get(testTokenRef)
	if err != nil {
		t.Fatalf("read stored token: %v", err)
	}
	if stored != token {
		t.Fatal("stored token does not match the login token")
	}

	reloaded, err := config.Load(env.configPath)
	if err != nil {
		t.Fatalf("reload config: %v", err)
	}
	if reloaded.Profiles["prod"].TokenRef != testTokenRef {
		t.Fatalf("expected profile token ref to be persisted, got %q", reloaded.Profiles["prod"].TokenRef)
	}
}

func TestAuthLoginRejectsExpiredToken(t *testing.T) {
	env := useCommandEnv(t, nil)
	if err := env.store.Delete(testTokenRef); err != nil {
		t.Fatalf("clear token: %v", err)
	}

	token := signedTestToken(t, jwt.MapClaims{"exp": time.Now().Add(-time.Hour).Unix()})
	_, stderr, err := runAuthCommand(t, "", "login", "--token", token)
	if err == nil {
		t.Fatal("expected expired token error")
	}
	if !errors.Is(err, auth.ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
	if ExitCode(err) != exitAuth {
		t.Fatalf("expected auth exit code, got %d", ExitCode(err))
	}
	if category := remediationCategory(t, decodeErrorInfo(t, []byte(stderr))); category != "auth" {
		t.Fatalf("expected auth remediation, got %q", category)
	}
	if _, err := env.store.Get(testTokenRef); !errors.Is(err, auth.ErrSecretNotFound) {
		t.Fatalf("expired token must not be stored, got %v", err)
	}
}

func TestAuthLoginRequiresToken(t *testing.T) {
	useCommandEnv(t, nil)

	_, _, err := runAuthCommand(t, "", "login")
	if err == nil {
		t.Fatal("expected missing token error")
	}
	if ExitCode(err) != exitInput {
		t.Fatalf("expected input exit code, got %d", ExitCode(err))
	}
}

func TestAuthStatusReportsKeychainToken(t *testing.T) {
	useCommandEnv(t, nil)

	stdout, _, err := runAuthCommand(t, "", "status")
	if err != nil {
		t.Fatalf("execute status: %v", err)
	}
	envelope := decodeEnvelope(t, []byte(stdout))
	assertEnvelopeBasics(t, envelope, "events auth status")
	data := envelope["data"].(map[string]any)
	if data["token_type"] != "opaque" {
		t.Fatalf("unexpected token type %v", data["token_type"])
	}
	if data["source"] != "keychain" {
		t.Fatalf("unexpected token source %v", data["source"])
	}
	if data["profile"] != "prod" {
		t.Fatalf("unexpected profile %v", data["profile"])
	}
}

func TestAuthStatusPrefersEnvironmentToken(t *testing.T) {
	useCommandEnv(t, nil)

	expiresAt := time.Now().Add(time.Hour).UTC()
	token := signedTestToken(t, jwt.MapClaims{
		"exp":        expiresAt.Unix(),
	})
	getenv = func(key string) string {
		if key == auth.EnvAccessToken {
			return token
		}
		return ""
	}

	stdout, _, err := runAuthCommand(t, "", "status")
	if err != nil {
		t.Fatalf("execute status: %v", err)
	}
	data := decodeEnvelope(t, []byte(stdout))["data"].(map[string]any)
	if data["source"] != "env" {
		t.Fatalf("unexpected token source %v", data["source"])
	}
	if data["token_type"] != "jwt" {
		t.Fatalf("unexpected token type %v", data["token_type"])
	}
	if _, ok := data["expires_in"]; !ok {
		t.Fatalf("expected expires_in, got %+v", data)
	}
}

func TestAuthStatusFailsWithoutStoredToken(t *testing.T) {
	env := useCommandEnv(t, nil)
	if err := env.store.Delete(testTokenRef); err != nil {
		t.Fatalf("clear token: %v", err)
	}

	_, _, err := runAuthCommand(t, "", "status")
	if err == nil {
		t.Fatal("expected missing token error")
	}
	if ExitCode(err) != exitAuth {
		t.Fatalf("expected auth exit code, got %d", ExitCode(err))
	}
}

func TestAuthLogoutDeletesToken(t *testing.T) {
	env := useCommandEnv(t, nil)

	stdout, _, err := runAuthCommand(t, "", "logout")
	if err != nil {
		t.Fatalf("execute logout: %v", err)
	}
	assertEnvelopeBasics(t, decodeEnvelope(t, []byte(stdout)), "events auth logout")
	if _, err := env.store.Get(testTokenRef); !errors.Is(err, auth.ErrSecretNotFound) {
		t.Fatalf("expected token to be deleted, got %v", err)
	}
}

func TestReadTokenFromRejectsEmptyInput(t *testing.T) {
	t.Parallel()

	if _, err := readTokenFrom(strings.NewReader("")); err == nil {
		t.Fatal("expected empty stdin error")
	}
	token, err := readTokenFrom(strings.NewReader("  abc  \nignored\n"))
	if err != nil {
		t.Fatalf("read token: %v", err)
	}
	if token != "abc" {
		t.Fatalf("unexpected token %q", token)
	}
}
