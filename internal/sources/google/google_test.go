package google

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	apperrors "datajobs/internal/errors"

	"golang.org/x/oauth2"
	gsheet "google.golang.org/api/sheets/v4"
)

func TestParseValues(t *testing.T) {
	values := [][]interface{}{
		{"work_year", " job_title ", "salary_in_usd"},
		{"2024", "Data Engineer", 150000.0},
		{},
		{"2023", "Analyst"},
	}

	table, err := parseValues(values, "sheets:test")
	if err != nil {
		t.Fatalf("parse err: %v", err)
	}
	if table.Header[1] != "job_title" {
		t.Fatalf("header not trimmed: %q", table.Header[1])
	}
	if len(table.Rows) != 2 {
		t.Fatalf("expected blank rows skipped, got %d rows", len(table.Rows))
	}
	if table.Rows[0][2] != "150000" {
		t.Fatalf("numeric cell rendered as %q", table.Rows[0][2])
	}
	if len(table.Rows[1]) != 2 {
		t.Fatalf("short row should stay short")
	}
}

func TestParseValuesErrors(t *testing.T) {
	if _, err := parseValues(nil, "x"); apperrors.TypeOf(err) != apperrors.ErrTypeSchema {
		t.Fatalf("expected schema error for empty range, got %v", err)
	}
	wide := [][]interface{}{{"a"}, {"1", "2"}}
	if _, err := parseValues(wide, "x"); apperrors.TypeOf(err) != apperrors.ErrTypeSchema {
		t.Fatalf("expected schema error for wide row, got %v", err)
	}
}

func TestNewRequiresSpreadsheetID(t *testing.T) {
	if _, err := New(context.Background(), "  ", ""); err == nil {
		t.Fatalf("expected error for missing id")
	}
}

const testOAuthClient = `{"installed":{"client_id":"id.apps.googleusercontent.com","client_secret":"secret","auth_uri":"https://accounts.google.com/o/oauth2/auth","token_uri":"https://oauth2.googleapis.com/token","redirect_uris":["http://localhost"]}}`

func clearCredentialEnv(t *testing.T) {
	for _, key := range []string{
		"GOOGLE_SERVICE_ACCOUNT_JSON", "GOOGLE_SERVICE_ACCOUNT_FILE", "GOOGLE_APPLICATION_CREDENTIALS",
		"GOOGLE_OAUTH_CLIENT_JSON", "GOOGLE_OAUTH_CLIENT_FILE",
		"GOOGLE_OAUTH_TOKEN_JSON", "GOOGLE_OAUTH_TOKEN_FILE",
	} {
		t.Setenv(key, "")
	}
}

func TestNewRequiresCredentials(t *testing.T) {
	clearCredentialEnv(t)
	_, err := New(context.Background(), "sheet-id", "")
	if err == nil || !strings.Contains(err.Error(), "missing google credentials") {
		t.Fatalf("expected missing credentials error, got %v", err)
	}
}

func TestOAuthClientRequiresToken(t *testing.T) {
	clearCredentialEnv(t)
	t.Setenv("GOOGLE_OAUTH_CLIENT_JSON", testOAuthClient)

	_, err := clientOptionFromEnv(context.Background())
	if err == nil || !strings.Contains(err.Error(), "missing oauth token") {
		t.Fatalf("expected missing token error, got %v", err)
	}
}

func TestOAuthTokenFromFile(t *testing.T) {
	clearCredentialEnv(t)
	dir := t.TempDir()
	clientPath := filepath.Join(dir, "client.json")
	if err := os.WriteFile(clientPath, []byte(testOAuthClient), 0o600); err != nil {
		t.Fatal(err)
	}
	tokenPath := filepath.Join(dir, "token.json")
	tok := &oauth2.Token{AccessToken: "access", RefreshToken: "refresh", TokenType: "Bearer"}
	if err := SaveToken(tokenPath, tok); err != nil {
		t.Fatalf("save token: %v", err)
	}
	t.Setenv("GOOGLE_OAUTH_CLIENT_FILE", clientPath)
	t.Setenv("GOOGLE_OAUTH_TOKEN_FILE", tokenPath)

	opt, err := clientOptionFromEnv(context.Background())
	if err != nil {
		t.Fatalf("client option: %v", err)
	}
	if opt == nil {
		t.Fatalf("expected a client option")
	}

	info, err := os.Stat(tokenPath)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("token file mode = %v", info.Mode().Perm())
	}
}

func TestOAuthConfigUsesReadonlyScope(t *testing.T) {
	cfg, err := OAuthConfig([]byte(testOAuthClient))
	if err != nil {
		t.Fatalf("oauth config: %v", err)
	}
	if len(cfg.Scopes) != 1 || cfg.Scopes[0] != gsheet.SpreadsheetsReadonlyScope {
		t.Fatalf("unexpected scopes %v", cfg.Scopes)
	}
	if _, err := OAuthConfig([]byte("{}")); err == nil {
		t.Fatalf("expected error for malformed client")
	}
}

func TestInvalidOAuthToken(t *testing.T) {
	clearCredentialEnv(t)
	t.Setenv("GOOGLE_OAUTH_CLIENT_JSON", testOAuthClient)
	t.Setenv("GOOGLE_OAUTH_TOKEN_JSON", "not json")

	if _, err := clientOptionFromEnv(context.Background()); err == nil {
		t.Fatalf("expected token parse error")
	}
}
