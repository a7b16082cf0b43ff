// Package google reads the dataset from a Google Sheets range.
package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	apperrors "datajobs/internal/errors"
	"datajobs/internal/sources"
	"datajobs/internal/telemetry"

	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

var tracer = telemetry.GetTracer("datajobs/sources/google")

var _ sources.DatasetSource = (*Source)(nil)

// DefaultRange covers the eleven dataset columns of the first sheet.
const DefaultRange = "A:K"

type Source struct {
	svc           *gsheet.Service
	spreadsheetID string
	readRange     string
}

// New builds a source from credentials found in the environment. Service
// account credentials (GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE
// or GOOGLE_APPLICATION_CREDENTIALS) win over an OAuth client and token
// (GOOGLE_OAUTH_CLIENT_JSON or _FILE with GOOGLE_OAUTH_TOKEN_JSON or _FILE).
func New(ctx context.Context, spreadsheetID, readRange string) (*Source, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	if strings.TrimSpace(readRange) == "" {
		readRange = DefaultRange
	}

	auth, err := clientOptionFromEnv(ctx)
	if err != nil {
		return nil, err
	}

	svc, err := gsheet.NewService(ctx, auth)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &Source{svc: svc, spreadsheetID: spreadsheetID, readRange: readRange}, nil
}

func clientOptionFromEnv(ctx context.Context) (goption.ClientOption, error) {
	creds, err := envOrFile("GOOGLE_SERVICE_ACCOUNT_JSON", "GOOGLE_SERVICE_ACCOUNT_FILE", "GOOGLE_APPLICATION_CREDENTIALS")
	if err != nil {
		return nil, fmt.Errorf("read service account: %w", err)
	}
	if creds != nil {
		return goption.WithCredentialsJSON(creds), nil
	}

	clientJSON, err := envOrFile("GOOGLE_OAUTH_CLIENT_JSON", "GOOGLE_OAUTH_CLIENT_FILE")
	if err != nil {
		return nil, fmt.Errorf("read oauth client: %w", err)
	}
	if clientJSON == nil {
		return nil, errors.New("missing google credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, GOOGLE_APPLICATION_CREDENTIALS, or GOOGLE_OAUTH_CLIENT_JSON with GOOGLE_OAUTH_TOKEN_JSON)")
	}

	cfg, err := OAuthConfig(clientJSON)
	if err != nil {
		return nil, err
	}

	tokenJSON, err := envOrFile("GOOGLE_OAUTH_TOKEN_JSON", "GOOGLE_OAUTH_TOKEN_FILE")
	if err != nil {
		return nil, fmt.Errorf("read oauth token: %w", err)
	}
	if tokenJSON == nil {
		return nil, errors.New("missing oauth token (set GOOGLE_OAUTH_TOKEN_JSON or GOOGLE_OAUTH_TOKEN_FILE)")
	}
	var tok oauth2.Token
	if err := json.Unmarshal(tokenJSON, &tok); err != nil {
		return nil, fmt.Errorf("parse oauth token: %w", err)
	}

	return goption.WithTokenSource(cfg.TokenSource(ctx, &tok)), nil
}

// OAuthConfig parses an OAuth client JSON for read-only Sheets access.
func OAuthConfig(clientJSON []byte) (*oauth2.Config, error) {
	cfg, err := googleoauth.ConfigFromJSON(clientJSON, gsheet.SpreadsheetsReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("parse oauth client: %w", err)
	}
	return cfg, nil
}

// SaveToken writes tok as JSON, readable by the owner only.
func SaveToken(path string, tok *oauth2.Token) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("open token file: %w", err)
	}
	if err := json.NewEncoder(f).Encode(tok); err != nil {
		_ = f.Close()
		return fmt.Errorf("write token: %w", err)
	}
	return f.Close()
}

// envOrFile returns the inline value of the first key, or the contents of
// the file named by the first non-empty remaining key. Nil means none is set.
func envOrFile(inlineKey string, fileKeys ...string) ([]byte, error) {
	if inline := strings.TrimSpace(os.Getenv(inlineKey)); inline != "" {
		return []byte(inline), nil
	}
	for _, key := range fileKeys {
		path := strings.TrimSpace(os.Getenv(key))
		if path == "" {
			continue
		}
		return os.ReadFile(path)
	}
	return nil, nil
}

func (s *Source) Name() string {
	return fmt.Sprintf("sheets:%s!%s", s.spreadsheetID, s.readRange)
}

func (s *Source) Fetch(ctx context.Context) (sources.RawTable, error) {
	ctx, span := tracer.Start(ctx, "google.Fetch")
	defer span.End()
	span.SetAttributes(telemetry.String("sheets.range", s.readRange))

	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, s.readRange).Context(ctx).Do()
	if err != nil {
		span.RecordError(err)
		return sources.RawTable{}, apperrors.Unavailable("reading spreadsheet", err)
	}
	return parseValues(resp.Values, s.Name())
}

// parseValues turns a values matrix into a RawTable. The first row is the header.
// Trailing empty cells are omitted by the API, so rows may be short.
func parseValues(values [][]interface{}, origin string) (sources.RawTable, error) {
	if len(values) == 0 {
		return sources.RawTable{}, apperrors.Schema(origin+": empty range", nil)
	}
	header := toStrings(values[0])
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	table := sources.RawTable{Header: header, Origin: origin}
	for i, row := range values[1:] {
		cells := toStrings(row)
		if len(cells) > len(header) {
			return sources.RawTable{}, apperrors.Schema(
				fmt.Sprintf("%s: row %d has %d cells, header has %d", origin, i+2, len(cells), len(header)), nil)
		}
		if isBlank(cells) {
			continue
		}
		table.Rows = append(table.Rows, cells)
	}
	return table, nil
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		if v == nil {
			continue
		}
		out[i] = fmt.Sprint(v)
	}
	return out
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
