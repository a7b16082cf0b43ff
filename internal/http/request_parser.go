// Package http provides HTTP server and handler implementations.
//
// This file turns query strings, form posts and JSON bodies into filter
// specs, and holds the small request guards shared by the handlers.

package http

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"datajobs/internal/engine"
)

// Filter parameter names. Multi-valued dimensions repeat the key.
const (
	ParamYear         = "year"
	ParamSeniority    = "seniority"
	ParamContractType = "contract_type"
	ParamCompanySize  = "company_size"
	ParamJobTitle     = "job_title"
	ParamLimit        = "limit"
	ParamOffset       = "offset"
)

const (
	defaultPageLimit = 100
	maxPageLimit     = 1000
	maxBodyBytes     = 1 << 20
)

// ParseFilterValues builds a spec from url values. A dimension whose key is
// absent keeps its value from defaults; a key present only with empty values
// selects nothing. The dashboard form sends one hidden empty value per
// dimension so that clearing every box reaches the server as an empty set.
func ParseFilterValues(values url.Values, defaults engine.FilterSpec) (engine.FilterSpec, error) {
	spec := defaults

	if raw, ok := values[ParamYear]; ok {
		years := make([]int, 0, len(raw))
		for _, v := range nonEmpty(raw) {
			y, err := strconv.Atoi(v)
			if err != nil {
				return engine.FilterSpec{}, fmt.Errorf("invalid year %q", v)
			}
			years = append(years, y)
		}
		spec.Years = years
	}
	if raw, ok := values[ParamSeniority]; ok {
		spec.Seniority = nonEmpty(raw)
	}
	if raw, ok := values[ParamContractType]; ok {
		spec.ContractTypes = nonEmpty(raw)
	}
	if raw, ok := values[ParamCompanySize]; ok {
		spec.CompanySizes = nonEmpty(raw)
	}

	spec.JobTitle = sanitizeInput(values.Get(ParamJobTitle))
	if spec.JobTitle == "" {
		spec.JobTitle = engine.AllJobTitles
	}
	return spec, nil
}

// filterBody is the JSON form of a spec. A null or missing dimension keeps
// the default (everything); an empty array selects nothing.
type filterBody struct {
	Years         []int    `json:"years"`
	Seniority     []string `json:"seniority"`
	ContractTypes []string `json:"contract_types"`
	CompanySizes  []string `json:"company_sizes"`
	JobTitle      string   `json:"job_title"`
}

// ParseFilterJSON decodes a spec from a JSON request body.
func ParseFilterJSON(r io.Reader, defaults engine.FilterSpec) (engine.FilterSpec, error) {
	var body filterBody
	dec := json.NewDecoder(io.LimitReader(r, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil && err != io.EOF {
		return engine.FilterSpec{}, fmt.Errorf("invalid filter body: %w", err)
	}

	spec := defaults
	if body.Years != nil {
		spec.Years = body.Years
	}
	if body.Seniority != nil {
		spec.Seniority = trimAll(body.Seniority)
	}
	if body.ContractTypes != nil {
		spec.ContractTypes = trimAll(body.ContractTypes)
	}
	if body.CompanySizes != nil {
		spec.CompanySizes = trimAll(body.CompanySizes)
	}
	spec.JobTitle = sanitizeInput(body.JobTitle)
	if spec.JobTitle == "" {
		spec.JobTitle = engine.AllJobTitles
	}
	return spec, nil
}

// ParseFilterRequest reads a spec from the query string for GET and from the
// body for POST, JSON or form encoded.
func ParseFilterRequest(r *http.Request, defaults engine.FilterSpec) (engine.FilterSpec, error) {
	if r.Method != http.MethodPost {
		return ParseFilterValues(r.URL.Query(), defaults)
	}

	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		return ParseFilterJSON(r.Body, defaults)
	}

	r.Body = http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		return engine.FilterSpec{}, fmt.Errorf("invalid form: %w", err)
	}
	return ParseFilterValues(r.Form, defaults)
}

// PageParams bounds the rows returned by the records endpoint.
type PageParams struct {
	Limit  int
	Offset int
}

// ParsePageParams reads limit and offset, applying defaults and a ceiling.
func ParsePageParams(query url.Values) (PageParams, error) {
	p := PageParams{Limit: defaultPageLimit}

	if v := strings.TrimSpace(query.Get(ParamLimit)); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return PageParams{}, fmt.Errorf("invalid limit %q", v)
		}
		p.Limit = min(n, maxPageLimit)
	}
	if v := strings.TrimSpace(query.Get(ParamOffset)); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return PageParams{}, fmt.Errorf("invalid offset %q", v)
		}
		p.Offset = n
	}
	return p, nil
}

// EncodeFilterValues is the inverse of ParseFilterValues. It always emits
// every key so the result round-trips empty sets.
func EncodeFilterValues(spec engine.FilterSpec) url.Values {
	v := url.Values{}
	v[ParamYear] = []string{""}
	for _, y := range spec.Years {
		v.Add(ParamYear, strconv.Itoa(y))
	}
	v[ParamSeniority] = append([]string{""}, spec.Seniority...)
	v[ParamContractType] = append([]string{""}, spec.ContractTypes...)
	v[ParamCompanySize] = append([]string{""}, spec.CompanySizes...)
	v.Set(ParamJobTitle, spec.JobTitle)
	return v
}

func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = sanitizeInput(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func trimAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = sanitizeInput(v)
	}
	return out
}

// RequireMethod checks if the request method matches the expected method(s).
// Returns an error response builder if the method doesn't match.
func RequireMethod(r *http.Request, methods ...string) *HTMXResponseBuilder {
	for _, m := range methods {
		if r.Method == m {
			return nil
		}
	}
	return MethodNotAllowedError(strings.Join(methods, ", "))
}

// RequireGET is a convenience function for read-only handlers.
func RequireGET(r *http.Request) *HTMXResponseBuilder {
	return RequireMethod(r, http.MethodGet, http.MethodHead)
}

// RequirePOST is a convenience function for POST-only handlers.
func RequirePOST(r *http.Request) *HTMXResponseBuilder {
	return RequireMethod(r, http.MethodPost)
}
