package replay

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/funnyzak/reqreplay/internal/config"
	"github.com/funnyzak/reqreplay/pkg/request"
)

type queryParam struct {
	name string
	tmpl string
}

// Builder turns input records into outbound requests
type Builder struct {
	method      string
	urlTemplate string
	query       []queryParam
	headers     http.Header
	minFields   int

	payload     bool
	payloadDir  string
	payloadExt  string
	contentType string
}

// NewBuilder prepares the request template for cfg and profile
func NewBuilder(cfg *config.Config, profile Profile) (*Builder, error) {
	if err := request.CheckTemplate(cfg.Target.URL); err != nil {
		return nil, fmt.Errorf("invalid target url: %w", err)
	}

	b := &Builder{
		method:      profile.Method,
		urlTemplate: cfg.Target.URL,
		headers:     StandardHeaders(&cfg.Auth, cfg.Target.Headers),
		minFields:   profile.MinFields,
		payload:     profile.Payload,
		payloadDir:  cfg.Payload.Directory,
		payloadExt:  cfg.Payload.Extension,
		contentType: cfg.Payload.ContentType,
	}
	if n := request.MaxPlaceholder(cfg.Target.URL); n > b.minFields {
		b.minFields = n
	}
	for _, pair := range cfg.Target.Query {
		name, tmpl, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("invalid query parameter %q", pair)
		}
		if err := request.CheckTemplate(tmpl); err != nil {
			return nil, fmt.Errorf("invalid query parameter %q: %w", pair, err)
		}
		b.query = append(b.query, queryParam{name: strings.TrimSpace(name), tmpl: strings.TrimSpace(tmpl)})
		if n := request.MaxPlaceholder(tmpl); n > b.minFields {
			b.minFields = n
		}
	}
	return b, nil
}

// StandardHeaders builds the headers sent with every request: the bearer
// credential, the authentication-type marker, the identifying headers that
// are configured and finally any extra headers.
func StandardHeaders(auth *config.AuthConfig, extra map[string]string) http.Header {
	headers := make(http.Header)
	token := strings.TrimSpace(auth.Token)
	if token != "" {
		if !strings.HasPrefix(strings.ToLower(token), "bearer ") {
			token = "Bearer " + token
		}
		headers.Set("Authorization", token)
	}
	if auth.Type != "" {
		headers.Set("authentication-type", auth.Type)
	}
	if auth.Organization != "" {
		headers.Set("Organization", auth.Organization)
	}
	if auth.Client != "" {
		headers.Set("client", auth.Client)
	}
	if auth.FunctionsKey != "" {
		headers.Set("x-functions-key", auth.FunctionsKey)
	}
	for key, value := range extra {
		headers.Set(key, value)
	}
	return headers
}

// Build creates the request for rec. Errors wrap ErrRecordMalformed or
// ErrPayloadMissing.
func (b *Builder) Build(rec *request.InputRecord) (*request.ReplayRequest, error) {
	if len(rec.Fields) < b.minFields {
		return nil, fmt.Errorf("%w: expected at least %d fields, got %d", ErrRecordMalformed, b.minFields, len(rec.Fields))
	}

	target, err := request.Expand(b.urlTemplate, rec, url.PathEscape)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRecordMalformed, err)
	}
	if len(b.query) > 0 {
		u, err := url.Parse(target)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrRecordMalformed, err)
		}
		values := u.Query()
		for _, param := range b.query {
			value, err := request.Expand(param.tmpl, rec, nil)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrRecordMalformed, err)
			}
			values.Add(param.name, value)
		}
		u.RawQuery = values.Encode()
		target = u.String()
	}

	req := &request.ReplayRequest{
		Record:  rec,
		Method:  b.method,
		URL:     target,
		Headers: b.headers.Clone(),
	}
	if b.payload {
		body, err := b.readPayload(rec.ID())
		if err != nil {
			return nil, err
		}
		req.Body = body
		req.ContentType = b.contentType
	}
	return req, nil
}

// PayloadPath returns where the payload of id is expected
func (b *Builder) PayloadPath(id string) string {
	return filepath.Join(b.payloadDir, id+b.payloadExt)
}

func (b *Builder) readPayload(id string) ([]byte, error) {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
		return nil, fmt.Errorf("%w: %q is not a valid payload name", ErrRecordMalformed, id)
	}
	path := b.PayloadPath(id)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s not found", ErrPayloadMissing, path)
		}
		return nil, fmt.Errorf("%w: read %s: %v", ErrPayloadMissing, path, err)
	}
	return data, nil
}
