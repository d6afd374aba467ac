package client

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"time"
)

const (
	// DefaultRouterAddress is the NR5103E management address on the LAN side
	DefaultRouterAddress = "https://192.168.1.1"

	routerAccount   = "admin"
	loginPath       = "/UserLogin"
	wanStatusPath   = "/cgi-bin/DAL?oid=cellwan_status"
	routerTimeout   = 10 * time.Second
	maxResponseSize = 1 << 20
)

// Password is the router admin credential. It is only read during login.
type Password string

// Session is the token issued by a successful login
type Session struct {
	token string
}

// Token returns the raw session cookie value
func (s Session) Token() string {
	return s.token
}

// Router is the subset of the router API the exporter needs
type Router interface {
	Login(ctx context.Context, password Password) (Session, error)
	WanStatus(ctx context.Context, session Session) (*WanStatus, error)
}

// RouterClient talks to the NR5103E web management API over HTTPS.
// The router serves a self-signed certificate, so verification is disabled.
type RouterClient struct {
	address string
	http    *http.Client
}

// NewRouterClient creates a new router client for the given base address
func NewRouterClient(address string) *RouterClient {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // self-signed device

	return &RouterClient{
		address: strings.TrimRight(address, "/"),
		http: &http.Client{
			Transport: transport,
			Timeout:   routerTimeout,
		},
	}
}

type loginRequest struct {
	Account          string `json:"Input_Account"`
	Password         string `json:"Input_Passwd"`
	Lang             string `json:"currLang"`
	RememberPassword int    `json:"RememberPassword"`
	SHA512Password   bool   `json:"SHA512_password"`
}

// Login authenticates as admin and returns the session from the set-cookie header
func (c *RouterClient) Login(ctx context.Context, password Password) (Session, error) {
	body, err := json.Marshal(loginRequest{
		Account:  routerAccount,
		Password: base64.StdEncoding.EncodeToString([]byte(password)),
		Lang:     "en",
	})
	if err != nil {
		return Session{}, fmt.Errorf("encode login request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.address+loginPath, bytes.NewReader(body))
	if err != nil {
		return Session{}, fmt.Errorf("%w: build login request: %v", ErrTransport, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Session{}, fmt.Errorf("%w: login: %v", ErrTransport, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseSize))

	return sessionFromHeader(resp.Header)
}

func sessionFromHeader(h http.Header) (Session, error) {
	raw := h.Get("Set-Cookie")
	if raw == "" {
		return Session{}, fmt.Errorf("%w: no set-cookie header in login response", ErrAuth)
	}

	cookie, err := http.ParseSetCookie(raw)
	if err != nil {
		return Session{}, fmt.Errorf("%w: parse set-cookie: %v", ErrAuth, err)
	}
	if cookie.Value == "" {
		return Session{}, fmt.Errorf("%w: empty session cookie %q", ErrAuth, cookie.Name)
	}

	return Session{token: cookie.Value}, nil
}

// WanStatus fetches the cellular WAN status using an existing session
func (c *RouterClient) WanStatus(ctx context.Context, session Session) (*WanStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.address+wanStatusPath, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build status request: %v", ErrTransport, err)
	}
	req.Header.Set("Cookie", "Session="+session.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: wan status: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: read wan status: %v", ErrTransport, err)
	}

	return ParseWanStatus(body)
}

// ParseWanStatus unwraps the {"Object":[{...}]} envelope and decodes the first object
func ParseWanStatus(body []byte) (*WanStatus, error) {
	var envelope struct {
		Object []json.RawMessage `json:"Object"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: wan status envelope: %v", ErrParse, err)
	}
	if len(envelope.Object) == 0 {
		return nil, fmt.Errorf("%w: wan status response has no Object entries", ErrParse)
	}

	raw := envelope.Object[0]

	if err := requireFields(raw, reflect.TypeOf(WanStatus{}), "wan status"); err != nil {
		return nil, err
	}

	var status WanStatus
	if err := json.Unmarshal(raw, &status); err != nil {
		return nil, fmt.Errorf("%w: wan status fields: %v", ErrParse, err)
	}

	return &status, nil
}

// jsonFieldNames returns the JSON names of the required fields of t.
// Fields tagged omitempty are optional.
func jsonFieldNames(t reflect.Type) []string {
	names := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		name, ok := requiredField(t.Field(i))
		if ok {
			names = append(names, name)
		}
	}
	return names
}

func requiredField(f reflect.StructField) (string, bool) {
	name, opts, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "" || name == "-" || strings.Contains(opts, "omitempty") {
		return "", false
	}
	return name, true
}

// requireFields checks that raw is an object carrying every required field
// of t with a non-null value, descending into nested struct fields.
// encoding/json alone would leave missing fields at their zero value.
func requireFields(raw json.RawMessage, t reflect.Type, path string) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrParse, path, err)
	}
	if fields == nil {
		return fmt.Errorf("%w: %s is null", ErrParse, path)
	}

	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name, ok := requiredField(f)
		if !ok {
			continue
		}
		v, ok := fields[name]
		if !ok || string(v) == "null" {
			return fmt.Errorf("%w: %s missing field %s", ErrParse, path, name)
		}
		if f.Type.Kind() == reflect.Struct {
			if err := requireFields(v, f.Type, path+"."+name); err != nil {
				return err
			}
		}
	}
	return nil
}
