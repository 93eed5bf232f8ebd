package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/zouiscorp-sudo/salem-farm-mango-sub001/internal/domain"
)

// listPageSize is the per_page used when scanning the admin user listing.
const listPageSize = 1000

// GoTrue talks to the hosted auth provider's admin API with the service key.
type GoTrue struct {
	baseURL    string
	serviceKey string
	httpClient *http.Client
}

func NewGoTrue(baseURL, serviceKey string, timeout time.Duration) *GoTrue {
	return &GoTrue{
		baseURL:    strings.TrimRight(baseURL, "/"),
		serviceKey: serviceKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type gotrueUser struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"created_at"`
}

func (u gotrueUser) account() *domain.Account {
	a := &domain.Account{ID: u.ID, Email: u.Email, CreatedAt: u.CreatedAt}
	if u.Phone != "" {
		a.Phone = "+" + strings.TrimPrefix(u.Phone, "+")
	}
	return a
}

// matches compares against the normalized identifier. The provider stores
// phones without the leading "+".
func (u gotrueUser) matches(ident domain.Identifier) bool {
	if ident.IsPhone() {
		return u.Phone != "" && strings.TrimPrefix(u.Phone, "+") == strings.TrimPrefix(ident.Value, "+")
	}
	return strings.EqualFold(u.Email, ident.Value)
}

type listUsersResponse struct {
	Users []gotrueUser `json:"users"`
}

// FindAccount pages through the admin listing until a user matches.
func (g *GoTrue) FindAccount(ctx context.Context, ident domain.Identifier) (*domain.Account, error) {
	for page := 1; ; page++ {
		q := url.Values{}
		q.Set("page", strconv.Itoa(page))
		q.Set("per_page", strconv.Itoa(listPageSize))

		var out listUsersResponse
		if err := g.do(ctx, http.MethodGet, "/admin/users?"+q.Encode(), nil, &out); err != nil {
			return nil, fmt.Errorf("list users: %w", err)
		}
		for _, u := range out.Users {
			if u.matches(ident) {
				return u.account(), nil
			}
		}
		if len(out.Users) < listPageSize {
			return nil, fmt.Errorf("account not found: %w", domain.ErrNotFound)
		}
	}
}

type createUserRequest struct {
	Email        string `json:"email,omitempty"`
	Phone        string `json:"phone,omitempty"`
	Password     string `json:"password"`
	EmailConfirm bool   `json:"email_confirm,omitempty"`
	PhoneConfirm bool   `json:"phone_confirm,omitempty"`
}

// CreateAccount registers the identifier with its channel already confirmed.
func (g *GoTrue) CreateAccount(ctx context.Context, ident domain.Identifier, password string) (*domain.Account, error) {
	req := createUserRequest{Password: password}
	if ident.IsPhone() {
		req.Phone = ident.Value
		req.PhoneConfirm = true
	} else {
		req.Email = ident.Value
		req.EmailConfirm = true
	}
	var u gotrueUser
	if err := g.do(ctx, http.MethodPost, "/admin/users", req, &u); err != nil {
		return nil, err
	}
	return u.account(), nil
}

func (g *GoTrue) UpdatePassword(ctx context.Context, accountID, password string) error {
	body := map[string]string{"password": password}
	return g.do(ctx, http.MethodPut, "/admin/users/"+url.PathEscape(accountID), body, nil)
}

// providerError carries the provider's own message for non-2xx replies.
type providerError struct {
	Status  int
	Message string
}

func (e *providerError) Error() string {
	return fmt.Sprintf("identity provider: %s (status %d)", e.Message, e.Status)
}

// errorBody covers the message fields the provider uses across versions.
type errorBody struct {
	Msg              string `json:"msg"`
	Message          string `json:"message"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func (b errorBody) text() string {
	for _, s := range []string{b.Msg, b.Message, b.ErrorDescription, b.Error} {
		if s != "" {
			return s
		}
	}
	return ""
}

func (g *GoTrue) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("apikey", g.serviceKey)
	req.Header.Set("Authorization", "Bearer "+g.serviceKey)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("identity provider: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var eb errorBody
		msg := ""
		if json.Unmarshal(raw, &eb) == nil {
			msg = eb.text()
		}
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &providerError{Status: resp.StatusCode, Message: msg}
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
