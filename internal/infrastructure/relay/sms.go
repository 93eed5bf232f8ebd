package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// SMSSender posts OTPs to a bulk SMS gateway using its OTP route. The
// gateway renders the code into its own registered template.
type SMSSender struct {
	url         string
	apiKey      string
	route       string
	countryCode string
	client      *http.Client
}

func NewSMSSender(url, apiKey, route, countryCode string, timeout time.Duration) *SMSSender {
	return &SMSSender{
		url:         url,
		apiKey:      apiKey,
		route:       route,
		countryCode: countryCode,
		client:      newHTTPClient(timeout),
	}
}

type smsRequest struct {
	Route           string `json:"route"`
	VariablesValues string `json:"variables_values"`
	Numbers         string `json:"numbers"`
}

type smsResponse struct {
	Return  *bool           `json:"return"`
	Message json.RawMessage `json:"message"`
}

// SendOTP sends code to phone. The gateway expects local 10-digit numbers,
// so the "+<country code>" prefix is stripped.
func (s *SMSSender) SendOTP(ctx context.Context, phone, code string) error {
	number := strings.TrimPrefix(phone, "+"+s.countryCode)
	raw, err := postJSON(ctx, s.client, s.url, map[string]string{"authorization": s.apiKey}, smsRequest{
		Route:           s.route,
		VariablesValues: code,
		Numbers:         number,
	})
	if err != nil {
		return fmt.Errorf("sms relay: %w", err)
	}
	var resp smsResponse
	if json.Unmarshal(raw, &resp) == nil && resp.Return != nil && !*resp.Return {
		return fmt.Errorf("sms relay rejected message: %s", snippet(resp.Message))
	}
	return nil
}
