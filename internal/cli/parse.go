package cli

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/courierapi/courier"
)

// parseParams converts repeated "key=value" flags into request parameters.
// Values that parse as JSON keep their JSON type, so arrays and numbers can
// be passed inline ('tags=["x","y"]'); anything else is a plain string.
func parseParams(pairs []string) (courier.Params, error) {
	params := courier.Params{}
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid parameter %q: expected key=value", pair)
		}
		params[key] = parseValue(value)
	}
	return params, nil
}

func parseValue(value string) any {
	var parsed any
	if err := json.Unmarshal([]byte(value), &parsed); err == nil {
		return parsed
	}
	return value
}

// parseHeaders converts repeated "Name: value" flags into request headers.
func parseHeaders(pairs []string) (courier.Headers, error) {
	headers := courier.Headers{}
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, ":")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("invalid header %q: expected name:value", pair)
		}
		headers[strings.TrimSpace(name)] = strings.TrimSpace(value)
	}
	return headers, nil
}

// hostOf reduces a request URL to its scheme://host form, the key tokens are
// stored under.
func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return rawURL
	}
	return u.Scheme + "://" + u.Host
}
