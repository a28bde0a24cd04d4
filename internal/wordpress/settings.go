// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package wordpress

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// GetSetting reads one option from /settings. The option has to be
// registered with show_in_rest on the site; unregistered or empty options
// yield ErrSettingNotFound.
func (c *Client) GetSetting(ctx context.Context, name string) (string, error) {
	var settings map[string]json.RawMessage
	if err := c.do(ctx, "get settings", http.MethodGet, "/settings", nil, nil, &settings); err != nil {
		return "", err
	}

	raw, ok := settings[name]
	if !ok || string(raw) == "null" {
		return "", ErrSettingNotFound
	}

	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		return "", fmt.Errorf("wordpress get settings: %s is not a string: %w", name, err)
	}
	if value == "" {
		return "", ErrSettingNotFound
	}
	return value, nil
}

// SetSetting writes one string option through /settings.
func (c *Client) SetSetting(ctx context.Context, name, value string) error {
	return c.postJSON(ctx, "update setting", "/settings", map[string]string{name: value}, nil)
}
