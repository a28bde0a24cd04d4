// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package wordpress

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
)

// MediaID is the attachment id WordPress assigns to an upload.
type MediaID int64

// UploadMedia stores a JPEG in the media library and returns its id.
func (c *Client) UploadMedia(ctx context.Context, data []byte, filename string) (MediaID, error) {
	headers := map[string]string{
		"Content-Disposition": fmt.Sprintf(`attachment; filename="%s"`, sanitizeFilename(filename)),
		"Content-Type":        "image/jpeg",
	}

	var media struct {
		ID MediaID `json:"id"`
	}
	if err := c.do(ctx, "upload media", http.MethodPost, "/media", bytes.NewReader(data), headers, &media); err != nil {
		return 0, err
	}
	if media.ID == 0 {
		return 0, fmt.Errorf("wordpress upload media: response has no id")
	}
	return media.ID, nil
}

// sanitizeFilename keeps the header well-formed whatever the caller passes.
func sanitizeFilename(name string) string {
	name = strings.Map(func(r rune) rune {
		switch r {
		case '"', '\\', '\r', '\n':
			return -1
		}
		return r
	}, name)
	if name == "" {
		return "og-image.jpg"
	}
	return name
}
