// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package wordpress

import (
	"context"
	"fmt"
)

// PostInput describes a post to create.
type PostInput struct {
	Title         string
	Slug          string // empty lets the CMS derive one from the title
	Content       string // HTML
	Excerpt       string
	CategoryID    int
	FeaturedMedia MediaID
	Status        string // defaults to "publish"
}

// Post is the part of the created post the pipeline reports back.
type Post struct {
	ID    int64
	Link  string
	Title string // rendered title
}

type postPayload struct {
	Title         string  `json:"title"`
	Slug          string  `json:"slug,omitempty"`
	Content       string  `json:"content"`
	Status        string  `json:"status"`
	Categories    []int   `json:"categories"`
	FeaturedMedia MediaID `json:"featured_media"`
	Excerpt       string  `json:"excerpt"`
}

type postResponse struct {
	ID    int64  `json:"id"`
	Link  string `json:"link"`
	Title struct {
		Rendered string `json:"rendered"`
	} `json:"title"`
}

// CreatePost publishes a post with a single category and a featured image.
func (c *Client) CreatePost(ctx context.Context, in PostInput) (*Post, error) {
	status := in.Status
	if status == "" {
		status = "publish"
	}

	payload := postPayload{
		Title:         in.Title,
		Slug:          in.Slug,
		Content:       in.Content,
		Status:        status,
		Categories:    []int{in.CategoryID},
		FeaturedMedia: in.FeaturedMedia,
		Excerpt:       in.Excerpt,
	}

	var resp postResponse
	if err := c.postJSON(ctx, "create post", "/posts", payload, &resp); err != nil {
		return nil, err
	}
	if resp.ID == 0 {
		return nil, fmt.Errorf("wordpress create post: response has no id")
	}

	return &Post{ID: resp.ID, Link: resp.Link, Title: resp.Title.Rendered}, nil
}
