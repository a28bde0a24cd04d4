// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package pipeline runs one daily publication: guard check, story draft,
// illustration, media upload, post creation and marker update. Run is the
// only place where component errors are caught and turned into a result.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"storyteller/internal/guard"
	"storyteller/internal/metrics"
	"storyteller/internal/slug"
	"storyteller/internal/story"
	"storyteller/internal/wordpress"
)

// Run outcomes reported in Result.Status.
const (
	StatusOK      = "ok"
	StatusSkipped = "skipped"
	StatusError   = "error"
)

// DefaultTimeout bounds a whole run.
const DefaultTimeout = 5 * time.Minute

// markTimeout bounds the marker write, which runs detached from the run
// context once the post is live.
const markTimeout = 30 * time.Second

// fallbackFilename names the media upload when no slug can be derived.
const fallbackFilename = "og-image.jpg"

// Result is the JSON payload returned for a run.
type Result struct {
	Status  string `json:"status"`
	PostID  int64  `json:"post_id,omitempty"`
	Title   string `json:"title,omitempty"`
	Link    string `json:"link,omitempty"`
	Message string `json:"message,omitempty"`
	RunID   string `json:"run_id,omitempty"`
}

// Gate decides whether a run may publish and records successful runs.
type Gate interface {
	Begin(ctx context.Context) (guard.Decision, func())
	MarkRun(ctx context.Context) error
}

// Writer produces a story draft.
type Writer interface {
	Generate(ctx context.Context) (*story.Draft, error)
}

// Painter produces the rendered preview image for a prompt.
type Painter interface {
	Illustrate(ctx context.Context, prompt string) ([]byte, error)
}

// Publisher stores media and posts on the CMS.
type Publisher interface {
	UploadMedia(ctx context.Context, data []byte, filename string) (wordpress.MediaID, error)
	CreatePost(ctx context.Context, in wordpress.PostInput) (*wordpress.Post, error)
}

// Config carries the collaborators of a Pipeline.
type Config struct {
	Gate       Gate
	Writer     Writer
	Painter    Painter
	Publisher  Publisher
	Categories story.CategoryMap
	Metrics    *metrics.Metrics // optional
	Timeout    time.Duration
	Now        func() time.Time
}

// Pipeline wires the components of a run.
type Pipeline struct {
	gate       Gate
	writer     Writer
	painter    Painter
	publisher  Publisher
	categories story.CategoryMap
	metrics    *metrics.Metrics
	timeout    time.Duration
	now        func() time.Time
}

// New creates a Pipeline. Zero Categories selects story.DefaultCategories.
func New(cfg Config) *Pipeline {
	p := &Pipeline{
		gate:       cfg.Gate,
		writer:     cfg.Writer,
		painter:    cfg.Painter,
		publisher:  cfg.Publisher,
		categories: cfg.Categories,
		metrics:    cfg.Metrics,
		timeout:    cfg.Timeout,
		now:        cfg.Now,
	}
	if len(p.categories.IDs) == 0 {
		p.categories = story.DefaultCategories()
	}
	if p.timeout <= 0 {
		p.timeout = DefaultTimeout
	}
	if p.now == nil {
		p.now = time.Now
	}
	return p
}

// Run executes one pipeline run. It never returns an error and never
// panics; failures are reported in the Result.
func (p *Pipeline) Run(ctx context.Context) (res Result) {
	runID := uuid.NewString()
	started := time.Now()
	log := slog.With("run_id", runID)

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	defer func() {
		if rec := recover(); rec != nil {
			log.Error("pipeline panic", "panic", rec, "stack", string(debug.Stack()))
			res = Result{Status: StatusError, Message: fmt.Sprintf("internal error: %v", rec)}
		}
		res.RunID = runID
		if p.metrics != nil {
			p.metrics.ObserveRun(res.Status, started)
		}
		log.Info("pipeline run finished",
			"status", res.Status,
			"post_id", res.PostID,
			"duration", time.Since(started).Round(time.Millisecond),
		)
	}()

	log.Info("pipeline run started")

	decision, release := p.gate.Begin(ctx)
	defer release()

	if decision.State == guard.Throttled {
		log.Info("run skipped", "reason", decision.Reason)
		return Result{Status: StatusSkipped, Message: skipMessage(decision)}
	}

	post, err := p.publish(ctx, log)
	if err != nil {
		logFailure(log, err)
		return Result{Status: StatusError, Message: err.Error()}
	}

	// The post is live; cancelling the run must not drop the marker.
	markCtx, cancelMark := context.WithTimeout(context.WithoutCancel(ctx), markTimeout)
	defer cancelMark()
	if err := p.gate.MarkRun(markCtx); err != nil {
		log.Warn("last-run marker not updated", "error", err)
	}
	if p.metrics != nil {
		p.metrics.Published(p.now())
	}

	return Result{
		Status: StatusOK,
		PostID: post.ID,
		Title:  post.Title,
		Link:   post.Link,
	}
}

// publish runs the generation and CMS steps in order. The first error stops
// the run.
func (p *Pipeline) publish(ctx context.Context, log *slog.Logger) (*wordpress.Post, error) {
	var draft *story.Draft
	err := p.step(log, "story", func() (err error) {
		draft, err = p.writer.Generate(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	log.Info("story drafted", "title", draft.Title, "category", draft.Category)

	var img []byte
	err = p.step(log, "image", func() (err error) {
		img, err = p.painter.Illustrate(ctx, draft.ImagePrompt)
		return err
	})
	if err != nil {
		return nil, err
	}

	// An empty slug is left to the CMS, which derives one from the title.
	postSlug := slug.For(draft.Slug, draft.Title)
	filename := fallbackFilename
	if postSlug != "" {
		filename = postSlug + ".jpg"
	}

	var mediaID wordpress.MediaID
	err = p.step(log, "upload_media", func() (err error) {
		mediaID, err = p.publisher.UploadMedia(ctx, img, filename)
		return err
	})
	if err != nil {
		return nil, err
	}
	log.Info("media uploaded", "media_id", mediaID)

	in := wordpress.PostInput{
		Title:         draft.Title,
		Slug:          postSlug,
		Content:       draft.StoryHTML,
		Excerpt:       draft.MetaDescription,
		CategoryID:    p.categories.Resolve(draft.Category),
		FeaturedMedia: mediaID,
	}

	var post *wordpress.Post
	err = p.step(log, "create_post", func() (err error) {
		post, err = p.publisher.CreatePost(ctx, in)
		return err
	})
	if err != nil {
		return nil, err
	}
	log.Info("post published", "post_id", post.ID, "link", post.Link, "category_id", in.CategoryID)

	return post, nil
}

// step times fn and records the outcome under name.
func (p *Pipeline) step(log *slog.Logger, name string, fn func() error) error {
	started := time.Now()
	err := fn()
	if p.metrics != nil {
		p.metrics.ObserveStep(name, started, err)
	}
	log.Debug("pipeline step", "step", name, "duration", time.Since(started).Round(time.Millisecond), "ok", err == nil)
	return err
}

func skipMessage(d guard.Decision) string {
	return "Skipped: " + d.Reason
}

// logFailure logs err with the structured fields of its type.
func logFailure(log *slog.Logger, err error) {
	var (
		genErr *story.GenerationError
		apiErr *wordpress.APIError
		cfgErr *wordpress.ConfigurationError
	)
	switch {
	case errors.As(err, &genErr):
		log.Error("generation failed", "stage", genErr.Stage, "error", err)
	case errors.As(err, &apiErr):
		log.Error("cms request failed", "op", apiErr.Op, "status_code", apiErr.StatusCode, "error", err)
	case errors.As(err, &cfgErr):
		log.Error("cms not configured", "missing", cfgErr.Missing)
	default:
		log.Error("pipeline failed", "error", err)
	}
}
