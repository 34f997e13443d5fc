// Package pipeline runs one non-follower report end to end:
// authenticate, collect both lists, compare, export.
package pipeline

import (
	"context"
	"time"

	"ignonfollowers/pkg/auth"
	"ignonfollowers/pkg/compare"
	"ignonfollowers/pkg/config"
	apperrors "ignonfollowers/pkg/errors"
	"ignonfollowers/pkg/instagram"
	"ignonfollowers/pkg/logger"
	"ignonfollowers/pkg/models"
	"ignonfollowers/pkg/ratelimit"
	"ignonfollowers/pkg/report"
	"ignonfollowers/pkg/scraper"
	"ignonfollowers/pkg/session"
)

// Authenticator is the part of *auth.Authenticator the pipeline uses
type Authenticator interface {
	Authenticate(ctx context.Context) error
	Handle() (*auth.Handle, error)
}

// Exporter is the part of *report.Exporter the pipeline uses
type Exporter interface {
	Write(list []models.UserRecord, followingCount, followersCount int, now time.Time) (*report.Report, report.Paths, error)
}

// Result is everything a finished run produced
type Result struct {
	Username string
	UserID   string
	Summary  compare.Summary
	Report   *report.Report
	Paths    report.Paths
	Stats    scraper.Stats
	Duration time.Duration
}

// Pipeline wires the stages together. It runs once.
type Pipeline struct {
	auth     Authenticator
	pacer    scraper.Pacer
	exporter Exporter
	logger   logger.Logger
	now      func() time.Time

	longMultiplier float64
}

// New creates a pipeline from explicit stages
func New(a Authenticator, pacer scraper.Pacer, exporter Exporter, log logger.Logger) *Pipeline {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Pipeline{
		auth:     a,
		pacer:    pacer,
		exporter: exporter,
		logger:   log.WithField("component", "pipeline"),
		now:      time.Now,

		longMultiplier: scraper.LongPauseMultiplier,
	}
}

// SetLongMultiplier sets the pause scale the collector uses after each list
func (p *Pipeline) SetLongMultiplier(m float64) {
	if m > 0 {
		p.longMultiplier = m
	}
}

// LongMultiplier reports the pause scale used after each list fetch
func (p *Pipeline) LongMultiplier() float64 {
	return p.longMultiplier
}

// Components are the concrete stages built from config
type Components struct {
	Pipeline      *Pipeline
	Authenticator *auth.Authenticator
	Store         *session.FileStore
	Exporter      *report.Exporter
	Pacer         *ratelimit.Pacer
}

// NewFromConfig builds the production pipeline: an HTTP client per login
// attempt sharing one pacer and one request budget, a file-backed session
// store, and a report exporter over the output directory.
func NewFromConfig(cfg *config.Config, creds auth.Credentials, prompter auth.CodePrompter, log logger.Logger) (*Components, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	pacer := ratelimit.NewPacerFromConfig(cfg.Pacing, ratelimit.WithLogger(log.WithField("component", "pacer")))
	limiter := ratelimit.PerMinute(cfg.Pacing.RequestsPerMinute)

	store := session.NewFileStore(cfg.Instagram.SessionFile, instagram.ValidateSession)
	store.SetLogger(log)

	opts := instagram.OptionsFromConfig(cfg, pacer, limiter, log)
	factory := func() (auth.PlatformClient, error) {
		client, err := instagram.NewClient(opts)
		if err != nil {
			return nil, err
		}
		return client, nil
	}

	exporter, err := report.NewExporter(cfg.Output.Directory, log)
	if err != nil {
		return nil, err
	}

	authenticator := auth.NewAuthenticator(creds, store, factory, prompter, log)
	p := New(authenticator, pacer, exporter, log)
	p.SetLongMultiplier(cfg.Pacing.LongMultiplier)
	return &Components{
		Pipeline:      p,
		Authenticator: authenticator,
		Store:         store,
		Exporter:      exporter,
		Pacer:         pacer,
	}, nil
}

// Run executes every stage. A cancelled context returns ctx.Err() as is.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	start := p.now()

	logger.LogStage(p.logger, "auth", nil)
	if err := p.auth.Authenticate(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, err
	}
	handle, err := p.auth.Handle()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindAuth, "pipeline.handle", err)
	}

	logger.LogStage(p.logger, "collect", map[string]interface{}{"user_id": handle.UserID})
	collector := scraper.NewCollector(handle.Client, handle.UserID, p.pacer, p.logger)
	collector.SetLongMultiplier(p.longMultiplier)
	following, followers, err := collector.CollectAll(ctx)
	if err != nil {
		return nil, err
	}
	if len(following) == 0 {
		return nil, apperrors.New(apperrors.KindCollection, "pipeline.collect", "following list is empty").
			WithHint("the account follows nobody, or the fetch failed; see the log above")
	}
	if len(followers) == 0 {
		return nil, apperrors.New(apperrors.KindCollection, "pipeline.collect", "followers list is empty").
			WithHint("the account has no followers, or the fetch failed; see the log above")
	}

	logger.LogStage(p.logger, "compare", map[string]interface{}{
		"following": len(following),
		"followers": len(followers),
	})
	summary := compare.Summarize(following, followers)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	logger.LogStage(p.logger, "export", map[string]interface{}{"non_followers": len(summary.NonFollowers)})
	rep, paths, err := p.exporter.Write(summary.NonFollowers, summary.FollowingCount, summary.FollowersCount, p.now())
	if err != nil {
		return nil, err
	}

	result := &Result{
		Username: handle.Username,
		UserID:   handle.UserID,
		Summary:  summary,
		Report:   rep,
		Paths:    paths,
		Stats:    collector.Stats(),
		Duration: p.now().Sub(start),
	}
	p.logger.WithFields(map[string]interface{}{
		"non_followers": len(summary.NonFollowers),
		"fans":          len(summary.Fans),
		"mutual":        len(summary.Mutual),
		"duration":      result.Duration,
	}).Info("Run complete")
	return result, nil
}
