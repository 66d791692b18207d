// Package resolver decides how a given email yields its billable document:
// attachments as-is, embedded PDF invoice links, or the rendered HTML body.
// Exactly one strategy is used per email.
package resolver

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"lazy-receipt-go/internal/model"
)

// Strategy identifies the artifact-discovery policy chosen for one email.
type Strategy string

const (
	StrategyAttachment Strategy = "attachment"
	StrategyLink       Strategy = "link"
	StrategyRender     Strategy = "render"
)

// ErrRender reports an HTML-to-image failure.
var ErrRender = fmt.Errorf("render failed")

// Renderer rasterizes an HTML document to an image.
type Renderer interface {
	RenderHTML(ctx context.Context, html string) ([]byte, error)
}

// Resolver resolves candidates for one email.
type Resolver struct {
	links    *LinkFetcher
	renderer Renderer
}

// NewResolver creates a resolver with the given link fetcher and renderer.
func NewResolver(links *LinkFetcher, renderer Renderer) *Resolver {
	return &Resolver{links: links, renderer: renderer}
}

// Resolve returns the candidates for one email together with the strategy
// that produced them. Strategies are evaluated in strict priority order and
// never combined. Per-link fetch failures surface as failed candidates, not
// as a resolution failure.
func (r *Resolver) Resolve(ctx context.Context, email *model.NormalizedEmail) (Strategy, []Outcome, error) {
	if len(email.Attachments) > 0 {
		logrus.Infof("Resolved %d attachment candidates", len(email.Attachments))
		outcomes := make([]Outcome, 0, len(email.Attachments))
		for _, att := range email.Attachments {
			outcomes = append(outcomes, Outcome{Candidate: model.Candidate{
				Name:        att.Filename,
				ContentType: att.ContentType,
				Binary:      att.Binary,
			}})
		}
		return StrategyAttachment, outcomes, nil
	}

	if urls := ExtractPDFInvoiceURLs(email.Body); len(urls) > 0 {
		logrus.Infof("Resolved %d PDF invoice link candidates", len(urls))
		return StrategyLink, r.links.FetchAll(ctx, urls), nil
	}

	logrus.Info("No attachments or invoice links, rendering email body")
	image, err := r.renderer.RenderHTML(ctx, email.Body)
	if err != nil {
		return StrategyRender, nil, fmt.Errorf("%w: %v", ErrRender, err)
	}
	return StrategyRender, []Outcome{{Candidate: model.Candidate{
		Name:        renderedBodyName(),
		ContentType: "image/png",
		Binary:      image,
	}}}, nil
}

// Outcome is one discovered candidate, or the error that kept it from being
// materialized. A failed outcome carries the name it was discovered under.
type Outcome struct {
	Candidate model.Candidate
	Err       error
}

// Name returns the display name of the outcome, failed or not.
func (o Outcome) Name() string {
	return o.Candidate.Name
}
