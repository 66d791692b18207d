// Package render rasterizes HTML email bodies to PNG using a headless
// browser, for emails that carry neither attachments nor invoice links.
package render

import (
	"context"
	"fmt"

	"github.com/chromedp/chromedp"
	"github.com/sirupsen/logrus"
)

// BrowserRenderer renders HTML with headless Chromium.
type BrowserRenderer struct {
	allocatorOpts []chromedp.ExecAllocatorOption
}

// NewBrowserRenderer creates a renderer with headless-safe browser flags.
func NewBrowserRenderer() *BrowserRenderer {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
	)
	return &BrowserRenderer{allocatorOpts: opts}
}

// RenderHTML renders the document to a full-page PNG screenshot.
func (r *BrowserRenderer) RenderHTML(ctx context.Context, html string) ([]byte, error) {
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, r.allocatorOpts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	var buf []byte
	err := chromedp.Run(browserCtx,
		chromedp.Navigate("about:blank"),
		setDocumentContent(html),
		chromedp.FullScreenshot(&buf, 90),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to render HTML to image: %w", err)
	}

	logrus.Infof("Rendered email body to %d byte screenshot", len(buf))
	return buf, nil
}

func setDocumentContent(html string) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		expr := fmt.Sprintf("document.open(); document.write(%q); document.close();", html)
		return chromedp.Evaluate(expr, nil).Do(ctx)
	})
}
