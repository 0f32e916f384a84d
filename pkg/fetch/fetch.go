/*
 * Copyright (c) 2023, Dana Burkart <dana.burkart@gmail.com>
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package fetch

import (
	"context"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/dillonhicks/msgparse/pkg/cache"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/net/html/charset"
)

const (
	DefaultTimeout   = 2 * time.Second
	DefaultUserAgent = "msgparse/1.0 (+https://github.com/dillonhicks/msgparse)"

	// Documents are only read up to this size when looking for a title.
	maxDocumentSize = 1 << 20
)

var (
	httpPrefix  = regexp.MustCompile(`(?i)^https?://`)
	contentHTML = regexp.MustCompile(`(?i)text/html`)
)

type Link struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

type Config struct {
	Timeout   time.Duration
	UserAgent string

	// Client overrides the HTTP client used for fetching. Its Timeout is
	// left alone.
	Client *http.Client
}

// Fetcher formats links by fetching the title of the page they point to.
type Fetcher struct {
	log       zerolog.Logger
	client    *http.Client
	cache     cache.Store
	userAgent string
}

// New creates a Fetcher. A nil store disables caching.
func New(log zerolog.Logger, store cache.Store, cfg Config) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}

	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}

	return &Fetcher{
		log:       log,
		client:    client,
		cache:     store,
		userAgent: cfg.UserAgent,
	}
}

// Normalize prefixes scheme-less locators with http://
func Normalize(url string) string {
	if httpPrefix.MatchString(url) {
		return url
	}
	return "http://" + url
}

// Title fetches the document at url and returns a Link holding its title.
// Documents which are not HTML, or which do not answer 200, are titled with
// their own url. Transport failures are returned as errors.
func (f *Fetcher) Title(ctx context.Context, url string) (Link, error) {
	url = Normalize(url)

	if f.cache != nil {
		if e, ok := f.cache.Get(url); ok {
			return Link{URL: e.URL, Title: e.Title}, nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Link{}, errors.Wrapf(err, "invalid url %s", url)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	f.log.Debug().Str("url", url).Msg("fetching url")
	resp, err := f.client.Do(req)
	if err != nil {
		return Link{}, errors.Wrapf(err, "unable to fetch %s", url)
	}
	defer resp.Body.Close()

	link := Link{URL: url, Title: url}

	contentType := resp.Header.Get("Content-Type")
	if resp.StatusCode != http.StatusOK || !contentHTML.MatchString(contentType) {
		// Images, downloads and error pages are not searched for a title
		f.log.Debug().
			Str("url", url).
			Int("status", resp.StatusCode).
			Str("content-type", contentType).
			Msg("skipping processing content")
		f.store(link)
		return link, nil
	}

	body, err := charset.NewReader(io.LimitReader(resp.Body, maxDocumentSize), contentType)
	if err != nil {
		return Link{}, errors.Wrapf(err, "unable to decode %s", url)
	}

	if title := ExtractTitle(body); title != "" {
		link.Title = title
	}

	f.store(link)
	return link, nil
}

func (f *Fetcher) store(link Link) {
	if f.cache == nil {
		return
	}
	f.cache.Set(cache.Entry{URL: link.URL, Title: link.Title, Fetched: time.Now()})
}

var multiSpace = regexp.MustCompile(`\s\s+`)

// CollapseWhitespace replaces runs of two or more whitespace characters with
// a single space and trims the ends.
func CollapseWhitespace(s string) string {
	return strings.TrimSpace(multiSpace.ReplaceAllString(s, " "))
}
