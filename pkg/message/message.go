/*
 * Copyright (c) 2023, Dana Burkart <dana.burkart@gmail.com>
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package message

import (
	"context"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/dillonhicks/msgparse/pkg/fetch"
	"github.com/dillonhicks/msgparse/pkg/scanner"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/unicode/norm"
)

const (
	// MaxEmoticonLength is the longest name an emoticon may have
	MaxEmoticonLength = 15

	DefaultTimeout     = 2 * time.Second
	DefaultConcurrency = 8
)

type Link = fetch.Link

// TitleFetcher formats a url into a Link. *fetch.Fetcher implements it.
type TitleFetcher interface {
	Title(ctx context.Context, url string) (Link, error)
}

type Config struct {
	// MaxURLs bounds the number of links formatted per message. Zero means
	// unlimited.
	MaxURLs int
	// MaxSize truncates messages to this many bytes. Zero means unlimited.
	MaxSize int
	// Timeout bounds the time spent formatting all links of a message.
	Timeout time.Duration
	// Concurrency bounds the number of simultaneous title fetches.
	Concurrency int
}

type Parser struct {
	log     zerolog.Logger
	fetcher TitleFetcher
	config  Config
}

// NewParser creates a Parser. When fetcher is nil, links are titled with
// their own url and no network traffic happens.
func NewParser(log zerolog.Logger, fetcher TitleFetcher, config Config) *Parser {
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	if config.Concurrency <= 0 {
		config.Concurrency = DefaultConcurrency
	}

	return &Parser{
		log:     log,
		fetcher: fetcher,
		config:  config,
	}
}

func (p *Parser) Config() Config {
	return p.config
}

// Parse extracts the mentions, emoticons and links of content. Each list
// holds unique values in the order they were first observed. Links which
// could not be fetched before the timeout are dropped.
func (p *Parser) Parse(ctx context.Context, content string) (Result, error) {
	p.log.Debug().Int("length", len(content)).Msg("parsing message")

	symbols := Extract(Tokens(content, p.config.MaxSize))

	urls := symbols.URLs
	if p.config.MaxURLs > 0 && len(urls) > p.config.MaxURLs {
		p.log.Debug().
			Int("max-urls", p.config.MaxURLs).
			Int("urls", len(urls)).
			Msg("skipping further urls, content exceeded the max number of urls")
		urls = urls[:p.config.MaxURLs]
	}

	return Result{
		Mentions:  symbols.Mentions,
		Emoticons: symbols.Emoticons,
		Links:     p.formatLinks(ctx, urls),
	}, nil
}

func (p *Parser) formatLinks(ctx context.Context, urls []string) []Link {
	if len(urls) == 0 {
		return nil
	}

	if p.fetcher == nil {
		links := make([]Link, 0, len(urls))
		for _, url := range urls {
			url = fetch.Normalize(url)
			links = append(links, Link{URL: url, Title: url})
		}
		return links
	}

	ctx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()

	// Each fetch writes to its own slot, so message order survives
	// concurrent completion. Once the deadline passes no slot is written.
	var lock sync.Mutex
	closed := false
	slots := make([]*Link, len(urls))

	g := new(errgroup.Group)
	g.SetLimit(p.config.Concurrency)

	for i, url := range urls {
		i, url := i, url
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}

			link, err := p.fetcher.Title(ctx, url)
			if err != nil {
				p.log.Error().Err(err).Str("url", url).Msg("an error occurred while fetching url")
				return nil
			}

			lock.Lock()
			defer lock.Unlock()
			if closed {
				p.log.Debug().Str("url", url).Msg("dropping link fetched after the deadline")
				return nil
			}
			slots[i] = &link
			return nil
		})
	}

	finished := make(chan struct{})
	go func() {
		_ = g.Wait()
		close(finished)
	}()

	select {
	case <-finished:
	case <-ctx.Done():
		p.log.Debug().Dur("timeout", p.config.Timeout).Msg("link formatting did not finish in time")
	}

	lock.Lock()
	defer lock.Unlock()
	closed = true

	var links []Link
	for _, link := range slots {
		if link != nil {
			links = append(links, *link)
		}
	}
	return links
}

// Tokens truncates content to size bytes, normalizes it to NFC and scans
// it. Locations refer to the normalized text.
func Tokens(content string, size int) []scanner.Token {
	return scanner.Scan(norm.NFC.String(Truncate(content, size)))
}

// Truncate cuts content to at most size bytes without splitting a rune.
func Truncate(content string, size int) string {
	if size <= 0 || len(content) <= size {
		return content
	}

	for size > 0 && !utf8.RuneStart(content[size]) {
		size--
	}
	return content[:size]
}
