/*
 * Copyright (c) 2023, Dana Burkart <dana.burkart@gmail.com>
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package message

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/dillonhicks/msgparse/pkg/fetch"
	"github.com/rs/zerolog"
)

// stubFetcher titles known urls and fails for everything else, standing in
// for the network.
type stubFetcher struct {
	titles map[string]string
	delays map[string]time.Duration
}

func (f stubFetcher) Title(ctx context.Context, url string) (Link, error) {
	url = fetch.Normalize(url)

	if d, ok := f.delays[url]; ok {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return Link{}, ctx.Err()
		}
	}

	title, ok := f.titles[url]
	if !ok {
		return Link{}, errors.New("no such host")
	}
	return Link{URL: url, Title: title}, nil
}

var web = stubFetcher{
	titles: map[string]string{
		"http://google.com":          "Google",
		"http://bitbucket.org":       "Bitbucket",
		"http://dillonhicks.io":      "Dillon Hicks",
		"http://www.nbcolympics.com": "NBC Olympics",
		"https://twitter.com/jdorfman/status/430511497475670016": "Justin Dorfman on Twitter: \"nice @littlebigdetail from " +
			"@HipChat (shows hex colors when pasted in chat). http://t.co/7cI6Gjy5pq\"",
	},
}

func parse(t *testing.T, content string, config Config) Result {
	t.Helper()

	p := NewParser(zerolog.Nop(), web, config)
	r, err := p.Parse(context.Background(), content)
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func TestEmoticon(t *testing.T) {
	r := parse(t, "(lolwut)", Config{})
	if !reflect.DeepEqual(r.Emoticons, []string{"lolwut"}) {
		t.Errorf("wanted [lolwut], got %v", r.Emoticons)
	}
	if r.Links != nil || r.Mentions != nil {
		t.Errorf("wanted only emoticons, got %+v", r)
	}

	r = parse(t, "(123abc)", Config{})
	if len(r.Emoticons) != 1 {
		t.Errorf("wanted one emoticon, got %v", r.Emoticons)
	}
}

func TestMention(t *testing.T) {
	r := parse(t, "@dillon", Config{})
	if !reflect.DeepEqual(r.Mentions, []string{"dillon"}) {
		t.Errorf("wanted [dillon], got %v", r.Mentions)
	}
	if r.Links != nil || r.Emoticons != nil {
		t.Errorf("wanted only mentions, got %+v", r)
	}
}

func TestLink(t *testing.T) {
	tt := []struct {
		test    string
		content string
		url     string
	}{
		{"Test domain", "http://google.com", "http://google.com"},
		{"Test bare domain", "google.com", "http://google.com"},
		{"Test broken scheme still matches the domain", "http:// google.com", "http://google.com"},
	}

	for _, tc := range tt {
		t.Run(tc.test, func(t *testing.T) {
			r := parse(t, tc.content, Config{})
			if len(r.Links) != 1 {
				t.Fatalf("wanted one link, got %+v", r.Links)
			}
			if r.Links[0].URL != tc.url {
				t.Errorf("wanted url %s, got %s", tc.url, r.Links[0].URL)
			}
			if r.Links[0].Title == "" {
				t.Error("link should have a title")
			}
			if r.Emoticons != nil || r.Mentions != nil {
				t.Errorf("wanted only links, got %+v", r)
			}
		})
	}
}

func TestEmpty(t *testing.T) {
	for _, content := range []string{
		"",
		"Resistance Is futile, lower your shields and prepare to be " +
			"assimilated. As a drone, you will have no need of mentions or " +
			"emoticons for we are all hyperlinked.",
	} {
		r := parse(t, content, Config{})
		if !r.Empty() {
			t.Errorf("wanted no symbols, got %+v", r)
		}

		b, err := r.JSON(true)
		if err != nil {
			t.Fatal(err)
		}
		if string(b) != "{}" {
			t.Errorf("wanted {}, got %s", b)
		}
	}
}

func TestURLLimit(t *testing.T) {
	content := "http://bitbucket.org http://google.com http://dillonhicks.io"

	r := parse(t, content, Config{MaxURLs: 1})
	if len(r.Links) != 1 || r.Links[0].URL != "http://bitbucket.org" {
		t.Errorf("wanted only the first link, got %+v", r.Links)
	}

	r = parse(t, content, Config{})
	if len(r.Links) != 3 {
		t.Errorf("wanted every link without a limit, got %+v", r.Links)
	}
}

func TestBadLinks(t *testing.T) {
	for _, content := range []string{
		"http://C++.com",
		"lol.c om",
		"htt://lol._org",
		"",
		"https://wubba.dubbalublub",
	} {
		t.Run(content, func(t *testing.T) {
			if r := parse(t, content, Config{}); !r.Empty() {
				t.Errorf("wanted no symbols, got %+v", r)
			}
		})
	}
}

func TestBadEmoticons(t *testing.T) {
	for _, content := range []string{
		"(inagalaxyfarfarawaytherewasoneemoticontorulethemall)",
		"()",
		"(mal forma)",
		"(one+two)",
	} {
		t.Run(content, func(t *testing.T) {
			if r := parse(t, content, Config{}); !r.Empty() {
				t.Errorf("wanted no symbols, got %+v", r)
			}
		})
	}
}

func TestBadMentions(t *testing.T) {
	tt := []struct {
		content string
		want    []string
	}{
		{"@", nil},
		{"@bob+loblaw", []string{"bob"}},
		{"@+1", nil},
		{"@-there-", nil},
		{"mail me at bob@example.com", nil},
	}

	for _, tc := range tt {
		t.Run(tc.content, func(t *testing.T) {
			r := parse(t, tc.content, Config{})
			if !reflect.DeepEqual(r.Mentions, tc.want) {
				t.Errorf("wanted %v, got %v", tc.want, r.Mentions)
			}
		})
	}
}

func TestUnique(t *testing.T) {
	r := parse(t, "(smile)(smile)(wow)(frown)(frown)(upvote)(smile) @a @b @a", Config{})

	if want := []string{"smile", "wow", "frown", "upvote"}; !reflect.DeepEqual(r.Emoticons, want) {
		t.Errorf("wanted %v, got %v", want, r.Emoticons)
	}
	if want := []string{"a", "b"}; !reflect.DeepEqual(r.Mentions, want) {
		t.Errorf("wanted %v, got %v", want, r.Mentions)
	}
}

func TestNestedSymbols(t *testing.T) {
	r := parse(t, "(see @dillon (coffee) at http://dillonhicks.io)", Config{})

	if want := []string{"dillon"}; !reflect.DeepEqual(r.Mentions, want) {
		t.Errorf("wanted %v, got %v", want, r.Mentions)
	}
	if want := []string{"coffee"}; !reflect.DeepEqual(r.Emoticons, want) {
		t.Errorf("wanted %v, got %v", want, r.Emoticons)
	}
	if len(r.Links) != 1 || r.Links[0].URL != "http://dillonhicks.io" {
		t.Errorf("wanted the nested link, got %+v", r.Links)
	}
}

func TestChatMessages(t *testing.T) {
	t.Run("mention", func(t *testing.T) {
		r := parse(t, "@chris you around?", Config{})
		if want := []string{"chris"}; !reflect.DeepEqual(r.Mentions, want) {
			t.Errorf("wanted %v, got %v", want, r.Mentions)
		}
	})

	t.Run("emoticons", func(t *testing.T) {
		r := parse(t, "Good morning! (megusta) (coffee) (coffee) (coffee)", Config{})
		if want := []string{"megusta", "coffee"}; !reflect.DeepEqual(r.Emoticons, want) {
			t.Errorf("wanted %v, got %v", want, r.Emoticons)
		}
	})

	t.Run("link", func(t *testing.T) {
		r := parse(t, "Olympics are starting soon; http://www.nbcolympics.com", Config{})
		if len(r.Links) != 1 || r.Links[0].URL != "http://www.nbcolympics.com" {
			t.Errorf("wanted the olympics link, got %+v", r.Links)
		}
	})

	t.Run("everything", func(t *testing.T) {
		r := parse(t, "@bob @john (success) such a cool feature; "+
			"https://twitter.com/jdorfman/status/430511497475670016", Config{})

		links := []Link{{
			URL: "https://twitter.com/jdorfman/status/430511497475670016",
			Title: "Justin Dorfman on Twitter: \"nice @littlebigdetail from " +
				"@HipChat (shows hex colors when pasted in chat). http://t.co/7cI6Gjy5pq\"",
		}}

		if want := []string{"bob", "john"}; !reflect.DeepEqual(r.Mentions, want) {
			t.Errorf("wanted %v, got %v", want, r.Mentions)
		}
		if want := []string{"success"}; !reflect.DeepEqual(r.Emoticons, want) {
			t.Errorf("wanted %v, got %v", want, r.Emoticons)
		}
		if !reflect.DeepEqual(r.Links, links) {
			t.Errorf("wanted %v, got %v", links, r.Links)
		}
	})
}

func TestLinkOrderAndTimeout(t *testing.T) {
	f := stubFetcher{
		titles: map[string]string{
			"http://slow.com":  "slow",
			"http://fast.com":  "fast",
			"http://never.com": "never",
		},
		delays: map[string]time.Duration{
			"http://slow.com":  20 * time.Millisecond,
			"http://never.com": time.Minute,
		},
	}

	p := NewParser(zerolog.Nop(), f, Config{Timeout: 200 * time.Millisecond})

	start := time.Now()
	r, err := p.Parse(context.Background(), "http://slow.com http://never.com http://fast.com")
	if err != nil {
		t.Fatal(err)
	}

	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("parse should be bounded by the timeout, took %s", elapsed)
	}

	want := []Link{{URL: "http://slow.com", Title: "slow"}, {URL: "http://fast.com", Title: "fast"}}
	if !reflect.DeepEqual(r.Links, want) {
		t.Errorf("wanted %v, got %v", want, r.Links)
	}
}

func TestNoFetcher(t *testing.T) {
	p := NewParser(zerolog.Nop(), nil, Config{})

	r, err := p.Parse(context.Background(), "coffee.com")
	if err != nil {
		t.Fatal(err)
	}

	want := []Link{{URL: "http://coffee.com", Title: "http://coffee.com"}}
	if !reflect.DeepEqual(r.Links, want) {
		t.Errorf("wanted %v, got %v", want, r.Links)
	}
}

func TestMaxSize(t *testing.T) {
	r := parse(t, "@first "+strings.Repeat("x", 100)+" @second", Config{MaxSize: 50})

	if want := []string{"first"}; !reflect.DeepEqual(r.Mentions, want) {
		t.Errorf("wanted %v, got %v", want, r.Mentions)
	}
}

func TestTruncate(t *testing.T) {
	tt := []struct {
		content string
		size    int
		want    string
	}{
		{"hello", 0, "hello"},
		{"hello", 10, "hello"},
		{"hello", 3, "hel"},
		{"żółw", 3, "ż"},
		{"żółw", 4, "żó"},
	}

	for _, tc := range tt {
		t.Run(fmt.Sprintf("%s/%d", tc.content, tc.size), func(t *testing.T) {
			if got := Truncate(tc.content, tc.size); got != tc.want {
				t.Errorf("wanted %q, got %q", tc.want, got)
			}
		})
	}
}

func TestJSON(t *testing.T) {
	r := Result{
		Mentions: []string{"helloworld"},
		Links:    []Link{{URL: "http://coffee.com", Title: "Peet's Coffee & Tea"}},
	}

	b, err := r.JSON(true)
	if err != nil {
		t.Fatal(err)
	}

	want := `{
    "mentions": [
        "helloworld"
    ],
    "links": [
        {
            "url": "http://coffee.com",
            "title": "Peet's Coffee & Tea"
        }
    ]
}`
	if string(b) != want {
		t.Errorf("wanted\n%s\ngot\n%s", want, b)
	}
}

func TestNormalization(t *testing.T) {
	// Decomposed and composed forms of the same name are one mention
	r := parse(t, "@josé @josé", Config{})

	if want := []string{"josé"}; !reflect.DeepEqual(r.Mentions, want) {
		t.Errorf("wanted %q, got %q", want, r.Mentions)
	}
}

func TestTokens(t *testing.T) {
	tokens := Tokens("@josé (coffee)", 0)
	if len(tokens) != 2 {
		t.Fatalf("wanted 2 tokens, got %d", len(tokens))
	}

	// Locations refer to the normalized text, which is one byte shorter
	if tokens[0].Value != "josé" || tokens[0].Location.End != len("@josé") {
		t.Errorf("unexpected mention token %s", tokens[0].ToString())
	}
	if tokens[1].Location.Start != len("@josé ") {
		t.Errorf("unexpected parenthetical token %s", tokens[1].ToString())
	}

	if got := Tokens("@first @second", 6); len(got) != 1 || got[0].Value != "first" {
		t.Errorf("wanted only @first after truncation, got %v", got)
	}
}
