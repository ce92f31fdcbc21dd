package links

import (
	"bytes"
	"errors"
	"io"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Collector lists the href values of the anchors in an HTML body,
// in document order.
type Collector interface {
	Collect(body []byte) ([]string, error)
}

// CollectorFunc adapts a function to Collector.
type CollectorFunc func(body []byte) ([]string, error)

// Collect calls f(body).
func (f CollectorFunc) Collect(body []byte) ([]string, error) { return f(body) }

// HTMLCollector collects <a href> values with the x/net/html tokenizer.
// Entities in attribute values are decoded.
type HTMLCollector struct{}

// Collect implements Collector.
func (HTMLCollector) Collect(body []byte) ([]string, error) {
	z := html.NewTokenizer(bytes.NewReader(body))

	var hrefs []string
	for {
		switch z.Next() {
		case html.ErrorToken:
			if err := z.Err(); !errors.Is(err, io.EOF) {
				return hrefs, err
			}
			return hrefs, nil
		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			if !hasAttr || atom.Lookup(name) != atom.A {
				continue
			}
			for {
				key, val, more := z.TagAttr()
				if string(key) == "href" {
					hrefs = append(hrefs, string(val))
					break
				}
				if !more {
					break
				}
			}
		}
	}
}
