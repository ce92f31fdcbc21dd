package links

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/hupe1980/zimgraph/model"
)

// ErrNotUTF8 is returned for bodies that are not valid UTF-8.
var ErrNotUTF8 = errors.New("links: body is not valid UTF-8")

// Interner assigns keys to link targets.
type Interner interface {
	Intern(s string) model.Key
}

// Extract builds the Page of one article body. Only targets that survive
// the policy are interned; repeated targets keep their first position.
func Extract(body []byte, c Collector, p Policy, in Interner) (*model.Page, error) {
	if !utf8.Valid(body) {
		return nil, ErrNotUTF8
	}

	hrefs, err := c.Collect(body)
	if err != nil {
		return nil, fmt.Errorf("links: collect: %w", err)
	}

	seen := make(map[string]struct{}, len(hrefs))
	targets := make([]model.Key, 0, len(hrefs))
	for _, h := range hrefs {
		path, ok := p.Normalize(h)
		if !ok {
			continue
		}
		if _, dup := seen[path]; dup {
			continue
		}
		seen[path] = struct{}{}
		targets = append(targets, in.Intern(path))
	}
	return model.NewPage(targets), nil
}
