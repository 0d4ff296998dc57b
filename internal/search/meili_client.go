// Package search keeps flagged address rows in a Meilisearch index so
// reviewers can find them by raw text, cleaned text or flag.
package search

import (
	"fmt"
	"strings"

	ms "github.com/meilisearch/meilisearch-go"
)

// ClientWrapper wraps the Meilisearch client with the subset of the API the
// review index uses.
type ClientWrapper struct {
	cli ms.ServiceManager
}

func NewClientWrapper(url, key string) *ClientWrapper {
	return &ClientWrapper{cli: ms.New(url, ms.WithAPIKey(key))}
}

// Healthy pings the server.
func (c *ClientWrapper) Healthy() error {
	_, err := c.cli.Health()
	return err
}

// SearchIndex runs q against index. Offset and limit page the hits.
func (c *ClientWrapper) SearchIndex(index, q, filter string, limit, offset int64) (*ms.SearchResponse, error) {
	req := &ms.SearchRequest{
		Limit:  limit,
		Offset: offset,
	}
	if filter != "" {
		req.Filter = filter
	}
	return c.cli.Index(index).Search(q, req)
}

// Filter builds an AND filter from attribute = value pairs, skipping
// empty values.
func Filter(pairs ...string) string {
	var clauses []string
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] == "" {
			continue
		}
		clauses = append(clauses, fmt.Sprintf("%s = %q", pairs[i], pairs[i+1]))
	}
	return strings.Join(clauses, " AND ")
}
