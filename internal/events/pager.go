package events

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

type halLink struct {
	Href string `json:"href"`
}

type halPage struct {
	Embedded map[string]json.RawMessage `json:"_embedded"`
	Links    map[string]halLink         `json:"_links"`
}

type PaginationResult struct {
	PagesFetched int `json:"pages_fetched"`
	ItemsFetched int `json:"items_fetched"`
}

// FetchAll walks a HAL collection, following _links.next until it is absent,
// and hands every raw item under _embedded[key] to onItem.
func (c *Client) FetchAll(ctx context.Context, req Request, key string, onItem func(json.RawMessage) error) (*PaginationResult, error) {
	if req.Method != "" && strings.ToUpper(req.Method) != http.MethodGet {
		return nil, fmt.Errorf("pagination only supports GET requests")
	}
	req.Method = http.MethodGet

	result := &PaginationResult{}
	seen := map[string]struct{}{}
	current := req

	for {
		page := halPage{}
		if _, err := c.DoJSON(ctx, current, &page); err != nil {
			return nil, err
		}
		result.PagesFetched++

		items, err := embeddedItems(page, key)
		if err != nil {
			return nil, err
		}
		for _, item := range items {
			result.ItemsFetched++
			if onItem != nil {
				if err := onItem(item); err != nil {
					return nil, err
				}
			}
		}

		next := strings.TrimSpace(page.Links["next"].Href)
		if next == "" {
			return result, nil
		}
		if _, looped := seen[next]; looped {
			return nil, fmt.Errorf("pagination loop detected at %q", next)
		}
		seen[next] = struct{}{}

		current = Request{
			Method:      http.MethodGet,
			Path:        next,
			Credentials: req.Credentials,
		}
	}
}

func embeddedItems(page halPage, key string) ([]json.RawMessage, error) {
	raw, ok := page.Embedded[key]
	if !ok || len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	items := []json.RawMessage{}
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode _embedded.%s: %w", key, err)
	}
	return items, nil
}
