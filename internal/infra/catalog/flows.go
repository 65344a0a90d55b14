package catalog

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/tidwall/gjson"

	"telegram-storefront/internal/domain"
	"telegram-storefront/internal/domain/model"
)

// entry members that are not flow fields
var entryMeta = map[string]bool{"id": true, "type": true, "links": true, "meta": true, "relationships": true}

func flowFrom(res gjson.Result) *model.Flow {
	return &model.Flow{
		ID:          res.Get("id").String(),
		Name:        res.Get("name").String(),
		Slug:        res.Get("slug").String(),
		Description: res.Get("description").String(),
	}
}

func entryFrom(res gjson.Result) model.Entry {
	e := model.Entry{ID: res.Get("id").String(), Fields: make(map[string]interface{})}
	res.ForEach(func(k, v gjson.Result) bool {
		if !entryMeta[k.String()] {
			e.Fields[k.String()] = v.Value()
		}
		return true
	})
	return e
}

func entryPayload(e model.Entry) map[string]any {
	data := make(map[string]any, len(e.Fields)+2)
	for k, v := range e.Fields {
		data[k] = v
	}
	data["type"] = "entry"
	if e.ID != "" {
		data["id"] = e.ID
	}
	return data
}

// GetFlowBySlug scans the flow list; the API has no lookup by slug.
func (c *Client) GetFlowBySlug(ctx context.Context, slug string) (*model.Flow, error) {
	body, err := c.do(ctx, "list_flows", http.MethodGet, "/v2/flows", nil)
	if err != nil {
		return nil, err
	}
	var found *model.Flow
	gjson.GetBytes(body, "data").ForEach(func(_, v gjson.Result) bool {
		if v.Get("slug").String() == slug {
			found = flowFrom(v)
			return false
		}
		return true
	})
	if found == nil {
		return nil, fmt.Errorf("flow %s: %w", slug, domain.ErrNotFound)
	}
	return found, nil
}

func (c *Client) CreateFlow(ctx context.Context, f model.Flow) (*model.Flow, error) {
	body, err := c.do(ctx, "create_flow", http.MethodPost, "/v2/flows", map[string]any{
		"type":        "flow",
		"name":        f.Name,
		"slug":        f.Slug,
		"description": f.Description,
		"enabled":     true,
	})
	if err != nil {
		return nil, err
	}
	return flowFrom(gjson.GetBytes(body, "data")), nil
}

func (c *Client) CreateField(ctx context.Context, flowID string, f model.Field) (*model.Field, error) {
	body, err := c.do(ctx, "create_field", http.MethodPost, "/v2/fields", map[string]any{
		"type":        "field",
		"name":        f.Name,
		"slug":        f.Slug,
		"field_type":  f.Type,
		"description": f.Description,
		"required":    f.Required,
		"enabled":     true,
		"relationships": map[string]any{
			"flow": map[string]any{"data": map[string]any{"type": "flow", "id": flowID}},
		},
	})
	if err != nil {
		return nil, err
	}
	res := gjson.GetBytes(body, "data")
	return &model.Field{
		ID:          res.Get("id").String(),
		Name:        res.Get("name").String(),
		Slug:        res.Get("slug").String(),
		Type:        res.Get("field_type").String(),
		Description: res.Get("description").String(),
		Required:    res.Get("required").Bool(),
	}, nil
}

func (c *Client) ListEntries(ctx context.Context, flowSlug string) ([]model.Entry, error) {
	body, err := c.do(ctx, "list_entries", http.MethodGet, "/v2/flows/"+url.PathEscape(flowSlug)+"/entries", nil)
	if err != nil {
		return nil, err
	}
	var out []model.Entry
	gjson.GetBytes(body, "data").ForEach(func(_, v gjson.Result) bool {
		out = append(out, entryFrom(v))
		return true
	})
	return out, nil
}

func (c *Client) GetEntry(ctx context.Context, flowSlug, entryID string) (*model.Entry, error) {
	body, err := c.do(ctx, "get_entry", http.MethodGet, entryPath(flowSlug, entryID), nil)
	if err != nil {
		return nil, err
	}
	e := entryFrom(gjson.GetBytes(body, "data"))
	return &e, nil
}

func (c *Client) CreateEntry(ctx context.Context, flowSlug string, e model.Entry) (*model.Entry, error) {
	e.ID = ""
	body, err := c.do(ctx, "create_entry", http.MethodPost, "/v2/flows/"+url.PathEscape(flowSlug)+"/entries", entryPayload(e))
	if err != nil {
		return nil, err
	}
	out := entryFrom(gjson.GetBytes(body, "data"))
	return &out, nil
}

func (c *Client) UpdateEntry(ctx context.Context, flowSlug string, e model.Entry) (*model.Entry, error) {
	if e.ID == "" {
		return nil, fmt.Errorf("%w: entry id empty", domain.ErrInvalidArgument)
	}
	body, err := c.do(ctx, "update_entry", http.MethodPut, entryPath(flowSlug, e.ID), entryPayload(e))
	if err != nil {
		return nil, err
	}
	out := entryFrom(gjson.GetBytes(body, "data"))
	return &out, nil
}

func (c *Client) DeleteEntry(ctx context.Context, flowSlug, entryID string) error {
	_, err := c.do(ctx, "delete_entry", http.MethodDelete, entryPath(flowSlug, entryID), nil)
	return err
}

func entryPath(flowSlug, entryID string) string {
	return "/v2/flows/" + url.PathEscape(flowSlug) + "/entries/" + url.PathEscape(entryID)
}
