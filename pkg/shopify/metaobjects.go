package shopify

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

const (
	metaobjectGIDPrefix = "gid://shopify/Metaobject/"
	productGIDPrefix    = "gid://shopify/Product/"

	// MaxPageSize is the largest "first" the Admin API accepts
	MaxPageSize = 250
)

const metaobjectSelection = `
	id
	handle
	type
	updatedAt
	capabilities { publishable { status } }
	fields { key value }
`

// Field is one key/value pair of a metaobject. Every value is a string.
type Field struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type publishable struct {
	Status string `json:"status"`
}

type capabilities struct {
	Publishable *publishable `json:"publishable"`
}

// Metaobject is a schema-typed record in the store's object store
type Metaobject struct {
	ID           string        `json:"id"`
	Handle       string        `json:"handle"`
	Type         string        `json:"type"`
	UpdatedAt    string        `json:"updatedAt"`
	Capabilities *capabilities `json:"capabilities"`
	Fields       []Field       `json:"fields"`
}

// Status returns the publishable status; absent capability maps to StatusUnknown
func (m *Metaobject) Status() ObjectStatus {
	if m.Capabilities == nil || m.Capabilities.Publishable == nil {
		return StatusUnknown
	}
	return ParseObjectStatus(m.Capabilities.Publishable.Status)
}

// FieldMap indexes the fields by key
func (m *Metaobject) FieldMap() map[string]string {
	out := make(map[string]string, len(m.Fields))
	for _, f := range m.Fields {
		out[f.Key] = f.Value
	}
	return out
}

// PageInfo is the cursor state of a connection
type PageInfo struct {
	HasNextPage bool   `json:"hasNextPage"`
	EndCursor   string `json:"endCursor"`
}

// MetaobjectPage is one page of a metaobjects listing
type MetaobjectPage struct {
	Items    []Metaobject `json:"items"`
	PageInfo PageInfo     `json:"pageInfo"`
}

// CreateMetaobjectInput describes a new metaobject
type CreateMetaobjectInput struct {
	Type   string
	Handle string
	Fields []Field
	// Status is written through the publishable capability; StatusUnknown omits it
	Status ObjectStatus
}

// IsMetaobjectID reports whether id is a bare numeric metaobject ID or a
// metaobject GID wrapping one
func IsMetaobjectID(id string) bool {
	id = strings.TrimPrefix(strings.TrimSpace(id), metaobjectGIDPrefix)
	n, err := strconv.ParseUint(id, 10, 64)
	return err == nil && n > 0
}

// MetaobjectGID accepts a bare numeric ID or a full GID and returns the GID
func MetaobjectGID(id string) string {
	id = strings.TrimSpace(id)
	if strings.HasPrefix(id, "gid://") {
		return id
	}
	if _, err := strconv.ParseUint(id, 10, 64); err == nil {
		return metaobjectGIDPrefix + id
	}
	return id
}

// ProductGID builds the GID of a product from its numeric ID
func ProductGID(productID int64) string {
	return productGIDPrefix + strconv.FormatInt(productID, 10)
}

func statusCapability(status ObjectStatus) map[string]any {
	return map[string]any{
		"publishable": map[string]any{"status": status.String()},
	}
}

const createMetaobjectMutation = `mutation CreateMetaobject($metaobject: MetaobjectCreateInput!) {
	metaobjectCreate(metaobject: $metaobject) {
		metaobject {` + metaobjectSelection + `}
		userErrors { field message code }
	}
}`

// CreateMetaobject creates a metaobject and returns it as stored
func (c *Client) CreateMetaobject(ctx context.Context, in CreateMetaobjectInput) (*Metaobject, error) {
	input := map[string]any{
		"type":   in.Type,
		"fields": in.Fields,
	}
	if in.Handle != "" {
		input["handle"] = in.Handle
	}
	if in.Status != StatusUnknown {
		input["capabilities"] = statusCapability(in.Status)
	}

	var out struct {
		MetaobjectCreate struct {
			Metaobject *Metaobject  `json:"metaobject"`
			UserErrors []UserError `json:"userErrors"`
		} `json:"metaobjectCreate"`
	}

	const operation = "metaobjectCreate"
	if err := c.execute(ctx, operation, modeOnce, createMetaobjectMutation, map[string]any{"metaobject": input}, &out); err != nil {
		return nil, err
	}
	if err := userErrorsToErr(operation, out.MetaobjectCreate.UserErrors); err != nil {
		return nil, err
	}
	if out.MetaobjectCreate.Metaobject == nil {
		return nil, &RemoteValidationError{Operation: operation, Errors: []UserError{{Message: "no metaobject returned"}}}
	}

	return out.MetaobjectCreate.Metaobject, nil
}

const updateMetaobjectMutation = `mutation UpdateMetaobject($id: ID!, $metaobject: MetaobjectUpdateInput!) {
	metaobjectUpdate(id: $id, metaobject: $metaobject) {
		metaobject {` + metaobjectSelection + `}
		userErrors { field message code }
	}
}`

// UpdateMetaobject patches fields and/or the publishable status. Nil fields
// leave the field set untouched; nil status leaves the status untouched.
func (c *Client) UpdateMetaobject(ctx context.Context, id string, fields []Field, status *ObjectStatus) (*Metaobject, error) {
	input := map[string]any{}
	if len(fields) > 0 {
		input["fields"] = fields
	}
	if status != nil && *status != StatusUnknown {
		input["capabilities"] = statusCapability(*status)
	}
	if len(input) == 0 {
		return nil, fmt.Errorf("update of %s has nothing to change", id)
	}

	var out struct {
		MetaobjectUpdate struct {
			Metaobject *Metaobject  `json:"metaobject"`
			UserErrors []UserError `json:"userErrors"`
		} `json:"metaobjectUpdate"`
	}

	const operation = "metaobjectUpdate"
	vars := map[string]any{"id": MetaobjectGID(id), "metaobject": input}
	if err := c.execute(ctx, operation, modeIdempotent, updateMetaobjectMutation, vars, &out); err != nil {
		return nil, err
	}
	if err := userErrorsToErr(operation, out.MetaobjectUpdate.UserErrors); err != nil {
		return nil, err
	}
	if out.MetaobjectUpdate.Metaobject == nil {
		return nil, &RemoteValidationError{Operation: operation, Errors: []UserError{{Message: "no metaobject returned"}}}
	}

	return out.MetaobjectUpdate.Metaobject, nil
}

const deleteMetaobjectMutation = `mutation DeleteMetaobject($id: ID!) {
	metaobjectDelete(id: $id) {
		deletedId
		userErrors { field message code }
	}
}`

// DeleteMetaobject deletes a metaobject and returns the deleted ID
func (c *Client) DeleteMetaobject(ctx context.Context, id string) (string, error) {
	var out struct {
		MetaobjectDelete struct {
			DeletedID  string      `json:"deletedId"`
			UserErrors []UserError `json:"userErrors"`
		} `json:"metaobjectDelete"`
	}

	const operation = "metaobjectDelete"
	if err := c.execute(ctx, operation, modeIdempotent, deleteMetaobjectMutation, map[string]any{"id": MetaobjectGID(id)}, &out); err != nil {
		return "", err
	}
	if err := userErrorsToErr(operation, out.MetaobjectDelete.UserErrors); err != nil {
		return "", err
	}

	return out.MetaobjectDelete.DeletedID, nil
}

const getMetaobjectQuery = `query GetMetaobject($id: ID!) {
	metaobject(id: $id) {` + metaobjectSelection + `}
}`

// GetMetaobject fetches a metaobject by ID. A missing object yields (nil, nil).
func (c *Client) GetMetaobject(ctx context.Context, id string) (*Metaobject, error) {
	var out struct {
		Metaobject *Metaobject `json:"metaobject"`
	}

	if err := c.execute(ctx, "metaobject", modeIdempotent, getMetaobjectQuery, map[string]any{"id": MetaobjectGID(id)}, &out); err != nil {
		return nil, err
	}

	return out.Metaobject, nil
}

const listMetaobjectsQuery = `query ListMetaobjects($type: String!, $first: Int!, $after: String) {
	metaobjects(type: $type, first: $first, after: $after) {
		nodes {` + metaobjectSelection + `}
		pageInfo { hasNextPage endCursor }
	}
}`

// ListMetaobjects returns one page of metaobjects of the given type
func (c *Client) ListMetaobjects(ctx context.Context, objectType string, first int, after string) (*MetaobjectPage, error) {
	if first <= 0 || first > MaxPageSize {
		return nil, fmt.Errorf("page size must be between 1 and %d, got %d", MaxPageSize, first)
	}

	vars := map[string]any{"type": objectType, "first": first}
	if after != "" {
		vars["after"] = after
	}

	var out struct {
		Metaobjects struct {
			Nodes    []Metaobject `json:"nodes"`
			PageInfo PageInfo     `json:"pageInfo"`
		} `json:"metaobjects"`
	}

	if err := c.execute(ctx, "metaobjects", modeIdempotent, listMetaobjectsQuery, vars, &out); err != nil {
		return nil, err
	}

	items := out.Metaobjects.Nodes
	if items == nil {
		items = []Metaobject{}
	}

	return &MetaobjectPage{Items: items, PageInfo: out.Metaobjects.PageInfo}, nil
}
