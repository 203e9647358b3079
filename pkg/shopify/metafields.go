package shopify

import (
	"context"

	pkgerrors "github.com/reviewbridge/reviewbridge-api/pkg/errors"
)

// Metafield is a namespaced value attached to an owner resource
type Metafield struct {
	ID            string `json:"id"`
	Value         string `json:"value"`
	CompareDigest string `json:"compareDigest"`
}

// SetMetafieldInput writes one metafield. A non-empty CompareDigest makes
// the write conditional on the value not having changed since it was read.
type SetMetafieldInput struct {
	OwnerID       string
	Namespace     string
	Key           string
	Type          string
	Value         string
	CompareDigest string
}

const productMetafieldQuery = `query ProductMetafield($id: ID!, $namespace: String!, $key: String!) {
	product(id: $id) {
		id
		metafield(namespace: $namespace, key: $key) { id value compareDigest }
	}
}`

// GetProductMetafield reads one metafield of a product. The metafield is nil
// when it has never been written; a missing product is ErrNotFound.
func (c *Client) GetProductMetafield(ctx context.Context, productID int64, namespace, key string) (*Metafield, error) {
	var out struct {
		Product *struct {
			ID        string     `json:"id"`
			Metafield *Metafield `json:"metafield"`
		} `json:"product"`
	}

	vars := map[string]any{"id": ProductGID(productID), "namespace": namespace, "key": key}
	if err := c.execute(ctx, "productMetafield", modeIdempotent, productMetafieldQuery, vars, &out); err != nil {
		return nil, err
	}
	if out.Product == nil {
		return nil, pkgerrors.NotFoundError("product")
	}

	return out.Product.Metafield, nil
}

const metafieldsSetMutation = `mutation SetMetafields($metafields: [MetafieldsSetInput!]!) {
	metafieldsSet(metafields: $metafields) {
		metafields { id value compareDigest }
		userErrors { field message code }
	}
}`

// SetMetafield writes a metafield and returns the stored value
func (c *Client) SetMetafield(ctx context.Context, in SetMetafieldInput) (*Metafield, error) {
	input := map[string]any{
		"ownerId":   in.OwnerID,
		"namespace": in.Namespace,
		"key":       in.Key,
		"type":      in.Type,
		"value":     in.Value,
	}
	if in.CompareDigest != "" {
		input["compareDigest"] = in.CompareDigest
	}

	var out struct {
		MetafieldsSet struct {
			Metafields []Metafield `json:"metafields"`
			UserErrors []UserError `json:"userErrors"`
		} `json:"metafieldsSet"`
	}

	const operation = "metafieldsSet"
	vars := map[string]any{"metafields": []map[string]any{input}}
	if err := c.execute(ctx, operation, modeIdempotent, metafieldsSetMutation, vars, &out); err != nil {
		return nil, err
	}
	if err := userErrorsToErr(operation, out.MetafieldsSet.UserErrors); err != nil {
		return nil, err
	}
	if len(out.MetafieldsSet.Metafields) == 0 {
		return nil, &RemoteValidationError{Operation: operation, Errors: []UserError{{Message: "no metafield returned"}}}
	}

	return &out.MetafieldsSet.Metafields[0], nil
}
