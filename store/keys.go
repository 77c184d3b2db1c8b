package store

import "strings"

// Partition and sort key attribute names. Every record in the table is
// addressed by (pk, sk); pk is always a tenant id except for tenant
// configuration itself, which lives in a system-wide partition.
const (
	AttrPK = "pk"
	AttrSK = "sk"

	// TenantPartition is the system-wide partition holding tenant
	// configuration records, keyed by tenant id in the sort key.
	TenantPartition = "TENANT"
)

// Sort key prefixes per record kind.
const (
	nodePrefix    = "NODE#"
	routePrefix   = "ROUTE#"
	productPrefix = "PRODUCT#"
	edgePrefix    = "EDGE#"
)

// NodeSK returns the sort key for a content node record.
func NodeSK(nodeID string) string { return nodePrefix + nodeID }

// RouteSK returns the sort key for a route record.
func RouteSK(slug string) string { return routePrefix + slug }

// ProductSK returns the sort key for a product record.
func ProductSK(productID string) string { return productPrefix + productID }

// EdgeSK returns the sort key for a category-product adjacency record.
func EdgeSK(categoryID, productID string) string {
	return edgePrefix + categoryID + "#" + productID
}

// EdgePrefix returns the sort key prefix matching every edge of a category.
func EdgePrefix(categoryID string) string {
	return edgePrefix + categoryID + "#"
}

// IsProductSK reports whether a sort key addresses a product record.
func IsProductSK(sk string) bool { return strings.HasPrefix(sk, productPrefix) }

// ProductIDFromSK extracts the product id from a product sort key.
func ProductIDFromSK(sk string) string { return strings.TrimPrefix(sk, productPrefix) }
