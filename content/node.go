package content

// Status is the publication state of a content node.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
	StatusArchived  Status = "archived"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusPublished, StatusArchived:
		return true
	}
	return false
}

// Block is one typed content block. The type tag selects the block kind;
// the attribute bag is validated against the registry at the storage
// boundary and is otherwise opaque to the router.
type Block struct {
	Type  string         `dynamodbav:"type" json:"type"`
	Attrs map[string]any `dynamodbav:"attrs" json:"attrs"`
}

// Node is a page. The nodeId is stable across the page's lifetime; the
// contentId is assigned once at creation. The slug field mirrors the node's
// current live route.
type Node struct {
	TenantID  string  `dynamodbav:"tenant_id" json:"tenantId"`
	NodeID    string  `dynamodbav:"node_id" json:"nodeId"`
	ContentID string  `dynamodbav:"content_id" json:"contentId"`
	Slug      string  `dynamodbav:"slug" json:"slug"`
	Title     string  `dynamodbav:"title" json:"title"`
	Blocks    []Block `dynamodbav:"blocks" json:"blocks"`
	Status    Status  `dynamodbav:"status" json:"status"`
	Version   int64   `dynamodbav:"version" json:"version"`
	CreatedAt string  `dynamodbav:"created_at" json:"createdAt"`
	UpdatedAt string  `dynamodbav:"updated_at" json:"updatedAt"`
	Author    string  `dynamodbav:"author" json:"author"`
	UpdatedBy string  `dynamodbav:"updated_by" json:"updatedBy"`
}

// Route maps a slug to either a content node (live) or another slug
// (redirect). Within one tenant at most one route record exists per slug;
// a record that became a redirect is never converted back to a live route.
type Route struct {
	TenantID     string `dynamodbav:"tenant_id" json:"tenantId"`
	Slug         string `dynamodbav:"slug" json:"slug"`
	TargetNodeID string `dynamodbav:"target_node_id,omitempty" json:"targetNodeId,omitempty"`
	IsRedirect   bool   `dynamodbav:"is_redirect" json:"isRedirect"`
	RedirectTo   string `dynamodbav:"redirect_to,omitempty" json:"redirectTo,omitempty"`
	UpdatedAt    string `dynamodbav:"updated_at" json:"updatedAt"`
}
