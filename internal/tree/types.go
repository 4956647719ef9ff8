// Package tree models the lazily loaded repository tree shown by the
// browsers: nodes, their ordering, and the filter language applied to them.
package tree

import (
	"context"
	"time"
)

type NodeType string

const (
	TypeRepository        NodeType = "repository"
	TypeVirtualRemoteRepo NodeType = "virtualRemoteRepository"
	TypeFolder            NodeType = "folder"
	TypeFile              NodeType = "file"
	TypeArchive           NodeType = "archive"
	TypeTrashcan          NodeType = "trashcan"
	TypeGoUp              NodeType = "go_up"
	TypeRoot              NodeType = "root"
)

type RepoType string

const (
	RepoLocal        RepoType = "local"
	RepoRemote       RepoType = "remote"
	RepoVirtual      RepoType = "virtual"
	RepoDistribution RepoType = "distribution"
	RepoCached       RepoType = "cached"
)

// TrashcanRepoKey is the repository key under which trashed items live.
const TrashcanRepoKey = "auto-trashcan"

// Info is the listing data for one node as returned by the listing service.
type Info struct {
	RepoKey     string   `json:"repo_key"`
	Path        string   `json:"path"`
	Text        string   `json:"text"`
	Type        NodeType `json:"type"`
	RepoType    RepoType `json:"repo_type,omitempty"`
	PackageType string   `json:"package_type,omitempty"`
	HasChildren bool     `json:"has_children"`
	MimeType    string   `json:"mime_type,omitempty"`
}

// Metadata is the per-node detail fetched by Node.Load.
type Metadata struct {
	Size        int64     `json:"size"`
	Created     time.Time `json:"created"`
	Modified    time.Time `json:"modified"`
	MimeType    string    `json:"mime_type,omitempty"`
	SHA256      string    `json:"sha256,omitempty"`
	Description string    `json:"description,omitempty"`
	ChildCount  int       `json:"child_count"`
}

// ListOptions are passed through to the listing service on every listing call.
type ListOptions struct {
	// Compact asks the service to fold chains of single-child folders into
	// one entry whose Text is the joined names and whose Path is the deepest.
	Compact bool
}

// Lister is the remote listing service the tree loads from.
type Lister interface {
	Roots(ctx context.Context, opts ListOptions) ([]Info, error)
	Children(ctx context.Context, parent Info, opts ListOptions) ([]Info, error)
	Metadata(ctx context.Context, node Info) (*Metadata, error)
}
