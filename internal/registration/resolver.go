package registration

import (
	"context"
	"fmt"
	"strings"

	"github.com/bilalbayram/eventscli/internal/events"
)

// MetadataMapping maps a provider metadata key to the provider id assigned by
// the service.
type MetadataMapping map[string]string

// TokenSource yields the bearer credential used for every remote call.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

type TokenSourceFunc func(ctx context.Context) (string, error)

func (f TokenSourceFunc) AccessToken(ctx context.Context) (string, error) {
	return f(ctx)
}

// Project identifies the workspace a pass reconciles.
type Project struct {
	OrgID         string
	OrgCode       string
	ProjectID     string
	WorkspaceID   string
	WorkspaceName string
}

func (p Project) Scope() events.Scope {
	return events.Scope{OrgID: p.OrgID, ProjectID: p.ProjectID, WorkspaceID: p.WorkspaceID}
}

// Identity is everything a pass needs to talk to the service.
type Identity struct {
	Project     Project
	ClientID    string
	AccessToken string
	Mapping     MetadataMapping
}

func (i Identity) Credentials() events.Credentials {
	return events.Credentials{
		AccessToken: i.AccessToken,
		APIKey:      i.ClientID,
		OrgCode:     i.Project.OrgCode,
	}
}

// Resolver holds the hook inputs, sourced once at the entry point.
type Resolver struct {
	APIKey     string
	MappingRaw string
	Tokens     TokenSource
}

func (r *Resolver) Resolve(ctx context.Context, project Project) (*Identity, error) {
	if err := project.Scope().Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIncompleteProject, err)
	}
	apiKey := strings.TrimSpace(r.APIKey)
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	if r.Tokens == nil {
		return nil, fmt.Errorf("access token source is not configured")
	}
	token, err := r.Tokens.AccessToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire access token: %w", err)
	}
	mapping, err := ParseMetadataMapping(r.MappingRaw)
	if err != nil {
		return nil, err
	}

	return &Identity{
		Project:     project,
		ClientID:    apiKey,
		AccessToken: token,
		Mapping:     mapping,
	}, nil
}

// ParseMetadataMapping parses "key1:id1,key2:id2". Whitespace around keys and
// ids is ignored; entries without a colon or with an empty side are rejected.
// Only the first colon separates key from id.
func ParseMetadataMapping(raw string) (MetadataMapping, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, ErrMissingMetadataMapping
	}

	mapping := MetadataMapping{}
	for _, entry := range strings.Split(raw, ",") {
		if strings.TrimSpace(entry) == "" {
			return nil, &MalformedMappingEntryError{Entry: entry, Reason: "empty entry"}
		}
		key, id, found := strings.Cut(entry, ":")
		if !found {
			return nil, &MalformedMappingEntryError{Entry: entry, Reason: "expected key:id"}
		}
		key = strings.TrimSpace(key)
		id = strings.TrimSpace(id)
		if key == "" {
			return nil, &MalformedMappingEntryError{Entry: entry, Reason: "empty provider metadata key"}
		}
		if id == "" {
			return nil, &MalformedMappingEntryError{Entry: entry, Reason: "empty provider id"}
		}
		mapping[key] = id
	}
	return mapping, nil
}
