package registration

import (
	"errors"
	"fmt"
)

var (
	ErrMissingAPIKey            = errors.New("required SERVICE_API_KEY is missing")
	ErrMissingMetadataMapping   = errors.New("no environment variables for provider metadata to provider id mappings found")
	ErrUnmappedProviderMetadata = errors.New("unmapped provider metadata")
	ErrMalformedMapping         = errors.New("malformed provider metadata mapping")
	ErrIncompleteProject        = errors.New("incomplete project configuration")
	ErrInvalidDeclaration       = errors.New("invalid registration declaration")
)

type UnmappedProviderMetadataError struct {
	Registration     string
	ProviderMetadata string
}

func (e *UnmappedProviderMetadataError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("no provider id mapping found for provider metadata %s, skipping event registration %q", e.ProviderMetadata, e.Registration)
}

func (e *UnmappedProviderMetadataError) Unwrap() error {
	return ErrUnmappedProviderMetadata
}

type MalformedMappingEntryError struct {
	Entry  string
	Reason string
}

func (e *MalformedMappingEntryError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("invalid provider metadata mapping entry %q: %s", e.Entry, e.Reason)
}

func (e *MalformedMappingEntryError) Unwrap() error {
	return ErrMalformedMapping
}

// OperationError reports which registration a remote call was made for.
type OperationError struct {
	Op             string
	Name           string
	RegistrationID string
	Err            error
}

func (e *OperationError) Error() string {
	if e == nil {
		return ""
	}
	if e.RegistrationID != "" {
		return fmt.Sprintf("%s registration %q (id %s): %v", e.Op, e.Name, e.RegistrationID, e.Err)
	}
	return fmt.Sprintf("%s registration %q: %v", e.Op, e.Name, e.Err)
}

func (e *OperationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
