package fetcher

import (
	"github.com/trackql/fetcher/internal/output"
	"github.com/trackql/fetcher/internal/transport"
	"github.com/trackql/fetcher/internal/typeinference"
)

// ProjectNotProvided is returned when no project was resolved from a
// Context, the NEPTUNE_PROJECT environment variable, or SetContext.
type ProjectNotProvided struct{}

func (e *ProjectNotProvided) Error() string {
	return "the project name was not provided: set it via SetContext, pass a Context explicitly, " +
		"or set the NEPTUNE_PROJECT environment variable"
}

// APITokenNotProvided is returned when no API token was resolved from a
// Context, the NEPTUNE_API_TOKEN environment variable, or SetContext.
type APITokenNotProvided struct{}

func (e *APITokenNotProvided) Error() string {
	return "the Neptune API token was not provided: set it via SetContext, pass a Context explicitly, " +
		"or set the NEPTUNE_API_TOKEN environment variable"
}

// AttributeTypeInferenceError re-exports internal/typeinference's error so
// callers can type-assert on it without importing an internal package.
type AttributeTypeInferenceError = typeinference.AttributeTypeInferenceError

// ConflictingAttributeTypes re-exports internal/output's error: the same
// attribute name resolved to more than one type across the matched runs,
// and type_suffix_in_column_names was false so the columns couldn't be
// told apart.
type ConflictingAttributeTypes = output.ConflictingAttributeTypes

// AuthError re-exports internal/transport's error: the API token was
// rejected, or the project is inaccessible.
type AuthError = transport.AuthError

// UnexpectedResponseError re-exports internal/transport's error for a
// non-success, non-retryable backend response.
type UnexpectedResponseError = transport.UnexpectedResponseError

// RetryError re-exports internal/transport's error: the retry budget was
// exhausted without a successful response.
type RetryError = transport.RetryError
