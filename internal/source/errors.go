package source

import (
	"fmt"
	"strings"

	"git.home.luguber.info/inful/bundlepacker/internal/config"
)

// UnsupportedSourceError indicates a source kind the resolver cannot handle.
type UnsupportedSourceError struct {
	ID     string
	Source *config.Source
}

func (e *UnsupportedSourceError) Error() string {
	return fmt.Sprintf("unsupported checkout source for %s: %s", e.ID, e.Source)
}

// ResolutionError indicates a checkout or remote query failure for a component.
type ResolutionError struct {
	ID  string
	Op  string
	Err error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("source resolution failed for %s (%s): %v", e.ID, e.Op, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// Typed clone errors enabling structured classification without string parsing upstream.
type AuthError struct {
	URL string
	Err error
}

func (e *AuthError) Error() string { return fmt.Sprintf("clone auth error for %s: %v", e.URL, e.Err) }
func (e *AuthError) Unwrap() error { return e.Err }

type NotFoundError struct {
	URL string
	Err error
}

func (e *NotFoundError) Error() string { return fmt.Sprintf("clone not found %s: %v", e.URL, e.Err) }
func (e *NotFoundError) Unwrap() error { return e.Err }

// classifyCloneError wraps underlying go-git errors into typed variants when possible.
func classifyCloneError(url string, err error) error {
	l := strings.ToLower(err.Error())
	switch {
	case strings.Contains(l, "authentication") || strings.Contains(l, "auth fail") || strings.Contains(l, "invalid username or password"):
		return &AuthError{URL: url, Err: err}
	case strings.Contains(l, "not found") || strings.Contains(l, "repository does not exist"):
		return &NotFoundError{URL: url, Err: err}
	default:
		return fmt.Errorf("failed to clone repository %s: %w", url, err)
	}
}
