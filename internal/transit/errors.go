package transit

import "fmt"

// ValidationError reports a request rejected before any upstream call.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// UpstreamError reports a failed call to the journey planner API. Status is
// the upstream HTTP status, or 0 when no response was received at all.
type UpstreamError struct {
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	if e.Status == 0 {
		return "upstream request failed: " + e.Message
	}
	if e.Message == "" {
		return fmt.Sprintf("upstream returned status %d", e.Status)
	}
	return fmt.Sprintf("upstream returned status %d: %s", e.Status, e.Message)
}

// NotFoundError reports that a lookup matched nothing.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return "no " + e.Resource + " found"
}
