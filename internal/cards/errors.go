package cards

import "fmt"

// APIError is the error object Scryfall returns with non-2xx responses.
type APIError struct {
	Object   string   `json:"object"`
	Code     string   `json:"code"`
	Status   int      `json:"status"`
	Details  string   `json:"details"`
	Warnings []string `json:"warnings,omitempty"`
}

func (e *APIError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("scryfall: HTTP %d: %s", e.Status, e.Details)
	}
	return fmt.Sprintf("scryfall: HTTP %d: %s", e.Status, e.Code)
}

type NotFoundError struct {
	URL string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("scryfall: not found: %s", e.URL)
}
