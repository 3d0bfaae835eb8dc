package response

import "budgetdesk/pkg/pagination"

// Envelope helpers for the API contract: list endpoints return
// {<plural>: [...], total, page, limit, total_pages}, single-entity endpoints
// return {<entity>: {...}} and errors return {error: "<message>"}.

type M map[string]interface{}

// List wraps a page of items under the entity's plural key with pagination metadata.
func List(key string, items interface{}, total int64, page, limit int) M {
	return M{
		key:           items,
		"total":       total,
		"page":        page,
		"limit":       limit,
		"total_pages": pagination.Params{Page: page, Limit: limit}.TotalPages(total),
	}
}

// Entity wraps a single entity under its singular key.
func Entity(key string, v interface{}) M {
	return M{key: v}
}

// Err wraps an error message.
func Err(msg string) M {
	return M{"error": msg}
}

// Errs wraps field-level validation messages.
func Errs(msgs []string) M {
	return M{"errors": msgs}
}

// Msg wraps an informational message.
func Msg(msg string) M {
	return M{"message": msg}
}
