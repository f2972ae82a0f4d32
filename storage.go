package docsite

// Fixed keys in session-scoped storage.
const (
	SessionStorageKey     = "docs_analytics_session"
	PlaceholderStorageKey = "docs_placeholders"
)

// Storage is session-scoped client storage: values live until the reading
// session ends. Implementations may fail at any call (private browsing,
// quota); callers degrade rather than propagate.
type Storage interface {
	// Get returns the value stored under key. ok is false when absent.
	Get(key string) (value string, ok bool, err error)

	// Set stores value under key.
	Set(key, value string) error

	// Remove deletes key. Removing an absent key is not an error.
	Remove(key string) error
}
