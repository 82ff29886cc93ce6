package seedcache

// Hooks are lightweight callbacks for high-signal events.
// Implementations MUST be cheap and non-blocking; the table and reader call
// them on hot paths. Wrap with hooks/async to offload expensive sinks.
type Hooks interface {
	// Seed was skipped without storing anything.
	// reason ∈ {"no_key"}
	SeedSkipped(reason string)

	// A lookup was answered from the fallback table.
	FallbackHit(canonical string)

	// A lookup was answered from the live provider.
	LiveHit(storageKey string)

	// Neither the table nor the live provider had the key.
	Miss(canonical string)

	// A corrupt or undecodable live entry was deleted on read.
	// reason ∈ {"value_decode"}
	SelfHeal(storageKey, reason string)

	// Provider returned ok=false on Set (backpressure/eviction).
	ProviderSetRejected(storageKey string)

	// A fetch task finished with an error.
	FetchError(canonical string, err error)
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) SeedSkipped(string)         {}
func (NopHooks) FallbackHit(string)         {}
func (NopHooks) LiveHit(string)             {}
func (NopHooks) Miss(string)                {}
func (NopHooks) SelfHeal(string, string)    {}
func (NopHooks) ProviderSetRejected(string) {}
func (NopHooks) FetchError(string, error)   {}
