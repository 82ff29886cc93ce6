// Package seedcache implements a per-render-context fallback cache keyed by
// canonicalized composite keys. A producer computes values up front (server
// render, build step), seeds them into a Table under deterministic key
// strings, and hands the table to consumers; a consumer asking for an
// equivalent composite key reads the seeded value instead of re-fetching.
//
// Components:
//   - Key / Serialize: composite keys over a closed set of primitive kinds,
//     canonicalized to an order- and type-preserving string.
//   - Table: write-once fallback store. Seed before Seal; read-only after.
//   - Reader[V]: two-phase consumer. Lookup never does I/O; Start returns an
//     explicit fetch task for misses; Resolve combines both.
//   - Codec[V]: (de)serializes V <-> []byte at the table/provider boundary.
//   - Provider: optional TTL byte store for values fetched after a miss
//     (e.g. Ristretto, BigCache, Redis).
//
// Keys:
//
//	<canonical>            - fallback table entries (context-local)
//	live:<ns>:<canonical>  - live provider entries
//
// Seeding pattern:
//
//	tbl := seedcache.NewTable(seedcache.TableOptions{})
//	key := seedcache.K(seedcache.String("api"), seedcache.String("article"), seedcache.Int(1))
//	_ = seedcache.Seed(tbl, codec.JSON[Article]{}, key, art)
//	tbl.Seal()
//	ctx = seedcache.NewContext(ctx, tbl) // hand to the render pass
package seedcache
