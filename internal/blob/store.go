// Package blob is the object storage layer: raw match payloads, per-player
// match records, aggregates, and the match index all live here as JSON blobs.
package blob

import "context"

// Store abstracts a key/value blob backend. Get reports absence through the
// found flag rather than an error so callers can fall through to a fetch.
type Store interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Put(ctx context.Context, key string, value []byte) error
}

// Key layout shared by the manager, worker and lambda paths
const (
	matchPrefix  = "matches/"
	playerPrefix = "players/"
)

// MatchKey is the cache key of a raw match payload
func MatchKey(matchID string) string {
	return matchPrefix + matchID + ".json"
}

// MatchIndexKey is the key of the participant index of a match
func MatchIndexKey(matchID string) string {
	return matchPrefix + matchID + ".index.json"
}

// PlayerMatchKey is the key of one player's extracted record for one match
func PlayerMatchKey(puuid, matchID string) string {
	return playerPrefix + puuid + "/matches/" + matchID + ".json"
}

// AggregateKey is the key of a player's aggregate document
func AggregateKey(puuid string) string {
	return playerPrefix + puuid + "/aggregate.json"
}
