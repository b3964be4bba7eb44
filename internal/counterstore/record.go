// Package counterstore implements C1, the per-key persistent counter
// store: atomic monotonic updates under invariant I1 and autovivification
// of unseen public_names under I2 (spec §4.1, §3). The outbox operations
// live in internal/queuestore, which shares this store's connection pool.
package counterstore

import "github.com/timhilliard/yubistack/internal/counter"

// Sentinel is the "never seen" value for yk_counter/yk_use/yk_high/yk_low
// and modified, per spec §3.
const Sentinel = -1

// Record is one Key Counter Record (spec §3). Counter fields are int64 so
// the -1 sentinel (I2) can be represented directly; a non-sentinel record
// always holds values within the wire's uint16/uint8 ranges.
type Record struct {
	Active     bool
	PublicName string
	YkCounter  int64
	YkUse      int64
	YkHigh     int64
	YkLow      int64
	Nonce      string
	Modified   int64 // Sentinel (-1) if never updated
	Created    int64
}

// Tuple extracts the ordering pair from r.
func (r Record) Tuple() counter.Tuple {
	return counter.Tuple{Counter: r.YkCounter, Use: r.YkUse}
}

// sentinelRecord is the record synthesized on first sighting of a
// public_name (I2): all counters and modified at -1, zero nonce.
func sentinelRecord(publicName string, now int64) Record {
	return Record{
		Active:     true,
		PublicName: publicName,
		YkCounter:  Sentinel,
		YkUse:      Sentinel,
		YkHigh:     Sentinel,
		YkLow:      Sentinel,
		Nonce:      "",
		Modified:   Sentinel,
		Created:    now,
	}
}
