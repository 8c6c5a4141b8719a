// Package cache is the content-addressed store for compiled pipeline
// programs.
//
// Construction calls go through Lookup, which either returns the stored
// entry or hands out a Reservation. Exactly one reservation exists per
// key at a time: other callers asking for the same key block until the
// holder commits or aborts.
//
//	res, v, hit := c.Lookup(key)
//	if !hit {
//		v, err = compile()
//		if err != nil {
//			res.Abort()
//			return err
//		}
//		res.Commit(v)
//	}
//
// Committed entries live in a Store. LRUStore bounds the entry count and
// reports evictions; MapStore keeps everything.
package cache
