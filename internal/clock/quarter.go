package clock

import "time"

// BucketSize is the width of a capacity accounting bucket.
const BucketSize = 15 * time.Minute

// IsQuarterHour reports whether t sits on :00, :15, :30 or :45.
// Seconds and sub-seconds are not considered.
func IsQuarterHour(t time.Time) bool {
	return t.Minute()%15 == 0
}

// Bucket is the half-open interval [Start, End) used for capacity tallying.
type Bucket struct {
	Start time.Time
	End   time.Time
}

// BucketOf truncates t down to its quarter hour in t's own location.
func BucketOf(t time.Time) Bucket {
	start := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), (t.Minute()/15)*15, 0, 0, t.Location())
	return Bucket{Start: start, End: start.Add(BucketSize)}
}

func (b Bucket) Contains(t time.Time) bool {
	return !t.Before(b.Start) && t.Before(b.End)
}

// Key identifies the bucket independent of location, for use as a lock key.
func (b Bucket) Key() int64 {
	return b.Start.Unix() / int64(BucketSize/time.Second)
}

// BucketsBetween lists the buckets starting at from, stepping by BucketSize,
// up to and including the bucket that starts at or before to.
func BucketsBetween(from, to time.Time) []Bucket {
	if to.Before(from) {
		return nil
	}
	var out []Bucket
	for start := BucketOf(from).Start; !start.After(to); start = start.Add(BucketSize) {
		out = append(out, Bucket{Start: start, End: start.Add(BucketSize)})
	}
	return out
}
