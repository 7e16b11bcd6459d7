package timeutil

import "time"

// NowUnix returns the current unix time in seconds, the unit of every ctime/mtime column.
func NowUnix() int64 {
	return time.Now().Unix()
}
