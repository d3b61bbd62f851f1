package utils

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const onlineKey = "presence:online"

// OnlineWindow is how long a user counts as online after their last request.
const OnlineWindow = 15 * time.Minute

var (
	onlineSeen   = map[string]time.Time{}
	onlineSeenMu sync.Mutex
)

// MarkOnline records presence for a username. Redis holds the shared sorted
// set; the in-memory map is the fallback when Redis is unreachable.
func MarkOnline(username string) {
	if username == "" {
		return
	}
	now := time.Now()
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := rc.ZAdd(ctx, onlineKey, redis.Z{
			Score:  float64(now.Unix()),
			Member: username,
		}).Err(); err == nil {
			return
		}
	}
	onlineSeenMu.Lock()
	onlineSeen[username] = now
	onlineSeenMu.Unlock()
}

// OnlineUsernames lists users seen within the window, sorted by name.
func OnlineUsernames() []string {
	cutoff := time.Now().Add(-OnlineWindow)
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		rc.ZRemRangeByScore(ctx, onlineKey, "-inf", "("+strconv.FormatInt(cutoff.Unix(), 10))
		if names, err := rc.ZRange(ctx, onlineKey, 0, -1).Result(); err == nil {
			sort.Strings(names)
			return names
		}
	}

	onlineSeenMu.Lock()
	defer onlineSeenMu.Unlock()
	names := make([]string, 0, len(onlineSeen))
	for name, seen := range onlineSeen {
		if seen.Before(cutoff) {
			delete(onlineSeen, name)
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
