// Package counter keeps cheap operational counters in Redis hashes, one
// field per day, so the admin dashboard can show reply volume without
// touching the reviews table.
package counter

import (
	"context"
	"strconv"
	"time"

	"github.com/reviewpilot/ReviewPilot/internal/pkg/cache"
)

const (
	repliesSentKey   = "automation:counters:replies_sent"
	repliesFailedKey = "automation:counters:replies_failed"

	dayFormat = "2006-01-02"
)

// AddRepliesSent increments today's sent-reply counter by n
func AddRepliesSent(n int) error {
	return incr(repliesSentKey, n)
}

// AddRepliesFailed increments today's failed-reply counter by n
func AddRepliesFailed(n int) error {
	return incr(repliesFailedKey, n)
}

func incr(key string, n int) error {
	if n <= 0 {
		return nil
	}
	ctx := context.Background()
	field := time.Now().Format(dayFormat)
	return cache.GetClient().HIncrBy(ctx, key, field, int64(n)).Err()
}

// Totals returns the all-time sent and failed reply counts.
func Totals() (sent int64, failed int64, err error) {
	sent, err = sumHash(repliesSentKey)
	if err != nil {
		return 0, 0, err
	}
	failed, err = sumHash(repliesFailedKey)
	if err != nil {
		return 0, 0, err
	}
	return sent, failed, nil
}

// DailyTotals returns per-day counts for the last days days, oldest first.
func DailyTotals(days int) (sent map[string]int64, failed map[string]int64, err error) {
	sent, err = readHash(repliesSentKey, days)
	if err != nil {
		return nil, nil, err
	}
	failed, err = readHash(repliesFailedKey, days)
	if err != nil {
		return nil, nil, err
	}
	return sent, failed, nil
}

func sumHash(key string) (int64, error) {
	ctx := context.Background()
	data, err := cache.GetClient().HGetAll(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	var total int64
	for _, v := range data {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			total += n
		}
	}
	return total, nil
}

func readHash(key string, days int) (map[string]int64, error) {
	ctx := context.Background()
	rdb := cache.GetClient()

	out := make(map[string]int64, days)
	for i := 0; i < days; i++ {
		day := time.Now().AddDate(0, 0, -i).Format(dayFormat)
		v, err := rdb.HGet(ctx, key, day).Result()
		if err != nil {
			if cache.IsNil(err) {
				out[day] = 0
				continue
			}
			return nil, err
		}
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			out[day] = n
		}
	}
	return out, nil
}
