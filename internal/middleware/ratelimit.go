package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/sponsorpass/pkg/errors"
	"github.com/charlesng35/sponsorpass/pkg/response"
)

// ErrTooManyRequests is returned once a client exhausts its window.
var ErrTooManyRequests = errors.New("RATE_LIMITED", "Too many requests, slow down", http.StatusTooManyRequests)

// RateLimit limits requests per (clientIP, route) within a fixed window. Counters live in
// process memory and expired windows are pruned on access.
func RateLimit(maxRequests int, window time.Duration) gin.HandlerFunc {
	return rateLimit(maxRequests, window, time.Now)
}

func rateLimit(maxRequests int, window time.Duration, now func() time.Time) gin.HandlerFunc {
	type counter struct {
		count     int
		windowEnd time.Time
	}

	var (
		mu        sync.Mutex
		data      = make(map[string]*counter)
		nextPrune time.Time
	)

	return func(c *gin.Context) {
		if maxRequests <= 0 || window <= 0 {
			c.Next()
			return
		}

		key := c.ClientIP() + "|" + c.FullPath()
		ts := now()

		mu.Lock()
		if ts.After(nextPrune) {
			for k, v := range data {
				if ts.After(v.windowEnd) {
					delete(data, k)
				}
			}
			nextPrune = ts.Add(window)
		}
		ct, ok := data[key]
		if !ok || ts.After(ct.windowEnd) {
			ct = &counter{windowEnd: ts.Add(window)}
			data[key] = ct
		}
		ct.count++
		count := ct.count
		resetIn := ct.windowEnd.Sub(ts)
		mu.Unlock()

		c.Header("X-RateLimit-Limit", strconv.Itoa(maxRequests))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(max(0, maxRequests-count)))
		c.Header("X-RateLimit-Reset", strconv.Itoa(int(resetIn.Seconds())))

		if count > maxRequests {
			response.Error(c, ErrTooManyRequests)
			c.Abort()
			return
		}

		c.Next()
	}
}
