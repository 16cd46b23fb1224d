// Package scoring implements the score and interests computations backed by
// the key-value store.
package scoring

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/R3E-Network/scoring_service/internal/store"
)

// CacheTTL is how long computed scores stay cached.
const CacheTTL = time.Hour

const interestsKeyPrefix = "i:"

// Person carries the validated, optional identity attributes that feed the
// score. Nil means the field was not supplied.
type Person struct {
	FirstName *string
	LastName  *string
	Email     *string
	Phone     *string
	Birthday  *time.Time
	Gender    *int
}

// CacheKey derives the content-addressed cache key for a person. Identical
// logical identity always yields the same key.
func CacheKey(p Person) string {
	var birthday string
	if p.Birthday != nil {
		birthday = p.Birthday.Format("20060102")
	}
	parts := stringOrEmpty(p.FirstName) + stringOrEmpty(p.LastName) + stringOrEmpty(p.Phone) + birthday
	sum := md5.Sum([]byte(parts))
	return "uid:" + hex.EncodeToString(sum[:])
}

// GetScore returns the score for a person, consulting the cache first. Cache
// unavailability never fails the computation.
func GetScore(ctx context.Context, st *store.Store, p Person) float64 {
	key := CacheKey(p)

	if cached, ok := st.CacheGet(ctx, key); ok {
		if score, err := strconv.ParseFloat(cached, 64); err == nil {
			return score
		}
	}

	score := 0.0
	if stringOrEmpty(p.Phone) != "" {
		score += 1.5
	}
	if stringOrEmpty(p.Email) != "" {
		score += 1.5
	}
	if p.Birthday != nil && p.Gender != nil {
		score += 1.5
	}
	if stringOrEmpty(p.FirstName) != "" && stringOrEmpty(p.LastName) != "" {
		score += 0.5
	}

	st.CacheSet(ctx, key, strconv.FormatFloat(score, 'f', -1, 64), CacheTTL)
	return score
}

// GetInterests returns the interests stored for a client id. A missing key or
// a value that is not a JSON array yields an empty list; store failures that
// survive retry propagate to the caller.
func GetInterests(ctx context.Context, st *store.Store, cid int64) ([]string, error) {
	raw, err := st.Get(ctx, fmt.Sprintf("%s%d", interestsKeyPrefix, cid))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return []string{}, nil
		}
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()
	var items []interface{}
	if err := dec.Decode(&items); err != nil {
		return []string{}, nil
	}

	interests := make([]string, 0, len(items))
	for _, item := range items {
		interests = append(interests, renderScalar(item))
	}
	return interests, nil
}

func renderScalar(v interface{}) string {
	switch value := v.(type) {
	case string:
		return value
	case json.Number:
		return value.String()
	case bool:
		return strconv.FormatBool(value)
	case nil:
		return "null"
	default:
		raw, err := json.Marshal(value)
		if err != nil {
			return fmt.Sprintf("%v", value)
		}
		return string(raw)
	}
}

func stringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
