package scoring

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/R3E-Network/scoring_service/internal/store"
)

// countingBackend records call counts over an in-memory backend.
type countingBackend struct {
	inner    *store.MemoryBackend
	getCalls int
	setCalls int
	getErr   error
	setErr   error
}

func (b *countingBackend) Get(ctx context.Context, key string) (string, error) {
	b.getCalls++
	if b.getErr != nil {
		return "", b.getErr
	}
	return b.inner.Get(ctx, key)
}

func (b *countingBackend) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	b.setCalls++
	if b.setErr != nil {
		return b.setErr
	}
	return b.inner.Set(ctx, key, value, ttl)
}

func newCounting() *countingBackend {
	return &countingBackend{inner: store.NewMemoryBackend()}
}

func strptr(s string) *string { return &s }
func intptr(n int) *int       { return &n }

func fullPerson() Person {
	birthday := time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)
	return Person{
		FirstName: strptr("Ivan"),
		LastName:  strptr("Petrov"),
		Email:     strptr("ivan@example.com"),
		Phone:     strptr("79161234567"),
		Birthday:  &birthday,
		Gender:    intptr(1),
	}
}

func TestGetScoreWeights(t *testing.T) {
	birthday := time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		name   string
		person Person
		want   float64
	}{
		{"empty", Person{}, 0.0},
		{"phone only", Person{Phone: strptr("79161234567")}, 1.5},
		{"email only", Person{Email: strptr("a@b")}, 1.5},
		{"phone and email", Person{Phone: strptr("79161234567"), Email: strptr("a@b")}, 3.0},
		{"birthday without gender", Person{Birthday: &birthday}, 0.0},
		{"birthday and gender", Person{Birthday: &birthday, Gender: intptr(0)}, 1.5},
		{"first name only", Person{FirstName: strptr("Ivan")}, 0.0},
		{"full name", Person{FirstName: strptr("Ivan"), LastName: strptr("Petrov")}, 0.5},
		{"everything", fullPerson(), 5.0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			st := store.New(newCounting())
			if got := GetScore(context.Background(), st, tc.person); got != tc.want {
				t.Fatalf("score = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestGetScoreUsesCache(t *testing.T) {
	backend := newCounting()
	st := store.New(backend)
	person := fullPerson()

	first := GetScore(context.Background(), st, person)
	if backend.setCalls != 1 {
		t.Fatalf("expected computed score to be cached, set calls = %d", backend.setCalls)
	}

	second := GetScore(context.Background(), st, person)
	if second != first {
		t.Fatalf("cached score %v differs from computed %v", second, first)
	}
	if backend.setCalls != 1 {
		t.Fatalf("second call must hit the cache, set calls = %d", backend.setCalls)
	}
}

func TestGetScoreSurvivesCacheOutage(t *testing.T) {
	backend := newCounting()
	backend.getErr = &store.ConnectionError{Err: errors.New("connection refused")}
	backend.setErr = backend.getErr
	st := store.New(backend)

	got := GetScore(context.Background(), st, fullPerson())
	if got != 5.0 {
		t.Fatalf("score with cache down = %v, want 5.0", got)
	}
}

func TestCacheKeyDeterministic(t *testing.T) {
	a := CacheKey(fullPerson())
	b := CacheKey(fullPerson())
	if a != b {
		t.Fatalf("identical identity produced different keys: %s vs %s", a, b)
	}

	other := fullPerson()
	other.Phone = strptr("79160000000")
	if CacheKey(other) == a {
		t.Fatalf("different identity must produce a different key")
	}
}

func TestGetInterests(t *testing.T) {
	backend := newCounting()
	st := store.New(backend)
	ctx := context.Background()

	if err := backend.inner.Set(ctx, "i:1", `[1,2]`, 0); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := backend.inner.Set(ctx, "i:2", `["books","travel"]`, 0); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := backend.inner.Set(ctx, "i:3", `{"not":"a list"}`, 0); err != nil {
		t.Fatalf("seed: %v", err)
	}

	got, err := GetInterests(ctx, st, 1)
	if err != nil {
		t.Fatalf("interests 1: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"1", "2"}) {
		t.Fatalf("interests 1 = %v", got)
	}

	got, err = GetInterests(ctx, st, 2)
	if err != nil {
		t.Fatalf("interests 2: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"books", "travel"}) {
		t.Fatalf("interests 2 = %v", got)
	}

	for _, cid := range []int64{3, 404} {
		got, err = GetInterests(ctx, st, cid)
		if err != nil {
			t.Fatalf("interests %d: %v", cid, err)
		}
		if len(got) != 0 {
			t.Fatalf("interests %d = %v, want empty", cid, got)
		}
	}
}

func TestGetInterestsPropagatesStoreFailure(t *testing.T) {
	backend := newCounting()
	backend.getErr = &store.ConnectionError{Err: errors.New("connection refused")}
	st := store.New(backend, store.WithRetry(2, 0))

	if _, err := GetInterests(context.Background(), st, 1); err == nil {
		t.Fatalf("expected store failure to propagate")
	}
	if backend.getCalls != 2 {
		t.Fatalf("expected retries before giving up, got %d calls", backend.getCalls)
	}
}
