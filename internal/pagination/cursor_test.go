package pagination

import (
	"testing"
	"time"
)

type item struct {
	ts time.Time
	id string
}

func key(i item) (time.Time, string) { return i.ts, i.id }

func TestEncodeDecodeRoundTrip(t *testing.T) {
	ts := time.Date(2026, 3, 14, 10, 0, 0, 123, time.UTC)
	cur, err := Decode(Encode(ts, "tx-42"))
	if err != nil {
		t.Fatal(err)
	}
	if !cur.Timestamp.Equal(ts) || cur.ID != "tx-42" {
		t.Errorf("round trip mismatch: %+v", cur)
	}
}

func TestDecodeEmpty(t *testing.T) {
	cur, err := Decode("")
	if err != nil || cur != nil {
		t.Errorf("empty cursor: got %v, %v", cur, err)
	}
}

func TestDecodeGarbage(t *testing.T) {
	for _, s := range []string{"!!!", "aGVsbG8=", "bm90YW51bWJlcnxpZA=="} {
		if _, err := Decode(s); err == nil {
			t.Errorf("Decode(%q) should fail", s)
		}
	}
}

func TestComputePage(t *testing.T) {
	base := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	items := []item{
		{base.Add(3 * time.Hour), "c"},
		{base.Add(2 * time.Hour), "b"},
		{base.Add(1 * time.Hour), "a"},
	}

	page, next, more := ComputePage(items, 2, key)
	if len(page) != 2 || !more || next == "" {
		t.Fatalf("page=%v more=%v next=%q", page, more, next)
	}

	cur, err := Decode(next)
	if err != nil {
		t.Fatal(err)
	}
	rest := After(items, cur, key)
	if len(rest) != 1 || rest[0].id != "a" {
		t.Errorf("After = %v, want [a]", rest)
	}

	page, next, more = ComputePage(rest, 2, key)
	if len(page) != 1 || more || next != "" {
		t.Errorf("final page=%v more=%v next=%q", page, more, next)
	}
}

func TestAfterNilCursor(t *testing.T) {
	items := []item{{time.Now(), "a"}}
	if got := After(items, nil, key); len(got) != 1 {
		t.Errorf("nil cursor should return everything, got %v", got)
	}
}
