package expr

import (
	"errors"
	"fmt"
	"testing"
)

func TestCacheGetPut(t *testing.T) {
	c := NewCache(4)
	prog := &Program{src: "a"}

	if _, _, ok := c.Get("a"); ok {
		t.Fatal("Get on empty cache reported a hit")
	}
	c.Put("a", prog, nil)
	got, err, ok := c.Get("a")
	if !ok || got != prog || err != nil {
		t.Errorf("Get(a) = %v, %v, %v; want cached program", got, err, ok)
	}
}

func TestCacheStoresFailures(t *testing.T) {
	c := NewCache(4)
	want := errors.New("bad")
	c.Put("k", nil, want)
	prog, err, ok := c.Get("k")
	if !ok || prog != nil || err != want {
		t.Errorf("Get(k) = %v, %v, %v; want cached failure", prog, err, ok)
	}
}

func TestCacheLRUEviction(t *testing.T) {
	c := NewCache(3)
	for _, k := range []string{"first", "second", "third"} {
		if n := c.Put(k, &Program{src: k}, nil); n != 0 {
			t.Errorf("Put(%s) evicted %d, want 0", k, n)
		}
	}

	// Touch first so second becomes least recently used.
	c.Get("first")

	if n := c.Put("fourth", &Program{src: "fourth"}, nil); n != 1 {
		t.Errorf("Put(fourth) evicted %d, want 1", n)
	}
	if _, _, ok := c.Get("second"); ok {
		t.Error("second should have been evicted")
	}
	for _, k := range []string{"first", "third", "fourth"} {
		if _, _, ok := c.Get(k); !ok {
			t.Errorf("%s should be present", k)
		}
	}
	if c.Len() != 3 {
		t.Errorf("Len() = %d, want 3", c.Len())
	}
}

func TestCacheUpdateInPlace(t *testing.T) {
	c := NewCache(2)
	c.Put("a", &Program{src: "old"}, nil)
	c.Put("a", &Program{src: "new"}, nil)
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
	got, _, _ := c.Get("a")
	if got.src != "new" {
		t.Errorf("Get(a).src = %q, want new", got.src)
	}
}

func TestCacheBounded(t *testing.T) {
	c := NewCache(8)
	for i := 0; i < 100; i++ {
		c.Put(fmt.Sprintf("k%d", i), nil, nil)
	}
	if c.Len() != 8 {
		t.Errorf("Len() = %d, want 8", c.Len())
	}
	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Len() after Clear = %d, want 0", c.Len())
	}
}

func TestCacheKeyIncludesParams(t *testing.T) {
	if CacheKey("a", []string{"a"}) == CacheKey("a", []string{"a", "b"}) {
		t.Error("keys for different parameter sets collide")
	}
}
