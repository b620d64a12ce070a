package registry

import (
	"errors"
	"reflect"
	"testing"

	"github.com/adamavenir/storytime/internal/core"
	"github.com/adamavenir/storytime/internal/types"
)

func strPtr(value string) *string {
	return &value
}

func seeds() []types.ReaderSeed {
	return []types.ReaderSeed{
		{ID: "Bellamy", AvatarRef: strPtr("/tmp/bellamy.jpeg")},
		{ID: "Marceline"},
	}
}

func TestNewDerivesCountsFromLog(t *testing.T) {
	reg := New(seeds(), map[string]int{"Bellamy": 3, "Ghost": 9})

	got := reg.List()
	if len(got) != 2 {
		t.Fatalf("expected 2 readers, got %d", len(got))
	}
	if got[0].ID != "Bellamy" || got[0].ReadCount != 3 {
		t.Fatalf("unexpected first reader: %+v", got[0])
	}
	if got[1].ID != "Marceline" || got[1].ReadCount != 0 {
		t.Fatalf("unexpected second reader: %+v", got[1])
	}
	if reg.Has("Ghost") {
		t.Fatalf("log-only reader should not be registered")
	}
}

func TestNewSkipsDuplicateSeeds(t *testing.T) {
	reg := New(append(seeds(), types.ReaderSeed{ID: "Bellamy"}, types.ReaderSeed{}), nil)
	if reg.Len() != 2 {
		t.Fatalf("expected 2 readers, got %d", reg.Len())
	}
}

func TestIncrement(t *testing.T) {
	reg := New(seeds(), nil)

	for i := 1; i <= 3; i++ {
		reader, err := reg.Increment("Marceline")
		if err != nil {
			t.Fatalf("increment: %v", err)
		}
		if reader.ReadCount != i {
			t.Fatalf("expected count %d, got %d", i, reader.ReadCount)
		}
	}

	bellamy, err := reg.Get("Bellamy")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if bellamy.ReadCount != 0 {
		t.Fatalf("other reader changed: %+v", bellamy)
	}
}

func TestUnknownReader(t *testing.T) {
	reg := New(seeds(), nil)

	if _, err := reg.Increment("Nobody"); !errors.Is(err, core.ErrUnknownReader) {
		t.Fatalf("expected ErrUnknownReader, got %v", err)
	}
	if _, err := reg.Get("Nobody"); !errors.Is(err, core.ErrUnknownReader) {
		t.Fatalf("expected ErrUnknownReader, got %v", err)
	}
}

func TestListIsIdempotent(t *testing.T) {
	reg := New(seeds(), map[string]int{"Bellamy": 247, "Marceline": 500})

	first := reg.List()
	second := reg.List()
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("list changed between calls: %+v vs %+v", first, second)
	}
}

func TestListReturnsCopies(t *testing.T) {
	reg := New(seeds(), nil)

	list := reg.List()
	list[0].ReadCount = 99
	*list[0].AvatarRef = "changed"

	reader, _ := reg.Get("Bellamy")
	if reader.ReadCount != 0 {
		t.Fatalf("registry mutated through List copy")
	}
	if reader.AvatarRef == nil || *reader.AvatarRef != "/tmp/bellamy.jpeg" {
		t.Fatalf("registry avatar mutated through List copy: %v", reader.AvatarRef)
	}
}

func TestResyncReplacesCounts(t *testing.T) {
	reg := New(seeds(), map[string]int{"Bellamy": 1, "Marceline": 4})
	if _, err := reg.Increment("Bellamy"); err != nil {
		t.Fatalf("increment: %v", err)
	}

	reg.Resync(map[string]int{"Bellamy": 5, "Ghost": 2})

	got := reg.List()
	if got[0].ReadCount != 5 || got[1].ReadCount != 0 {
		t.Fatalf("unexpected counts after resync: %+v", got)
	}
	if reg.Has("Ghost") {
		t.Fatalf("resync must not add readers")
	}
}
