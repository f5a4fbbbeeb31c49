package resolver

import (
	"context"
	"errors"
	"testing"

	"garagewatch/internal/model"
)

// fakeRepo serves canned entity records.
type fakeRepo struct {
	entities map[int64]*model.EntityRecord
	err      error
}

func (f *fakeRepo) LookupEntity(ctx context.Context, entityID int64) (*model.EntityRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.entities[entityID], nil
}

func (f *fakeRepo) SquadNameForOwner(ctx context.Context, platformID string) (string, error) {
	return "", nil
}

func TestResolveLinked(t *testing.T) {
	r := New(&fakeRepo{entities: map[int64]*model.EntityRecord{
		42: {ID: 42, Class: "Chest", ParentID: 99, ParentClass: "BPC_Rager_ES"},
	}})

	res := r.Resolve(context.Background(), 42)
	if !res.Linked {
		t.Fatal("container with a parent not resolved as linked")
	}
	if res.VehicleID != 99 {
		t.Fatalf("vehicle id = %d, want 99", res.VehicleID)
	}
	if res.Class != "Rager" {
		t.Fatalf("class = %q, want Rager", res.Class)
	}
}

func TestResolveStandalone(t *testing.T) {
	r := New(&fakeRepo{entities: map[int64]*model.EntityRecord{
		42: {ID: 42, Class: "BP_WoodenChest"},
	}})

	res := r.Resolve(context.Background(), 42)
	if res.Linked {
		t.Fatal("container without a parent resolved as linked")
	}
	if res.VehicleID != 42 {
		t.Fatalf("vehicle id = %d, want 42", res.VehicleID)
	}
	if res.Class != "WoodenChest" {
		t.Fatalf("class = %q, want WoodenChest", res.Class)
	}
}

func TestResolveUsesAssetForGenericClass(t *testing.T) {
	r := New(&fakeRepo{entities: map[int64]*model.EntityRecord{
		42: {ID: 42, Class: "Chest", ParentID: 99, ParentClass: "Vehicle", Asset: "BPC_Wolfswagen"},
	}})

	res := r.Resolve(context.Background(), 42)
	if res.Class != "Wolfswagen" {
		t.Fatalf("class = %q, want Wolfswagen", res.Class)
	}
}

func TestResolveDegradesOnError(t *testing.T) {
	r := New(&fakeRepo{err: errors.New("store unreachable")})

	res := r.Resolve(context.Background(), 42)
	if res.Linked {
		t.Fatal("degraded resolution must be standalone")
	}
	if res.VehicleID != 42 {
		t.Fatalf("vehicle id = %d, want raw id 42", res.VehicleID)
	}
	if res.Class == "" {
		t.Fatal("degraded resolution has empty class")
	}
}

func TestResolveDegradesOnMissingRow(t *testing.T) {
	r := New(&fakeRepo{entities: map[int64]*model.EntityRecord{}})

	res := r.Resolve(context.Background(), 7)
	if res.Linked || res.VehicleID != 7 {
		t.Fatalf("missing row resolution = %+v, want standalone on raw id", res)
	}
}

func TestResolveNilRepo(t *testing.T) {
	r := New(nil)

	res := r.Resolve(context.Background(), 7)
	if res.Linked || res.VehicleID != 7 {
		t.Fatalf("nil-repo resolution = %+v, want standalone on raw id", res)
	}
}

func TestNormalizeClass(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"BPC_Rager_ES", "Rager"},
		{"BP_Wolfswagen", "Wolfswagen"},
		{"BPC_Dirtbike", "Dirtbike"},
		{"BPC_Laika_Improvised", "Laika Improvised"},
		{"SM_Boat_01", "Boat"},
		{"Rager", "Rager"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := NormalizeClass(tt.in); got != tt.want {
			t.Errorf("NormalizeClass(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
