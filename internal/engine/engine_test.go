package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"garagewatch/internal/gamelog"
	"garagewatch/internal/ledger"
	"garagewatch/internal/model"
	"garagewatch/internal/notify"
	"garagewatch/internal/reconciler"
	"garagewatch/internal/registry"
	"garagewatch/internal/resolver"
	"garagewatch/internal/store"
)

// fakeRepo serves canned entity rows for resolution.
type fakeRepo struct {
	entities map[int64]*model.EntityRecord
	squads   map[string]string
}

func (f *fakeRepo) LookupEntity(ctx context.Context, entityID int64) (*model.EntityRecord, error) {
	return f.entities[entityID], nil
}

func (f *fakeRepo) SquadNameForOwner(ctx context.Context, platformID string) (string, error) {
	return f.squads[platformID], nil
}

// gateChannel can be made to block inside Publish, to hold a tick in
// flight from a test.
type gateChannel struct {
	mu       sync.Mutex
	messages map[string]string
	nextID   int
	publishN int
	editN    int
	gate     chan struct{}
	entered  chan struct{}
}

func newGateChannel() *gateChannel {
	return &gateChannel{messages: make(map[string]string)}
}

func (c *gateChannel) Publish(ctx context.Context, text string) (string, error) {
	if c.entered != nil {
		close(c.entered)
		c.entered = nil
	}
	if g := c.gate; g != nil {
		<-g
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	c.publishN++
	id := fmt.Sprintf("m%d", c.nextID)
	c.messages[id] = text
	return id, nil
}

func (c *gateChannel) Edit(ctx context.Context, messageID, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.editN++
	if _, ok := c.messages[messageID]; !ok {
		return notify.ErrNotFound
	}
	c.messages[messageID] = text
	return nil
}

type allowAll struct{}

func (allowAll) Allow(ctx context.Context, platformID string) bool { return true }

type fixture struct {
	engine  *Engine
	logDir  string
	channel *gateChannel
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	logDir := t.TempDir()
	factory := store.NewJSONFileFactory(t.TempDir())

	open := func(name string) store.Store {
		st, err := factory.Open(name)
		if err != nil {
			t.Fatal(err)
		}
		return st
	}

	led, err := ledger.Load(ctx, open("dedup"))
	if err != nil {
		t.Fatal(err)
	}
	reg, err := registry.Load(ctx, open("registry"))
	if err != nil {
		t.Fatal(err)
	}
	channel := newGateChannel()
	synchronizer, err := notify.LoadSynchronizer(ctx, channel, open("bindings"))
	if err != nil {
		t.Fatal(err)
	}
	rec, err := reconciler.Load(ctx, reg, open("pending"), allowAll{}, channel, time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	repo := &fakeRepo{
		entities: map[int64]*model.EntityRecord{
			42: {ID: 42, Class: "Chest", ParentID: 99, ParentClass: "BPC_Rager_ES"},
			99: {ID: 99, Class: "BPC_Rager_ES"},
		},
		squads: map[string]string{"1100000000000001": "Bandidos"},
	}

	eng := New(Config{
		Reader:       gamelog.NewReader(logDir, "chest_ownership_", ".log", t.TempDir()),
		Resolver:     resolver.New(repo),
		Ledger:       led,
		Reconciler:   rec,
		Registry:     reg,
		Synchronizer: synchronizer,
		Repo:         repo,
	})

	return &fixture{engine: eng, logDir: logDir, channel: channel}
}

func (f *fixture) writeLog(t *testing.T, content string) {
	t.Helper()
	path := filepath.Join(f.logDir, "chest_ownership_20250101.log")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

const claimLine = "2025.01.01-10.00.00: Chest (entity id: 42) ownership claimed. Owner: 1100000000000001 (76561199000000001, Pedreiro)\n"

func TestTickRegistersClaimedVehicle(t *testing.T) {
	f := newFixture(t)
	f.writeLog(t, claimLine)

	result, err := f.engine.RunTick(context.Background())
	if err != nil {
		t.Fatalf("RunTick: %v", err)
	}
	if result.EventsProcessed != 1 {
		t.Fatalf("processed = %d, want 1", result.EventsProcessed)
	}
	if result.OwnersSynced != 1 {
		t.Fatalf("synced = %d, want 1", result.OwnersSynced)
	}

	owner, ok := f.engine.Owner("1100000000000001")
	if !ok {
		t.Fatal("owner not created")
	}
	if !owner.HasVehicle(99) {
		t.Fatal("claimed container did not resolve to vehicle 99")
	}
	if owner.Vehicles[0].Class != "Rager" {
		t.Fatalf("class = %q, want Rager", owner.Vehicles[0].Class)
	}
	if owner.SquadName != "Bandidos" {
		t.Fatalf("squad = %q, want Bandidos", owner.SquadName)
	}
	if f.channel.publishN != 1 {
		t.Fatalf("publishes = %d, want 1", f.channel.publishN)
	}
}

func TestTickIdempotentReplay(t *testing.T) {
	f := newFixture(t)
	f.writeLog(t, claimLine)

	if _, err := f.engine.RunTick(context.Background()); err != nil {
		t.Fatal(err)
	}
	result, err := f.engine.RunTick(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if result.EventsProcessed != 0 {
		t.Fatalf("replay processed %d events, want 0", result.EventsProcessed)
	}
	if f.channel.publishN != 1 {
		t.Fatalf("replay created messages: publishes = %d", f.channel.publishN)
	}
	owner, _ := f.engine.Owner("1100000000000001")
	if len(owner.Vehicles) != 1 {
		t.Fatalf("replay changed registry: %d vehicles", len(owner.Vehicles))
	}
}

func TestTickDestructionEditsSummary(t *testing.T) {
	f := newFixture(t)
	f.writeLog(t, claimLine)
	if _, err := f.engine.RunTick(context.Background()); err != nil {
		t.Fatal(err)
	}

	f.writeLog(t, claimLine+
		"2025.01.01-12.00.00: Vehicle (entity id: 99) has been destroyed.\n")
	if _, err := f.engine.RunTick(context.Background()); err != nil {
		t.Fatal(err)
	}

	owner, _ := f.engine.Owner("1100000000000001")
	if len(owner.Vehicles) != 0 {
		t.Fatalf("owner still holds %d vehicles after destruction", len(owner.Vehicles))
	}
	if f.channel.publishN != 1 {
		t.Fatalf("destruction republished instead of editing: publishes = %d", f.channel.publishN)
	}
	if f.channel.editN == 0 {
		t.Fatal("summary was not edited after destruction")
	}
}

func TestTickSkipsWhenBusy(t *testing.T) {
	f := newFixture(t)
	f.writeLog(t, claimLine)

	gate := make(chan struct{})
	entered := make(chan struct{})
	f.channel.gate = gate
	f.channel.entered = entered

	done := make(chan error, 1)
	go func() {
		_, err := f.engine.RunTick(context.Background())
		done <- err
	}()

	// wait for the first tick to reach the blocked publish
	select {
	case <-entered:
	case <-time.After(2 * time.Second):
		t.Fatal("first tick never reached the notification publish")
	}

	if _, err := f.engine.RunTick(context.Background()); !errors.Is(err, ErrBusy) {
		t.Fatalf("overlapping tick returned %v, want ErrBusy", err)
	}

	close(gate)
	if err := <-done; err != nil {
		t.Fatalf("first tick failed: %v", err)
	}
}

func TestTickWithoutLogFile(t *testing.T) {
	f := newFixture(t)

	result, err := f.engine.RunTick(context.Background())
	if err != nil {
		t.Fatalf("RunTick with empty log dir: %v", err)
	}
	if result.EventsExtracted != 0 {
		t.Fatalf("extracted %d events from nothing", result.EventsExtracted)
	}
}

func TestCommandFlowThroughEngine(t *testing.T) {
	f := newFixture(t)

	out := f.engine.HandleCommand(context.Background(), model.Command{
		Action: model.ActionRegister, ClaimantID: "A", ClaimantName: "Alice", VehicleID: 120,
	})
	if out.Code != model.OutcomePendingLink {
		t.Fatalf("unlinked register = %q, want pending_link", out.Code)
	}

	outcomes := f.engine.OnLinked(context.Background(), "A", "ext-1")
	if len(outcomes) != 1 || outcomes[0].Code != model.OutcomeRegistered {
		t.Fatalf("promotion outcomes = %+v", outcomes)
	}
	owner, _ := f.engine.Owner("A")
	if !owner.HasVehicle(120) {
		t.Fatal("vehicle not active after promotion")
	}
}
