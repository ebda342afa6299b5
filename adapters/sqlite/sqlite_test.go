package sqlite_test

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/Heht571/LLMRouter/adapters/sqlite"
	"github.com/Heht571/LLMRouter/domain/service"
	"github.com/Heht571/LLMRouter/domain/subscription"
	"github.com/Heht571/LLMRouter/domain/usage"
	"github.com/Heht571/LLMRouter/ports"
)

func setupTestDB(t *testing.T) (*sqlite.DB, func()) {
	t.Helper()

	f, err := os.CreateTemp("", "llmrouter-test-*.db")
	if err != nil {
		t.Fatalf("create temp file: %v", err)
	}
	path := f.Name()
	f.Close()

	db, err := sqlite.Open(path)
	if err != nil {
		os.Remove(path)
		t.Fatalf("open database: %v", err)
	}

	if err := db.Migrate(); err != nil {
		db.Close()
		os.Remove(path)
		t.Fatalf("migrate: %v", err)
	}

	cleanup := func() {
		db.Close()
		os.Remove(path)
	}

	return db, cleanup
}

var storeTime = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

// seedAccounts satisfies the foreign keys on services and subscriptions.
func seedAccounts(t *testing.T, db *sqlite.DB, ids ...string) {
	t.Helper()
	store := sqlite.NewAccountStore(db)
	for _, id := range ids {
		a := testAccount(id, id)
		if strings.HasPrefix(id, "buyer") {
			a.Role = ports.RoleBuyer
		}
		if err := store.Create(context.Background(), a); err != nil {
			t.Fatalf("seed account %s: %v", id, err)
		}
	}
}

// -----------------------------------------------------------------------------
// AccountStore Tests
// -----------------------------------------------------------------------------

func testAccount(id, username string) ports.Account {
	return ports.Account{
		ID:           id,
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: []byte("$2a$10$fakehash"),
		Role:         ports.RoleSeller,
		CreatedAt:    storeTime,
		UpdatedAt:    storeTime,
	}
}

func TestAccountStore_CreateAndGet(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	store := sqlite.NewAccountStore(db)
	ctx := context.Background()

	a := testAccount("acc-1", "alice")
	if err := store.Create(ctx, a); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := store.Get(ctx, "acc-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Username != "alice" || got.Role != ports.RoleSeller {
		t.Errorf("got = %+v", got)
	}
	if string(got.PasswordHash) != string(a.PasswordHash) {
		t.Errorf("PasswordHash = %q", got.PasswordHash)
	}

	byName, err := store.GetByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("get by username: %v", err)
	}
	if byName.ID != "acc-1" {
		t.Errorf("ID = %q", byName.ID)
	}
}

func TestAccountStore_NotFound(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	store := sqlite.NewAccountStore(db)

	if _, err := store.Get(context.Background(), "missing"); !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("Get: err = %v, want ErrNotFound", err)
	}
	if _, err := store.GetByUsername(context.Background(), "missing"); !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("GetByUsername: err = %v, want ErrNotFound", err)
	}
}

func TestAccountStore_DuplicateUsername(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	store := sqlite.NewAccountStore(db)
	ctx := context.Background()

	if err := store.Create(ctx, testAccount("acc-1", "alice")); err != nil {
		t.Fatalf("create: %v", err)
	}
	err := store.Create(ctx, testAccount("acc-2", "alice"))
	if !errors.Is(err, ports.ErrDuplicate) {
		t.Errorf("err = %v, want ErrDuplicate", err)
	}
}

func TestAccountStore_UpdatePassword(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	store := sqlite.NewAccountStore(db)
	ctx := context.Background()

	if err := store.Create(ctx, testAccount("acc-1", "alice")); err != nil {
		t.Fatalf("create: %v", err)
	}
	newHash := []byte("$2a$10$newhash")
	if err := store.UpdatePassword(ctx, "acc-1", newHash, storeTime.Add(time.Hour)); err != nil {
		t.Fatalf("update password: %v", err)
	}

	got, err := store.Get(ctx, "acc-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got.PasswordHash) != string(newHash) {
		t.Errorf("PasswordHash = %q, want updated hash", got.PasswordHash)
	}

	if err := store.UpdatePassword(ctx, "missing", newHash, storeTime); !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("missing: err = %v, want ErrNotFound", err)
	}
}

// -----------------------------------------------------------------------------
// ServiceStore Tests
// -----------------------------------------------------------------------------

func testService(id, sellerID, prefix string) service.Service {
	return service.Service{
		ID:            id,
		SellerID:      sellerID,
		Name:          "GPT Relay",
		Description:   "desc",
		Category:      "chat",
		EndpointURL:   "https://api.openai.com/v1",
		EncryptedKey:  []byte{0x01, 0x02, 0x03},
		ProxyPrefix:   prefix,
		PricingModel:  service.PricePerToken,
		PricePerToken: 0.0001,
		Active:        true,
		CreatedAt:     storeTime,
		UpdatedAt:     storeTime,
	}
}

func TestServiceStore_CreateAndGet(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	seedAccounts(t, db, "seller-1")

	store := sqlite.NewServiceStore(db)
	ctx := context.Background()

	svc := testService("svc-1", "seller-1", "/api/v1/proxy/abc-gpt")
	if err := store.Create(ctx, svc); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := store.Get(ctx, "svc-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != svc.Name || got.ProxyPrefix != svc.ProxyPrefix {
		t.Errorf("got = %+v", got)
	}
	if got.PricingModel != service.PricePerToken || got.PricePerToken != 0.0001 {
		t.Errorf("pricing = %q/%v", got.PricingModel, got.PricePerToken)
	}
	if len(got.EncryptedKey) != 3 {
		t.Errorf("EncryptedKey = %v", got.EncryptedKey)
	}
	if !got.Active {
		t.Error("Active = false")
	}
}

func TestServiceStore_Update(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	seedAccounts(t, db, "seller-1")

	store := sqlite.NewServiceStore(db)
	ctx := context.Background()

	svc := testService("svc-1", "seller-1", "/api/v1/proxy/abc-gpt")
	if err := store.Create(ctx, svc); err != nil {
		t.Fatalf("create: %v", err)
	}

	svc.Name = "Renamed"
	svc.Active = false
	if err := store.Update(ctx, svc); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := store.Get(ctx, "svc-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "Renamed" || got.Active {
		t.Errorf("got = %+v", got)
	}

	missing := testService("nope", "seller-1", "/api/v1/proxy/x")
	if err := store.Update(ctx, missing); !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("missing: err = %v, want ErrNotFound", err)
	}
}

func TestServiceStore_Listing(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	seedAccounts(t, db, "seller-1", "seller-2")

	store := sqlite.NewServiceStore(db)
	ctx := context.Background()

	s1 := testService("svc-1", "seller-1", "/api/v1/proxy/a")
	s2 := testService("svc-2", "seller-1", "/api/v1/proxy/b")
	s2.Active = false
	s3 := testService("svc-3", "seller-2", "/api/v1/proxy/c")
	for _, s := range []service.Service{s1, s2, s3} {
		if err := store.Create(ctx, s); err != nil {
			t.Fatalf("create %s: %v", s.ID, err)
		}
	}

	mine, err := store.ListBySeller(ctx, "seller-1")
	if err != nil {
		t.Fatalf("list by seller: %v", err)
	}
	if len(mine) != 2 {
		t.Errorf("len = %d, want 2", len(mine))
	}

	active, err := store.ListActive(ctx)
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(active) != 2 {
		t.Errorf("len = %d, want 2 (inactive excluded)", len(active))
	}
	for _, s := range active {
		if !s.Active {
			t.Errorf("inactive service %s listed", s.ID)
		}
	}
}

func TestServiceStore_DuplicatePrefix(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	seedAccounts(t, db, "seller-1", "seller-2")

	store := sqlite.NewServiceStore(db)
	ctx := context.Background()

	if err := store.Create(ctx, testService("svc-1", "seller-1", "/api/v1/proxy/same")); err != nil {
		t.Fatalf("create: %v", err)
	}
	err := store.Create(ctx, testService("svc-2", "seller-2", "/api/v1/proxy/same"))
	if !errors.Is(err, ports.ErrDuplicate) {
		t.Errorf("err = %v, want ErrDuplicate", err)
	}
}

// -----------------------------------------------------------------------------
// SubscriptionStore Tests
// -----------------------------------------------------------------------------

// seedSubscriptionDeps creates the accounts and service that subscription
// rows reference.
func seedSubscriptionDeps(t *testing.T, db *sqlite.DB) {
	t.Helper()
	seedAccounts(t, db, "seller-1", "buyer-1", "buyer-2")
	store := sqlite.NewServiceStore(db)
	if err := store.Create(context.Background(), testService("svc-1", "seller-1", "/api/v1/proxy/a")); err != nil {
		t.Fatalf("seed service: %v", err)
	}
}

func TestSubscriptionStore_Lifecycle(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	seedSubscriptionDeps(t, db)

	store := sqlite.NewSubscriptionStore(db)
	ctx := context.Background()

	rawKey, sub := subscription.Mint("sub-1", "buyer-1", "svc-1", storeTime)
	if err := store.Create(ctx, sub); err != nil {
		t.Fatalf("create: %v", err)
	}

	candidates, err := store.GetByPrefix(ctx, sub.KeyPrefix)
	if err != nil {
		t.Fatalf("get by prefix: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("len(candidates) = %d, want 1", len(candidates))
	}
	if !subscription.Match(candidates[0], rawKey) {
		t.Error("stored hash does not verify the raw key")
	}

	count, err := store.CountByService(ctx, "svc-1")
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}

	if err := store.Revoke(ctx, "sub-1", storeTime.Add(time.Hour)); err != nil {
		t.Fatalf("revoke: %v", err)
	}

	// Revoked rows still surface via prefix lookup; validity is the
	// domain's call, not the store's.
	candidates, err = store.GetByPrefix(ctx, sub.KeyPrefix)
	if err != nil {
		t.Fatalf("get by prefix after revoke: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("len(candidates) = %d, want 1", len(candidates))
	}
	if candidates[0].RevokedAt == nil {
		t.Error("RevokedAt not persisted")
	}

	// But they leave the buyer's list and the subscriber count
	list, err := store.ListByBuyer(ctx, "buyer-1")
	if err != nil {
		t.Fatalf("list by buyer: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("len(list) = %d after revoke, want 0", len(list))
	}
	count, err = store.CountByService(ctx, "svc-1")
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Errorf("count = %d after revoke, want 0", count)
	}

	// Revoking an already revoked subscription reports not found
	if err := store.Revoke(ctx, "sub-1", storeTime.Add(2*time.Hour)); !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("double revoke: err = %v, want ErrNotFound", err)
	}
}

func TestSubscriptionStore_DuplicateActivePair(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	seedSubscriptionDeps(t, db)

	store := sqlite.NewSubscriptionStore(db)
	ctx := context.Background()

	_, sub1 := subscription.Mint("sub-1", "buyer-1", "svc-1", storeTime)
	if err := store.Create(ctx, sub1); err != nil {
		t.Fatalf("create: %v", err)
	}

	_, sub2 := subscription.Mint("sub-2", "buyer-1", "svc-1", storeTime)
	if err := store.Create(ctx, sub2); !errors.Is(err, ports.ErrDuplicate) {
		t.Errorf("err = %v, want ErrDuplicate", err)
	}

	// After revocation the pair is free again
	if err := store.Revoke(ctx, "sub-1", storeTime.Add(time.Hour)); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	_, sub3 := subscription.Mint("sub-3", "buyer-1", "svc-1", storeTime)
	if err := store.Create(ctx, sub3); err != nil {
		t.Errorf("create after revoke: %v", err)
	}
}

func TestSubscriptionStore_GetActive(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	seedSubscriptionDeps(t, db)

	store := sqlite.NewSubscriptionStore(db)
	ctx := context.Background()

	_, sub := subscription.Mint("sub-1", "buyer-1", "svc-1", storeTime)
	if err := store.Create(ctx, sub); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := store.GetActive(ctx, "buyer-1", "svc-1")
	if err != nil {
		t.Fatalf("get active: %v", err)
	}
	if got.ID != "sub-1" {
		t.Errorf("ID = %q", got.ID)
	}

	if _, err := store.GetActive(ctx, "buyer-2", "svc-1"); !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("other buyer: err = %v, want ErrNotFound", err)
	}
}

// -----------------------------------------------------------------------------
// UsageStore Tests
// -----------------------------------------------------------------------------

func testEvent(id string, ts time.Time, tokens int64, cost float64) usage.Event {
	return usage.Event{
		ID:               id,
		SubscriptionID:   "sub-1",
		BuyerID:          "buyer-1",
		ServiceID:        "svc-1",
		SellerID:         "seller-1",
		Method:           "POST",
		Path:             "/chat/completions",
		StatusCode:       200,
		LatencyMs:        42,
		PromptTokens:     tokens / 2,
		CompletionTokens: tokens - tokens/2,
		TotalTokens:      tokens,
		Model:            "gpt-4o",
		RequestBytes:     100,
		ResponseBytes:    500,
		Cost:             cost,
		Timestamp:        ts,
	}
}

func seedUsageServices(t *testing.T, db *sqlite.DB) {
	t.Helper()
	seedAccounts(t, db, "seller-1")
	store := sqlite.NewServiceStore(db)
	if err := store.Create(context.Background(), testService("svc-1", "seller-1", "/api/v1/proxy/a")); err != nil {
		t.Fatalf("seed service: %v", err)
	}
}

func TestUsageStore_RecordAndStats(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	seedUsageServices(t, db)

	store := sqlite.NewUsageStore(db)
	ctx := context.Background()

	events := []usage.Event{
		testEvent("e1", storeTime, 5000, 0.5),
		testEvent("e2", storeTime.Add(-time.Hour), 1000, 0.1),
	}
	if err := store.RecordBatch(ctx, events); err != nil {
		t.Fatalf("record batch: %v", err)
	}

	since := storeTime.Add(-24 * time.Hour)

	buyerStats, err := store.StatsSince(ctx, "buyer-1", ports.RoleBuyer, since)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if buyerStats.Calls != 2 {
		t.Errorf("Calls = %d, want 2", buyerStats.Calls)
	}
	if buyerStats.TotalTokens != 6000 {
		t.Errorf("TotalTokens = %d, want 6000", buyerStats.TotalTokens)
	}
	if len(buyerStats.ByService) != 1 {
		t.Fatalf("len(ByService) = %d, want 1", len(buyerStats.ByService))
	}
	if buyerStats.ByService[0].ServiceName != "GPT Relay" {
		t.Errorf("ServiceName = %q", buyerStats.ByService[0].ServiceName)
	}

	// The seller view rolls up the same events
	sellerStats, err := store.StatsSince(ctx, "seller-1", ports.RoleSeller, since)
	if err != nil {
		t.Fatalf("seller stats: %v", err)
	}
	if sellerStats.Calls != buyerStats.Calls || sellerStats.Cost != buyerStats.Cost {
		t.Errorf("seller view %+v differs from buyer view %+v", sellerStats, buyerStats)
	}

	// Strangers see nothing
	otherStats, err := store.StatsSince(ctx, "buyer-2", ports.RoleBuyer, since)
	if err != nil {
		t.Fatalf("other stats: %v", err)
	}
	if otherStats.Calls != 0 {
		t.Errorf("stranger Calls = %d, want 0", otherStats.Calls)
	}
}

func TestUsageStore_WindowFilter(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	seedUsageServices(t, db)

	store := sqlite.NewUsageStore(db)
	ctx := context.Background()

	events := []usage.Event{
		testEvent("e1", storeTime, 100, 0.01),
		testEvent("e2", storeTime.AddDate(0, 0, -60), 999, 9.99),
	}
	if err := store.RecordBatch(ctx, events); err != nil {
		t.Fatalf("record batch: %v", err)
	}

	stats, err := store.StatsSince(ctx, "buyer-1", ports.RoleBuyer, storeTime.AddDate(0, 0, -30))
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Calls != 1 {
		t.Errorf("Calls = %d, want 1 (stale event excluded)", stats.Calls)
	}
}

func TestUsageStore_SeriesSince(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	seedUsageServices(t, db)

	store := sqlite.NewUsageStore(db)
	ctx := context.Background()

	events := []usage.Event{
		testEvent("e1", storeTime, 100, 0.01),
		testEvent("e2", storeTime.Add(30*time.Minute), 200, 0.02),
		testEvent("e3", storeTime.AddDate(0, 0, -3), 300, 0.03),
	}
	if err := store.RecordBatch(ctx, events); err != nil {
		t.Fatalf("record batch: %v", err)
	}

	sparse, err := store.SeriesSince(ctx, "buyer-1", ports.RoleBuyer, usage.PeriodDaily, storeTime.AddDate(0, 0, -30))
	if err != nil {
		t.Fatalf("series: %v", err)
	}

	// Bucket labels match the pure Label function, so FillSeries can
	// zero-fill around them.
	today := usage.PeriodDaily.Label(usage.PeriodDaily.BucketStart(storeTime))
	if p, ok := sparse[today]; !ok || p.Calls != 2 || p.TotalTokens != 300 {
		t.Errorf("sparse[%q] = %+v, want 2 calls / 300 tokens", today, sparse[today])
	}

	points := usage.FillSeries(usage.PeriodDaily, storeTime, sparse)
	if len(points) != 30 {
		t.Fatalf("len(points) = %d, want 30", len(points))
	}
	var calls int64
	for _, p := range points {
		calls += p.Calls
	}
	if calls != 3 {
		t.Errorf("series calls = %d, want 3", calls)
	}
}

func TestUsageStore_EventsSince(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	seedUsageServices(t, db)

	store := sqlite.NewUsageStore(db)
	ctx := context.Background()

	events := []usage.Event{
		testEvent("e1", storeTime.Add(-time.Hour), 100, 0.01),
		testEvent("e2", storeTime, 200, 0.02),
	}
	if err := store.RecordBatch(ctx, events); err != nil {
		t.Fatalf("record batch: %v", err)
	}

	got, err := store.EventsSince(ctx, "buyer-1", ports.RoleBuyer, storeTime.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	// Newest first
	if got[0].ID != "e2" || got[1].ID != "e1" {
		t.Errorf("order = %q, %q, want e2, e1", got[0].ID, got[1].ID)
	}
	if got[0].Model != "gpt-4o" || got[0].TotalTokens != 200 {
		t.Errorf("got[0] = %+v", got[0])
	}
}

// -----------------------------------------------------------------------------
// DocumentationStore Tests
// -----------------------------------------------------------------------------

func testDocumentation(serviceID string) service.Documentation {
	return service.Documentation{
		ServiceID: serviceID,
		Title:     "GPT Relay Reference",
		Content:   "# Usage",
		Version:   "v1",
		Published: true,
		Endpoints: []service.EndpointDoc{
			{Method: "POST", Path: "/chat/completions", Summary: "Create a completion"},
			{Method: "GET", Path: "/models", Summary: "List models"},
		},
		CreatedAt: storeTime,
		UpdatedAt: storeTime,
	}
}

func TestDocumentationStore_Lifecycle(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	seedAccounts(t, db, "seller-1")
	if err := sqlite.NewServiceStore(db).Create(ctx, testService("svc-1", "seller-1", "/api/v1/proxy/a-x")); err != nil {
		t.Fatalf("create service: %v", err)
	}

	store := sqlite.NewDocumentationStore(db)
	if err := store.Create(ctx, testDocumentation("svc-1")); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.Create(ctx, testDocumentation("svc-1")); !errors.Is(err, ports.ErrDuplicate) {
		t.Errorf("second create: err = %v, want ErrDuplicate", err)
	}

	got, err := store.Get(ctx, "svc-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != "GPT Relay Reference" || !got.Published {
		t.Errorf("got = %+v", got)
	}
	// Endpoints come back in insertion order
	if len(got.Endpoints) != 2 || got.Endpoints[0].Path != "/chat/completions" || got.Endpoints[1].Path != "/models" {
		t.Errorf("endpoints = %+v", got.Endpoints)
	}

	// Update replaces the endpoint set
	d := testDocumentation("svc-1")
	d.Content = "# Updated"
	d.Endpoints = d.Endpoints[:1]
	d.UpdatedAt = storeTime.Add(time.Hour)
	if err := store.Update(ctx, d); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err = store.Get(ctx, "svc-1")
	if err != nil {
		t.Fatalf("get after update: %v", err)
	}
	if got.Content != "# Updated" || len(got.Endpoints) != 1 {
		t.Errorf("after update = %+v", got)
	}

	if err := store.Delete(ctx, "svc-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Get(ctx, "svc-1"); !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("get after delete: err = %v, want ErrNotFound", err)
	}
	if err := store.Delete(ctx, "svc-1"); !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("second delete: err = %v, want ErrNotFound", err)
	}
}

func TestDocumentationStore_UpdateMissing(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	store := sqlite.NewDocumentationStore(db)
	if err := store.Update(context.Background(), testDocumentation("svc-none")); !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestAccountStore_ProfileAndSettings(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	store := sqlite.NewAccountStore(db)
	seedAccounts(t, db, "seller-1")

	if _, err := store.GetProfile(context.Background(), "seller-1"); !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("fresh GetProfile: err = %v, want ErrNotFound", err)
	}
	if _, err := store.GetSettings(context.Background(), "seller-1"); !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("fresh GetSettings: err = %v, want ErrNotFound", err)
	}

	profile := ports.Profile{
		AccountID:   "seller-1",
		DisplayName: "Alice Wu",
		Company:     "Acme AI",
		Website:     "https://acme.example.com",
		Timezone:    "UTC",
		UpdatedAt:   storeTime,
	}
	if err := store.SaveProfile(context.Background(), profile); err != nil {
		t.Fatalf("SaveProfile: %v", err)
	}
	got, err := store.GetProfile(context.Background(), "seller-1")
	if err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if got.DisplayName != "Alice Wu" || got.Company != "Acme AI" {
		t.Errorf("profile = %+v", got)
	}

	// Saving again replaces the row
	profile.Bio = "LLM infrastructure"
	profile.UpdatedAt = storeTime.Add(time.Hour)
	if err := store.SaveProfile(context.Background(), profile); err != nil {
		t.Fatalf("second SaveProfile: %v", err)
	}
	got, err = store.GetProfile(context.Background(), "seller-1")
	if err != nil {
		t.Fatalf("GetProfile after update: %v", err)
	}
	if got.Bio != "LLM infrastructure" || !got.UpdatedAt.Equal(storeTime.Add(time.Hour)) {
		t.Errorf("updated profile = %+v", got)
	}

	settings := ports.Settings{
		AccountID:          "seller-1",
		Language:           "en",
		Theme:              "dark",
		Currency:           "USD",
		EmailNotifications: true,
		UsageAlerts:        true,
		SecurityAlerts:     true,
		UpdatedAt:          storeTime,
	}
	if err := store.SaveSettings(context.Background(), settings); err != nil {
		t.Fatalf("SaveSettings: %v", err)
	}
	gotSettings, err := store.GetSettings(context.Background(), "seller-1")
	if err != nil {
		t.Fatalf("GetSettings: %v", err)
	}
	if gotSettings.Theme != "dark" || !gotSettings.EmailNotifications || gotSettings.MarketingEmails {
		t.Errorf("settings = %+v", gotSettings)
	}

	settings.MarketingEmails = true
	if err := store.SaveSettings(context.Background(), settings); err != nil {
		t.Fatalf("second SaveSettings: %v", err)
	}
	gotSettings, err = store.GetSettings(context.Background(), "seller-1")
	if err != nil {
		t.Fatalf("GetSettings after update: %v", err)
	}
	if !gotSettings.MarketingEmails {
		t.Error("MarketingEmails not persisted")
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	// setupTestDB already migrated once; a second run is a no-op
	if err := db.Migrate(); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}

	var applied int
	if err := db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&applied); err != nil {
		t.Fatalf("count migrations: %v", err)
	}
	if applied != 3 {
		t.Errorf("applied migrations = %d, want 3", applied)
	}
}
