package storage

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Bhuvaneshwar-bit/Strat-MU-FinAgent-sub001/internal/common"
	"github.com/Bhuvaneshwar-bit/Strat-MU-FinAgent-sub001/internal/model"
)

// Helper function to create test storage.
func createTestStorage(t *testing.T) (*SQLiteStorage, func()) {
	t.Helper()
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	store, err := NewSQLiteStorage(dbPath)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		t.Fatalf("Failed to migrate: %v", err)
	}

	return store, func() { _ = store.Close() }
}

func testDate(day int) time.Time {
	return time.Date(2024, time.January, day, 0, 0, 0, 0, time.UTC)
}

func TestSQLiteStorage_Migrations(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "nested", "test.db")
	ctx := context.Background()

	store1, err := NewSQLiteStorage(dbPath)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	if err := store1.Migrate(ctx); err != nil {
		t.Fatalf("Initial migration failed: %v", err)
	}
	_ = store1.Close()

	// Running migrations again must be a no-op.
	store2, err := NewSQLiteStorage(dbPath)
	if err != nil {
		t.Fatalf("Failed to reopen storage: %v", err)
	}
	defer func() { _ = store2.Close() }()

	if err := store2.Migrate(ctx); err != nil {
		t.Fatalf("Repeated migration failed: %v", err)
	}
	version, err := store2.SchemaVersion(ctx)
	if err != nil {
		t.Fatalf("SchemaVersion() error = %v", err)
	}
	if version != ExpectedSchemaVersion {
		t.Errorf("schema version = %d, want %d", version, ExpectedSchemaVersion)
	}
}

func TestNewSQLiteStorage_EmptyPath(t *testing.T) {
	if _, err := NewSQLiteStorage("  "); !errors.Is(err, ErrEmptyString) {
		t.Errorf("NewSQLiteStorage() error = %v, want ErrEmptyString", err)
	}
}

func TestSQLiteStorage_Rules(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	rule := &model.CategoryRule{
		UserID:               "user-1",
		EntityNameNormalized: "acme traders",
		Category:             "Sales Revenue",
		Type:                 model.CategoryTypeRevenue,
	}
	if err := store.UpsertRule(ctx, rule); err != nil {
		t.Fatalf("UpsertRule() error = %v", err)
	}
	if rule.ID == 0 {
		t.Error("UpsertRule() did not assign an ID")
	}

	if err := store.IncrementRuleUsage(ctx, "user-1", "acme traders"); err != nil {
		t.Fatalf("IncrementRuleUsage() error = %v", err)
	}

	// Replacing the rule keeps its identity and usage count.
	replacement := &model.CategoryRule{
		UserID:               "user-1",
		EntityNameNormalized: "acme traders",
		Category:             "Consulting Income",
		Type:                 model.CategoryTypeRevenue,
	}
	if err := store.UpsertRule(ctx, replacement); err != nil {
		t.Fatalf("UpsertRule() replace error = %v", err)
	}
	if replacement.ID != rule.ID {
		t.Errorf("replacement ID = %d, want %d", replacement.ID, rule.ID)
	}
	if replacement.TimesApplied != 1 {
		t.Errorf("TimesApplied = %d, want 1", replacement.TimesApplied)
	}

	second := &model.CategoryRule{
		UserID:               "user-1",
		EntityNameNormalized: "city power",
		Category:             "Utilities",
		Type:                 model.CategoryTypeExpense,
	}
	if err := store.UpsertRule(ctx, second); err != nil {
		t.Fatalf("UpsertRule() error = %v", err)
	}

	rules, err := store.GetRules(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetRules() error = %v", err)
	}
	if len(rules) != 2 {
		t.Fatalf("GetRules() returned %d rules, want 2", len(rules))
	}
	if rules[0].EntityNameNormalized != "acme traders" || rules[0].Category != "Consulting Income" {
		t.Errorf("first rule = %+v", rules[0])
	}

	others, err := store.GetRules(ctx, "user-2")
	if err != nil {
		t.Fatalf("GetRules() error = %v", err)
	}
	if len(others) != 0 {
		t.Errorf("rules leaked across users: %+v", others)
	}

	if err := store.DeleteRule(ctx, "user-1", "city power"); err != nil {
		t.Fatalf("DeleteRule() error = %v", err)
	}
	if err := store.DeleteRule(ctx, "user-1", "city power"); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("DeleteRule() twice error = %v, want ErrNotFound", err)
	}
	if err := store.IncrementRuleUsage(ctx, "user-1", "missing"); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("IncrementRuleUsage() error = %v, want ErrNotFound", err)
	}
}

func TestSQLiteStorage_UpsertRuleValidation(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	tests := []struct {
		rule *model.CategoryRule
		name string
	}{
		{name: "nil rule", rule: nil},
		{name: "missing user", rule: &model.CategoryRule{EntityNameNormalized: "x y z", Category: "Rent & Lease", Type: model.CategoryTypeExpense}},
		{name: "missing entity", rule: &model.CategoryRule{UserID: "u", Category: "Rent & Lease", Type: model.CategoryTypeExpense}},
		{name: "bad type", rule: &model.CategoryRule{UserID: "u", EntityNameNormalized: "landlord", Category: "Rent & Lease", Type: "asset"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := store.UpsertRule(ctx, tt.rule); err == nil {
				t.Error("UpsertRule() expected error")
			}
		})
	}
}

func TestSQLiteStorage_Accounts(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	chart, err := store.GetChart(ctx)
	if err != nil {
		t.Fatalf("GetChart() error = %v", err)
	}
	if len(chart.All()) != 0 {
		t.Errorf("fresh database has %d accounts", len(chart.All()))
	}

	accounts := []model.Account{
		{Code: "1000", Name: "Cash/Operating Account", Type: model.AccountTypeAsset},
		{Code: "4000", Name: "Sales Revenue", Type: model.AccountTypeRevenue},
		{Code: "5000", Name: "Salaries & Wages", Type: model.AccountTypeExpense, Balance: decimal.NewFromInt(25)},
	}
	if err := store.SaveAccounts(ctx, accounts); err != nil {
		t.Fatalf("SaveAccounts() error = %v", err)
	}

	// Saving an existing account again leaves the stored row untouched.
	if err := store.SaveAccounts(ctx, []model.Account{
		{Code: "4000", Name: "sales revenue", Type: model.AccountTypeRevenue},
		{Code: "4010", Name: "Grants", Type: model.AccountTypeRevenue},
	}); err != nil {
		t.Fatalf("SaveAccounts() second batch error = %v", err)
	}

	// A stored code under another name or type fails the batch.
	conflicts := []model.Account{
		{Code: "5000", Name: "Custom Income 9", Type: model.AccountTypeRevenue},
		{Code: "4000", Name: "Renamed", Type: model.AccountTypeRevenue},
	}
	for _, c := range conflicts {
		err := store.SaveAccounts(ctx, []model.Account{{Code: "4020", Name: "Royalties", Type: model.AccountTypeRevenue}, c})
		if !errors.Is(err, common.ErrDuplicateEntry) {
			t.Errorf("SaveAccounts(%s %q) error = %v, want ErrDuplicateEntry", c.Code, c.Name, err)
		}
	}

	chart, err = store.GetChart(ctx)
	if err != nil {
		t.Fatalf("GetChart() error = %v", err)
	}
	if got := len(chart.All()); got != 4 {
		t.Errorf("chart has %d accounts, want 4", got)
	}
	sales, ok := chart.FindByCode("4000")
	if !ok || sales.Name != "Sales Revenue" {
		t.Errorf("account 4000 = %+v, want Sales Revenue", sales)
	}
	salaries, _ := chart.FindByName(model.AccountTypeExpense, "salaries & wages")
	if !salaries.Balance.Equal(decimal.NewFromInt(25)) {
		t.Errorf("balance = %s, want 25", salaries.Balance)
	}

	err = store.SaveAccounts(ctx, []model.Account{{Code: "9999", Name: "Bad", Type: "other"}})
	if !errors.Is(err, ErrInvalidAccount) {
		t.Errorf("SaveAccounts() error = %v, want ErrInvalidAccount", err)
	}
}

func TestSQLiteStorage_ConcurrentAccess(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func(id int) {
			defer wg.Done()
			rule := &model.CategoryRule{
				UserID:               "user-1",
				EntityNameNormalized: "vendor " + string(rune('a'+id)),
				Category:             "Office Supplies",
				Type:                 model.CategoryTypeExpense,
			}
			if err := store.UpsertRule(ctx, rule); err != nil {
				errs <- err
			}
		}(i)
		go func() {
			defer wg.Done()
			if _, err := store.GetRules(ctx, "user-1"); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent operation failed: %v", err)
	}

	rules, err := store.GetRules(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetRules() error = %v", err)
	}
	if len(rules) != 10 {
		t.Errorf("GetRules() returned %d rules, want 10", len(rules))
	}
}
