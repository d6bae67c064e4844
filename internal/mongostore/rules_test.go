package mongostore_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Bhuvaneshwar-bit/Strat-MU-FinAgent-sub001/internal/common"
	"github.com/Bhuvaneshwar-bit/Strat-MU-FinAgent-sub001/internal/model"
	"github.com/Bhuvaneshwar-bit/Strat-MU-FinAgent-sub001/internal/mongostore"
)

// Mock for DataStore interface.
type mockDataStore struct {
	findFunc      func(ctx context.Context, filter any, opts ...*options.FindOptions) (*mongo.Cursor, error)
	findOneFunc   func(ctx context.Context, filter, update any, opts ...*options.FindOneAndUpdateOptions) *mongo.SingleResult
	updateOneFunc func(ctx context.Context, filter, update any, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
	deleteOneFunc func(ctx context.Context, filter any, opts ...*options.DeleteOptions) (*mongo.DeleteResult, error)
	indexes       []mongo.IndexModel
}

func (m *mockDataStore) Find(ctx context.Context, filter any, opts ...*options.FindOptions) (*mongo.Cursor, error) {
	if m.findFunc != nil {
		return m.findFunc(ctx, filter, opts...)
	}
	return mongo.NewCursorFromDocuments(nil, nil, nil)
}

func (m *mockDataStore) FindOneAndUpdate(ctx context.Context, filter, update any, opts ...*options.FindOneAndUpdateOptions) *mongo.SingleResult {
	return m.findOneFunc(ctx, filter, update, opts...)
}

func (m *mockDataStore) UpdateOne(ctx context.Context, filter, update any, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	return m.updateOneFunc(ctx, filter, update, opts...)
}

func (m *mockDataStore) DeleteOne(ctx context.Context, filter any, opts ...*options.DeleteOptions) (*mongo.DeleteResult, error) {
	return m.deleteOneFunc(ctx, filter, opts...)
}

func (m *mockDataStore) CreateIndex(_ context.Context, index mongo.IndexModel) (string, error) {
	m.indexes = append(m.indexes, index)
	return "user_entity_unique", nil
}

type mockProvider struct {
	store *mockDataStore
	names []string
}

func (p *mockProvider) Collection(name string) mongostore.DataStore {
	p.names = append(p.names, name)
	return p.store
}

func TestRuleStore_EnsureIndexes(t *testing.T) {
	ds := &mockDataStore{}
	store := mongostore.NewRuleStore(&mockProvider{store: ds})

	require.NoError(t, store.EnsureIndexes(context.Background()))
	require.Len(t, ds.indexes, 1)
	assert.True(t, *ds.indexes[0].Options.Unique)
	assert.Equal(t, bson.D{{Key: "user_id", Value: 1}, {Key: "entity_name_normalized", Value: 1}}, ds.indexes[0].Keys)
}

func TestRuleStore_GetRules(t *testing.T) {
	created := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	ds := &mockDataStore{
		findFunc: func(_ context.Context, filter any, opts ...*options.FindOptions) (*mongo.Cursor, error) {
			assert.Equal(t, bson.D{{Key: "user_id", Value: "user-1"}}, filter)
			require.Len(t, opts, 1)
			return mongo.NewCursorFromDocuments([]any{
				bson.D{
					{Key: "user_id", Value: "user-1"},
					{Key: "entity_name_normalized", Value: "acme traders"},
					{Key: "category", Value: "Consulting Income"},
					{Key: "type", Value: "revenue"},
					{Key: "times_applied", Value: 3},
					{Key: "created_at", Value: created},
					{Key: "updated_at", Value: created},
				},
			}, nil, nil)
		},
	}
	provider := &mockProvider{store: ds}
	store := mongostore.NewRuleStore(provider)

	rules, err := store.GetRules(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, "acme traders", rules[0].EntityNameNormalized)
	assert.Equal(t, model.CategoryTypeRevenue, rules[0].Type)
	assert.Equal(t, 3, rules[0].TimesApplied)
	assert.Equal(t, []string{mongostore.RulesCollection}, provider.names)

	_, err = store.GetRules(context.Background(), "")
	assert.ErrorIs(t, err, common.ErrMissingConfig)
}

func TestRuleStore_UpsertRule(t *testing.T) {
	created := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	ds := &mockDataStore{
		findOneFunc: func(_ context.Context, filter, update any, opts ...*options.FindOneAndUpdateOptions) *mongo.SingleResult {
			assert.Equal(t, bson.D{
				{Key: "user_id", Value: "user-1"},
				{Key: "entity_name_normalized", Value: "acme traders"},
			}, filter)
			require.Len(t, opts, 1)
			assert.True(t, *opts[0].Upsert)
			assert.Equal(t, options.After, *opts[0].ReturnDocument)

			set := update.(bson.D)[0].Value.(bson.D)
			assert.Equal(t, "Consulting Income", set[0].Value)

			return mongo.NewSingleResultFromDocument(bson.D{
				{Key: "user_id", Value: "user-1"},
				{Key: "entity_name_normalized", Value: "acme traders"},
				{Key: "category", Value: "Consulting Income"},
				{Key: "type", Value: "revenue"},
				{Key: "times_applied", Value: 4},
				{Key: "created_at", Value: created},
				{Key: "updated_at", Value: created},
			}, nil, nil)
		},
	}
	store := mongostore.NewRuleStore(&mockProvider{store: ds})

	rule := &model.CategoryRule{
		UserID:               "user-1",
		EntityNameNormalized: "acme traders",
		Category:             "Consulting Income",
		Type:                 model.CategoryTypeRevenue,
	}
	require.NoError(t, store.UpsertRule(context.Background(), rule))
	assert.Equal(t, 4, rule.TimesApplied)
	assert.True(t, rule.CreatedAt.Equal(created))

	err := store.UpsertRule(context.Background(), &model.CategoryRule{UserID: "user-1"})
	assert.ErrorIs(t, err, common.ErrInvalidConfig)
}

func TestRuleStore_UpsertRuleError(t *testing.T) {
	ds := &mockDataStore{
		findOneFunc: func(context.Context, any, any, ...*options.FindOneAndUpdateOptions) *mongo.SingleResult {
			return mongo.NewSingleResultFromDocument(bson.D{}, errors.New("duplicate key"), nil)
		},
	}
	store := mongostore.NewRuleStore(&mockProvider{store: ds})

	err := store.UpsertRule(context.Background(), &model.CategoryRule{
		UserID: "u", EntityNameNormalized: "landlord", Category: "Rent & Lease", Type: model.CategoryTypeExpense,
	})
	assert.ErrorContains(t, err, "duplicate key")
}

func TestRuleStore_IncrementAndDelete(t *testing.T) {
	tests := []struct {
		wantErr  error
		name     string
		matched  int64
		deleted  int64
		writeErr error
	}{
		{name: "existing rule", matched: 1, deleted: 1},
		{name: "missing rule", wantErr: common.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds := &mockDataStore{
				updateOneFunc: func(_ context.Context, _, update any, _ ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
					inc := update.(bson.D)[0]
					assert.Equal(t, "$inc", inc.Key)
					return &mongo.UpdateResult{MatchedCount: tt.matched, ModifiedCount: tt.matched}, nil
				},
				deleteOneFunc: func(context.Context, any, ...*options.DeleteOptions) (*mongo.DeleteResult, error) {
					return &mongo.DeleteResult{DeletedCount: tt.deleted}, nil
				},
			}
			store := mongostore.NewRuleStore(&mockProvider{store: ds})

			incErr := store.IncrementRuleUsage(context.Background(), "user-1", "acme traders")
			delErr := store.DeleteRule(context.Background(), "user-1", "acme traders")
			if tt.wantErr == nil {
				assert.NoError(t, incErr)
				assert.NoError(t, delErr)
				return
			}
			assert.ErrorIs(t, incErr, tt.wantErr)
			assert.ErrorIs(t, delErr, tt.wantErr)
		})
	}
}
