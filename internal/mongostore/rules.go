package mongostore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Bhuvaneshwar-bit/Strat-MU-FinAgent-sub001/internal/common"
	"github.com/Bhuvaneshwar-bit/Strat-MU-FinAgent-sub001/internal/model"
	"github.com/Bhuvaneshwar-bit/Strat-MU-FinAgent-sub001/internal/service"
)

// RulesCollection is the collection holding category rules.
const RulesCollection = "category_rules"

var _ service.RuleStore = (*RuleStore)(nil)

type ruleDocument struct {
	CreatedAt    time.Time `bson:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at"`
	UserID       string    `bson:"user_id"`
	Entity       string    `bson:"entity_name_normalized"`
	Category     string    `bson:"category"`
	Type         string    `bson:"type"`
	TimesApplied int       `bson:"times_applied"`
}

func (d ruleDocument) toModel() model.CategoryRule {
	return model.CategoryRule{
		CreatedAt:            d.CreatedAt,
		UpdatedAt:            d.UpdatedAt,
		UserID:               d.UserID,
		EntityNameNormalized: d.Entity,
		Category:             d.Category,
		Type:                 model.CategoryType(d.Type),
		TimesApplied:         d.TimesApplied,
	}
}

// RuleStore implements service.RuleStore on a MongoDB collection.
type RuleStore struct {
	provider CollectionProvider
	now      func() time.Time
}

// NewRuleStore creates a rule store backed by provider.
func NewRuleStore(provider CollectionProvider) *RuleStore {
	return &RuleStore{provider: provider, now: func() time.Time { return time.Now().UTC() }}
}

func (r *RuleStore) rules() DataStore {
	return r.provider.Collection(RulesCollection)
}

// EnsureIndexes creates the unique (user, entity) index that makes upserts atomic.
func (r *RuleStore) EnsureIndexes(ctx context.Context) error {
	_, err := r.rules().CreateIndex(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "entity_name_normalized", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("user_entity_unique"),
	})
	if err != nil {
		return fmt.Errorf("failed to ensure rule indexes: %w", err)
	}
	return nil
}

func ruleKey(userID, entity string) bson.D {
	return bson.D{{Key: "user_id", Value: userID}, {Key: "entity_name_normalized", Value: entity}}
}

// GetRules returns a user's rules in creation order.
func (r *RuleStore) GetRules(ctx context.Context, userID string) ([]model.CategoryRule, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: user ID", common.ErrMissingConfig)
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.rules().Find(ctx, bson.D{{Key: "user_id", Value: userID}}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find rules: %w", err)
	}

	var docs []ruleDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode rules: %w", err)
	}

	rules := make([]model.CategoryRule, 0, len(docs))
	for _, d := range docs {
		rules = append(rules, d.toModel())
	}
	return rules, nil
}

// UpsertRule creates or replaces the rule for (user, entity) in one round trip.
func (r *RuleStore) UpsertRule(ctx context.Context, rule *model.CategoryRule) error {
	if rule == nil || rule.UserID == "" || rule.EntityNameNormalized == "" || rule.Category == "" || !rule.Type.Valid() {
		return fmt.Errorf("%w: incomplete category rule", common.ErrInvalidConfig)
	}

	now := r.now()
	update := bson.D{
		{Key: "$set", Value: bson.D{
			{Key: "category", Value: rule.Category},
			{Key: "type", Value: string(rule.Type)},
			{Key: "updated_at", Value: now},
		}},
		{Key: "$setOnInsert", Value: bson.D{
			{Key: "created_at", Value: now},
			{Key: "times_applied", Value: 0},
		}},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var doc ruleDocument
	err := r.rules().FindOneAndUpdate(ctx, ruleKey(rule.UserID, rule.EntityNameNormalized), update, opts).Decode(&doc)
	if err != nil {
		return fmt.Errorf("failed to upsert rule %q: %w", rule.EntityNameNormalized, err)
	}

	saved := doc.toModel()
	rule.CreatedAt = saved.CreatedAt
	rule.UpdatedAt = saved.UpdatedAt
	rule.TimesApplied = saved.TimesApplied
	return nil
}

// IncrementRuleUsage atomically bumps the usage counter of a rule.
func (r *RuleStore) IncrementRuleUsage(ctx context.Context, userID, entity string) error {
	update := bson.D{
		{Key: "$inc", Value: bson.D{{Key: "times_applied", Value: 1}}},
		{Key: "$set", Value: bson.D{{Key: "updated_at", Value: r.now()}}},
	}
	result, err := r.rules().UpdateOne(ctx, ruleKey(userID, entity), update)
	if err != nil {
		return fmt.Errorf("failed to increment rule usage: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("rule %q: %w", entity, common.ErrNotFound)
	}
	return nil
}

// DeleteRule removes the rule for (user, entity).
func (r *RuleStore) DeleteRule(ctx context.Context, userID, entity string) error {
	result, err := r.rules().DeleteOne(ctx, ruleKey(userID, entity))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return fmt.Errorf("rule %q: %w", entity, common.ErrNotFound)
		}
		return fmt.Errorf("failed to delete rule: %w", err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("rule %q: %w", entity, common.ErrNotFound)
	}
	return nil
}
