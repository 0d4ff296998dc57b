package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/address-cleaner/app/models"
	"github.com/address-cleaner/internal/cleaner"
	"github.com/agnivade/levenshtein"
	"github.com/xrash/smetrics"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const ruleSetsCollection = "rule_sets"

// A new rule this close to an existing one is reported back as a warning.
const (
	similarMaxDistance = 1
	similarMinJaro     = 0.92
)

var ErrNoSavedRules = errors.New("no saved rule set")

// RulesService edits the active rule set, persists each version and
// invalidates cached rows cleaned under older versions.
type RulesService struct {
	mu         sync.Mutex
	collection *mongo.Collection
	addresses  *AddressService
	cache      ICacheService
	rulesFile  string
	logger     *zap.Logger
}

// NewRulesService builds the service. db, cache and rulesFile are
// optional.
func NewRulesService(db *mongo.Database, addresses *AddressService, cache ICacheService, rulesFile string, logger *zap.Logger) *RulesService {
	rs := &RulesService{
		addresses: addresses,
		cache:     cache,
		rulesFile: rulesFile,
		logger:    logger,
	}
	if db != nil {
		rs.collection = db.Collection(ruleSetsCollection)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_, err := rs.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
			{Keys: bson.D{{Key: "active", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "version", Value: 1}}},
		})
		if err != nil {
			logger.Warn("Failed to create rule_sets indexes", zap.Error(err))
		}
	}
	return rs
}

// Current returns the active rules and their version.
func (rs *RulesService) Current() (*cleaner.RuleSet, string) {
	c, version := rs.addresses.Cleaner()
	return c.Rules(), version
}

// AddSuffix adds or replaces a street-type word.
func (rs *RulesService) AddSuffix(ctx context.Context, name, preferred string) (*cleaner.RuleSet, []string, error) {
	var warnings []string
	rules, err := rs.edit(ctx, "add suffix "+name, func(cur *cleaner.RuleSet) (*cleaner.RuleSet, error) {
		if !cur.HasSuffix(name) {
			names := make([]string, 0, len(cur.Suffixes()))
			for _, s := range cur.Suffixes() {
				names = append(names, s.Name)
			}
			warnings = SimilarRules(name, names)
		}
		return cur.WithSuffix(name, preferred)
	})
	return rules, warnings, err
}

func (rs *RulesService) RemoveSuffix(ctx context.Context, name string) (*cleaner.RuleSet, error) {
	return rs.edit(ctx, "remove suffix "+name, func(cur *cleaner.RuleSet) (*cleaner.RuleSet, error) {
		return cur.WithoutSuffix(name)
	})
}

// AddExternal adds an external keyword.
func (rs *RulesService) AddExternal(ctx context.Context, word string) (*cleaner.RuleSet, []string, error) {
	var warnings []string
	rules, err := rs.edit(ctx, "add external "+word, func(cur *cleaner.RuleSet) (*cleaner.RuleSet, error) {
		warnings = SimilarRules(word, cur.External())
		return cur.WithExternal(word)
	})
	return rules, warnings, err
}

func (rs *RulesService) RemoveExternal(ctx context.Context, word string) (*cleaner.RuleSet, error) {
	return rs.edit(ctx, "remove external "+word, func(cur *cleaner.RuleSet) (*cleaner.RuleSet, error) {
		return cur.WithoutExternal(word)
	})
}

// Replace validates doc and makes it the active rule set.
func (rs *RulesService) Replace(ctx context.Context, doc cleaner.RulesDoc, comment string) (*cleaner.RuleSet, error) {
	return rs.edit(ctx, comment, func(*cleaner.RuleSet) (*cleaner.RuleSet, error) {
		return cleaner.NewRuleSet(doc)
	})
}

func (rs *RulesService) edit(ctx context.Context, comment string, fn func(*cleaner.RuleSet) (*cleaner.RuleSet, error)) (*cleaner.RuleSet, error) {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	c, _ := rs.addresses.Cleaner()
	next, err := fn(c.Rules())
	if err != nil {
		return nil, err
	}
	rs.Activate(ctx, next, comment)
	return next, nil
}

// Activate installs rules, saves them and invalidates stale cache entries.
// A failed save is logged; the rules stay active in memory.
func (rs *RulesService) Activate(ctx context.Context, rules *cleaner.RuleSet, comment string) {
	c, _ := rs.addresses.Cleaner()
	version := rs.addresses.SetCleaner(c.WithRules(rules))

	if err := rs.Save(ctx, rules, comment); err != nil {
		rs.logger.Warn("Failed to persist rule set", zap.String("version", version), zap.Error(err))
	}
	if rs.cache != nil {
		if err := rs.cache.InvalidateByRulesVersion(ctx, version); err != nil {
			rs.logger.Warn("Failed to invalidate cache", zap.String("version", version), zap.Error(err))
		}
	}

	rs.logger.Info("Activated rule set",
		zap.String("version", version),
		zap.String("comment", comment),
		zap.Int("suffixes", len(rules.Suffixes())),
		zap.Int("external", len(rules.External())))
}

// Save writes rules to the rules file and to MongoDB, whichever are
// configured.
func (rs *RulesService) Save(ctx context.Context, rules *cleaner.RuleSet, comment string) error {
	var errs []error
	if rs.rulesFile != "" {
		if err := rules.Save(rs.rulesFile); err != nil {
			errs = append(errs, fmt.Errorf("save rules file: %w", err))
		}
	}
	if rs.collection != nil {
		if _, err := rs.collection.UpdateMany(ctx, bson.M{"active": true}, bson.M{"$set": bson.M{"active": false}}); err != nil {
			errs = append(errs, fmt.Errorf("deactivate rule sets: %w", err))
		} else if _, err := rs.collection.InsertOne(ctx, models.NewRuleSetDoc(rules, comment)); err != nil {
			errs = append(errs, fmt.Errorf("insert rule set: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Load returns the newest active rule set stored in MongoDB.
func (rs *RulesService) Load(ctx context.Context) (*cleaner.RuleSet, error) {
	if rs.collection == nil {
		return nil, ErrNoSavedRules
	}
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})

	var doc models.RuleSetDoc
	err := rs.collection.FindOne(ctx, bson.M{"active": true}, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNoSavedRules
	}
	if err != nil {
		return nil, fmt.Errorf("load rule set: %w", err)
	}
	return doc.RuleSet()
}

// History lists saved versions, newest first.
func (rs *RulesService) History(ctx context.Context, limit int) ([]models.RuleSetDoc, error) {
	if rs.collection == nil {
		return nil, nil
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := rs.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list rule sets: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []models.RuleSetDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode rule sets: %w", err)
	}
	return docs, nil
}

// SimilarRules returns warnings for existing words that look like a typo
// of word.
func SimilarRules(word string, existing []string) []string {
	word = normalizeRuleWord(word)
	var warnings []string
	for _, e := range existing {
		e = normalizeRuleWord(e)
		if e == word {
			continue
		}
		if levenshtein.ComputeDistance(word, e) <= similarMaxDistance ||
			smetrics.JaroWinkler(word, e, 0.7, 4) >= similarMinJaro {
			warnings = append(warnings, fmt.Sprintf("%s is similar to existing rule %s", word, e))
		}
	}
	sort.Strings(warnings)
	return warnings
}

func normalizeRuleWord(w string) string {
	return strings.ToUpper(strings.TrimSpace(w))
}
