// Package cleaner standardizes Canadian civic address lines in English and
// French. A line is tokenized, each token is scored, the tokens are
// assigned to civic number, street, suffix, direction and extra, and the
// fields are normalized. Every change is recorded as a flag so rows can be
// reviewed.
//
// Any line containing the word AND is treated as an intersection; see
// KnownFalsePositives.
package cleaner

import (
	"context"
	"runtime"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// KnownFalsePositives lists inputs that are rejected as intersections even
// though they are civic addresses.
var KnownFalsePositives = []string{
	"123 CHEMIN DE LA COTE AND THE RIVER",
	"45 ARTS AND SCIENCES DR",
}

// Record is one spreadsheet row.
type Record struct {
	ID       string `json:"id,omitempty"`
	Line1    string `json:"line1"`
	Line2    string `json:"line2"`
	Province string `json:"province"`
}

// Cleaner wires the tokenizer, scorer, assigner and validator around one
// RuleSet and one set of thresholds.
type Cleaner struct {
	rules     *RuleSet
	th        Thresholds
	scorer    *Scorer
	assigner  *Assigner
	validator *Validator
	logger    *zap.Logger
}

func NewCleaner(rules *RuleSet, th Thresholds, logger *zap.Logger) *Cleaner {
	if logger == nil {
		logger = zap.NewNop()
	}
	th = th.WithDefaults()
	return &Cleaner{
		rules:     rules,
		th:        th,
		scorer:    NewScorer(rules, th),
		assigner:  NewAssigner(th),
		validator: NewValidator(rules, th),
		logger:    logger,
	}
}

func (c *Cleaner) Rules() *RuleSet { return c.rules }

func (c *Cleaner) Thresholds() Thresholds { return c.th }

// WithRules returns a Cleaner using rules and the same thresholds.
func (c *Cleaner) WithRules(rules *RuleSet) *Cleaner {
	return NewCleaner(rules, c.th, c.logger)
}

func (c *Cleaner) Scorer() *Scorer { return c.scorer }

// Structure tokenizes raw and assigns its tokens to address fields
// without normalizing them.
func (c *Cleaner) Structure(raw, province string) *Address {
	a := Tokenize(raw, province)
	if a.Invalid() || a.Passthrough {
		return a
	}
	scores := c.scorer.ScoreAll(a.Original, a.French)
	c.assigner.Assign(a, scores)
	return a
}

// Validate normalizes the fields of a structured address in place.
func (c *Cleaner) Validate(a *Address) {
	c.validator.Validate(a)
}

// Clean structures and validates one line.
func (c *Cleaner) Clean(raw, province string) *Address {
	a := c.Structure(raw, province)
	if !a.Invalid() && !a.Passthrough {
		c.Validate(a)
	}
	return a
}

// CleanRecord cleans line 1 of r and merges line 2 into its extra.
func (c *Cleaner) CleanRecord(r Record) *Address {
	a := c.Structure(r.Line1, r.Province)
	if a.Passthrough {
		return a
	}
	second := c.Structure(r.Line2, r.Province)
	if !a.Invalid() {
		if !second.Invalid() {
			c.Validate(second)
		}
		a.External = !second.Invalid() && second.Number != "" && second.Street != ""
		c.Validate(a)
	}

	if line2 := strings.TrimSpace(strings.Join(second.Original, " ")); line2 != "" {
		switch {
		case a.Extra == "":
			a.Extra = line2
		case a.Extra != line2:
			a.Extra = line2 + ", " + a.Extra
		}
	}

	if a.Invalid() {
		if runeLen(a.Extra) > c.th.ExtraTrimLength {
			a.Extra = TrimExtra(a.Extra)
		}
	} else {
		c.validator.ValidateExtra(a)
	}

	c.logger.Debug("Cleaned address",
		zap.String("id", r.ID),
		zap.String("line1", r.Line1),
		zap.String("cleaned", a.String()),
		zap.String("flags", a.Flags.String()))
	return a
}

// CleanAll cleans records on a pool of workers. Results keep the input
// order. workers <= 0 uses one worker per CPU.
func (c *Cleaner) CleanAll(ctx context.Context, records []Record, workers int) ([]*Address, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(records) {
		workers = len(records)
	}
	results := make([]*Address, len(records))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = c.CleanRecord(records[i])
			}
		}()
	}

	var err error
feed:
	for i := range records {
		if err = ctx.Err(); err != nil {
			break
		}
		select {
		case <-ctx.Done():
			err = ctx.Err()
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	if err != nil {
		c.logger.Warn("Cleaning cancelled", zap.Error(err))
		return nil, err
	}
	c.logger.Info("Cleaned records", zap.Int("total", len(records)), zap.Int("workers", workers))
	return results, nil
}
