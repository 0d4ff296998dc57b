// Command worker cleans address workbooks offline and edits the rule
// tables used by the service.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/address-cleaner/app/config"
	"github.com/address-cleaner/app/services"
	"github.com/address-cleaner/internal/cleaner"
	"github.com/address-cleaner/internal/workbook"
	"github.com/alecthomas/kong"
	"go.uber.org/zap"
)

var logger *zap.Logger

var CLI struct {
	Config  string `name:"config" short:"c" default:"config/cleaner.yaml" help:"Cleaner config file" type:"path"`
	Verbose bool   `name:"verbose" short:"v" help:"Log every row"`

	Clean    CleanCmd    `cmd:"" help:"Clean the addresses of a workbook"`
	Template TemplateCmd `cmd:"" help:"Write an input template workbook"`
	Rules    RulesCmd    `cmd:"" help:"Show or edit the suffix and external rules"`
}

type CleanCmd struct {
	Input   string `arg:"" help:"Input workbook" type:"existingfile"`
	Sheet   string `name:"sheet" short:"s" help:"Sheet name (default: first sheet)"`
	Output  string `name:"output" short:"o" help:"Output workbook (default: <input> - Cleaned.xlsx)"`
	Workers int    `name:"workers" short:"w" help:"Worker goroutines (default from config)"`
	Debug   bool   `name:"debug" help:"Add flag and token columns"`
}

func (c *CleanCmd) Run() error {
	start := time.Now()

	records, err := workbook.ReadRecords(c.Input, c.Sheet)
	if err != nil {
		return err
	}

	rules, err := config.C.Rules()
	if err != nil {
		return fmt.Errorf("load rules: %w", err)
	}
	workers := c.Workers
	if workers <= 0 {
		workers = config.C.Workers
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	addresses, err := cleaner.NewCleaner(rules, config.C.Thresholds, logger).CleanAll(ctx, records, workers)
	if err != nil {
		return err
	}

	output := c.Output
	if output == "" {
		output = strings.TrimSuffix(c.Input, filepath.Ext(c.Input)) + " - Cleaned.xlsx"
	}
	written, err := workbook.WriteCleaned(output, addresses, c.Debug)
	if err != nil {
		return err
	}

	unchanged := 0
	for _, a := range addresses {
		if a.Unchanged() {
			unchanged++
		}
	}
	logger.Info("Workbook cleaned",
		zap.String("output", written),
		zap.Int("rows", len(addresses)),
		zap.Int("unchanged", unchanged),
		zap.String("rules_version", rules.Version()),
		zap.Duration("took", time.Since(start)))
	fmt.Printf("%d cleaned addresses written to %s\n", len(addresses), written)
	return nil
}

type TemplateCmd struct {
	Output string `arg:"" optional:"" default:"AddressTemplate.xlsx" help:"Template path"`
}

func (t *TemplateCmd) Run() error {
	if err := workbook.WriteTemplate(t.Output); err != nil {
		return err
	}
	abs, _ := filepath.Abs(t.Output)
	fmt.Printf("Template saved to %s\n", abs)
	return nil
}

type RulesCmd struct {
	List           RulesListCmd      `cmd:"" default:"1" help:"Print the rules"`
	AddSuffix      AddSuffixCmd      `cmd:"" help:"Add or replace a street type"`
	RemoveSuffix   RemoveSuffixCmd   `cmd:"" help:"Remove a street type"`
	AddExternal    AddExternalCmd    `cmd:"" help:"Add an AddressLine2 keyword"`
	RemoveExternal RemoveExternalCmd `cmd:"" help:"Remove an AddressLine2 keyword"`
}

type rulesFile struct {
	File string `name:"file" short:"f" default:"config/rules.yaml" help:"Rules file"`
}

// service loads the rules file, or the defaults when it does not exist
// yet, behind a service that saves every edit back to the file.
func (r rulesFile) service() (*services.RulesService, error) {
	rules, err := cleaner.LoadRules(r.File)
	if errors.Is(err, fs.ErrNotExist) {
		rules, err = cleaner.DefaultRules()
	}
	if err != nil {
		return nil, fmt.Errorf("load rules: %w", err)
	}
	addresses := services.NewAddressService(cleaner.NewCleaner(rules, config.C.Thresholds, logger), nil, 1, logger)
	return services.NewRulesService(nil, addresses, nil, r.File, logger), nil
}

type RulesListCmd struct {
	Rules rulesFile `embed:""`
}

func (l *RulesListCmd) Run() error {
	rs, err := l.Rules.service()
	if err != nil {
		return err
	}
	rules, version := rs.Current()
	fmt.Printf("Rules version %s\n\nSuffixes:\n", version)
	for _, s := range rules.Suffixes() {
		if s.Preferred != "" {
			fmt.Printf("  %s->%s\n", s.Name, s.Preferred)
		} else {
			fmt.Printf("  %s\n", s.Name)
		}
	}
	fmt.Println("\nExternal:")
	for _, w := range rules.External() {
		fmt.Printf("  %s\n", w)
	}
	return nil
}

type AddSuffixCmd struct {
	Rules rulesFile `embed:""`

	Name      string `arg:"" help:"Street type, e.g. STREET"`
	Preferred string `arg:"" optional:"" help:"Short form, e.g. ST"`
}

func (a *AddSuffixCmd) Run() error {
	rs, err := a.Rules.service()
	if err != nil {
		return err
	}
	rules, warnings, err := rs.AddSuffix(context.Background(), a.Name, a.Preferred)
	if err != nil {
		return err
	}
	return reportEdit(a.Rules.File, rules, warnings)
}

type RemoveSuffixCmd struct {
	Rules rulesFile `embed:""`

	Name string `arg:"" help:"Street type"`
}

func (d *RemoveSuffixCmd) Run() error {
	rs, err := d.Rules.service()
	if err != nil {
		return err
	}
	rules, err := rs.RemoveSuffix(context.Background(), d.Name)
	if err != nil {
		return err
	}
	return reportEdit(d.Rules.File, rules, nil)
}

type AddExternalCmd struct {
	Rules rulesFile `embed:""`

	Word string `arg:"" help:"Keyword, e.g. SUITE"`
}

func (a *AddExternalCmd) Run() error {
	rs, err := a.Rules.service()
	if err != nil {
		return err
	}
	rules, warnings, err := rs.AddExternal(context.Background(), a.Word)
	if err != nil {
		return err
	}
	return reportEdit(a.Rules.File, rules, warnings)
}

type RemoveExternalCmd struct {
	Rules rulesFile `embed:""`

	Word string `arg:"" help:"Keyword"`
}

func (d *RemoveExternalCmd) Run() error {
	rs, err := d.Rules.service()
	if err != nil {
		return err
	}
	rules, err := rs.RemoveExternal(context.Background(), d.Word)
	if err != nil {
		return err
	}
	return reportEdit(d.Rules.File, rules, nil)
}

func reportEdit(file string, rules *cleaner.RuleSet, warnings []string) error {
	for _, w := range warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}
	fmt.Printf("Saved %s (version %s)\n", file, rules.Version())
	return nil
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("worker"),
		kong.Description("Canadian address workbook cleaner"),
		kong.UsageOnError(),
	)

	var err error
	if CLI.Verbose {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	ctx.FatalIfErrorf(err)
	defer logger.Sync()

	if err := config.Load(CLI.Config); err != nil {
		ctx.Fatalf("load config: %v", err)
	}

	ctx.FatalIfErrorf(ctx.Run())
}
