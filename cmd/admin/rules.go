package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"campusfin/internal/models"
	"campusfin/internal/pagination"
	"campusfin/internal/ruleset"
	"campusfin/internal/services"
)

var flagRulesAll bool

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Manage prediction rules",
}

var rulesImportCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Create or update rules from a TOML rule set (default RULESET_PATH)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, m, err := openManager()
		if err != nil {
			return err
		}
		defer closeManager(m)

		path := cfg.RulesetPath
		if len(args) == 1 {
			path = args[0]
		}
		return importRules(cmd.Context(), services.NewRuleService(m.DB()), path, cmd.OutOrStdout())
	},
}

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List rules in evaluation order",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		_, m, err := openManager()
		if err != nil {
			return err
		}
		defer closeManager(m)

		rules, err := loadRules(cmd.Context(), services.NewRuleService(m.DB()), flagRulesAll)
		if err != nil {
			return err
		}
		return listRules(rules, cmd.OutOrStdout())
	},
}

var rulesExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write rules as a TOML rule set to stdout",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		_, m, err := openManager()
		if err != nil {
			return err
		}
		defer closeManager(m)

		rules, err := loadRules(cmd.Context(), services.NewRuleService(m.DB()), flagRulesAll)
		if err != nil {
			return err
		}
		return ruleset.Encode(cmd.OutOrStdout(), rules)
	},
}

func init() {
	rulesListCmd.Flags().BoolVar(&flagRulesAll, "all", false, "Include inactive rules")
	rulesExportCmd.Flags().BoolVar(&flagRulesAll, "all", false, "Include inactive rules")
	rulesCmd.AddCommand(rulesImportCmd, rulesListCmd, rulesExportCmd)
	rootCmd.AddCommand(rulesCmd)
}

func importRules(ctx context.Context, svc services.RuleServicer, path string, w io.Writer) error {
	rules, err := ruleset.Load(path)
	if err != nil {
		return err
	}
	created, updated, err := svc.ImportRules(ctx, rules)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Imported %s: %d created, %d updated\n", path, created, updated)
	return nil
}

// loadRules returns the active rules, or every rule when all is set.
func loadRules(ctx context.Context, svc services.RuleServicer, all bool) ([]models.PredictionRule, error) {
	if !all {
		return svc.ListActiveRules(ctx)
	}

	var rules []models.PredictionRule
	req := pagination.PageRequest{Page: 1, PageSize: 100}
	for {
		page, err := svc.GetRules(ctx, req, nil)
		if err != nil {
			return nil, err
		}
		rules = append(rules, page.Data...)
		if req.Page >= page.TotalPages {
			return rules, nil
		}
		req.Page++
	}
}

func listRules(rules []models.PredictionRule, w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PRIORITY\tNAME\tTYPE\tPERIOD\tACTIVE\tUSES")
	for _, r := range rules {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%v\t%d\n", r.Priority, r.RuleName, r.RuleType, r.Period, r.IsActive, r.UsageCount)
	}
	return tw.Flush()
}
