package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"campusfin/internal/cache"
	"campusfin/internal/ruleset"
	"campusfin/internal/services"
	"campusfin/internal/testutil"
)

const defaultRuleset = "../../configs/default_rules.toml"

func TestRulesImportListExport(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := services.NewRuleService(db)

	var out bytes.Buffer
	testutil.AssertNoError(t, importRules(ctx, svc, defaultRuleset, &out))
	if !strings.Contains(out.String(), "7 created, 0 updated") {
		t.Errorf("unexpected import output %q", out.String())
	}

	t.Run("reimport_updates", func(t *testing.T) {
		var again bytes.Buffer
		testutil.AssertNoError(t, importRules(ctx, svc, defaultRuleset, &again))
		if !strings.Contains(again.String(), "0 created, 7 updated") {
			t.Errorf("unexpected import output %q", again.String())
		}
	})

	rules, err := loadRules(ctx, svc, true)
	testutil.AssertNoError(t, err)
	if len(rules) != 7 {
		t.Fatalf("expected 7 rules, got %d", len(rules))
	}

	t.Run("list", func(t *testing.T) {
		var list bytes.Buffer
		testutil.AssertNoError(t, listRules(rules, &list))
		lines := strings.Split(strings.TrimSpace(list.String()), "\n")
		if len(lines) != 8 {
			t.Fatalf("expected header plus 7 rows, got %d lines", len(lines))
		}
		if !strings.HasPrefix(lines[0], "PRIORITY") {
			t.Errorf("unexpected header %q", lines[0])
		}
		if !strings.Contains(list.String(), "debt_payments") {
			t.Error("expected debt_payments in listing")
		}
	})

	t.Run("export_round_trips", func(t *testing.T) {
		var buf bytes.Buffer
		testutil.AssertNoError(t, ruleset.Encode(&buf, rules))
		decoded, err := ruleset.Decode(&buf)
		testutil.AssertNoError(t, err)
		if len(decoded) != len(rules) {
			t.Fatalf("expected %d rules back, got %d", len(rules), len(decoded))
		}
		for i := range rules {
			if decoded[i].RuleName != rules[i].RuleName || decoded[i].Priority != rules[i].Priority {
				t.Errorf("rule %d: got %s/%d, want %s/%d", i,
					decoded[i].RuleName, decoded[i].Priority, rules[i].RuleName, rules[i].Priority)
			}
		}
	})
}

func TestRulesImport_MissingFile(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	err := importRules(context.Background(), services.NewRuleService(db), "does-not-exist.toml", &bytes.Buffer{})
	if err == nil {
		t.Fatal("expected an error for a missing rule set")
	}
}

func TestPurgeCache(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	fc := cache.New(cache.NewGormStore(db), time.Hour, time.Second)
	var out bytes.Buffer
	testutil.AssertNoError(t, purgeCache(context.Background(), fc, &out))
	if got := strings.TrimSpace(out.String()); got != "Purged 0 expired forecast(s)" {
		t.Errorf("unexpected output %q", got)
	}
}
