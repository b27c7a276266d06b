package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ruedaya/storefront/internal/config"
	"github.com/ruedaya/storefront/internal/domain/account"
	"github.com/ruedaya/storefront/internal/domain/tenant"
	"github.com/ruedaya/storefront/internal/service"
)

// execute runs the CLI with a config path that does not exist, so only
// defaults and environment apply.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "none.yaml")}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestResolveCommand(t *testing.T) {
	out, err := execute(t, "", "resolve",
		"chevrolet-loja.ruedaya.com/vehiculos",
		"https://ruedaya.com/?dealer=kia-loja&page=2",
		"localhost:3000/_next/static/app.js",
	)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 JSON lines, got %d:\n%s", len(lines), out)
	}

	want := []tenant.Resolution{
		{DealerSlug: "chevrolet-loja", RewrittenPath: "/dealer/vehiculos", Rule: tenant.RuleProductionSubdomain},
		{DealerSlug: "kia-loja", RewrittenPath: "/dealer/", RewrittenQuery: "page=2", Rule: tenant.RuleDealerQuery},
		{IsMainDomain: true, Bypassed: true, Rule: tenant.RuleBypass},
	}
	for i, line := range lines {
		var row resolveRow
		if err := json.Unmarshal([]byte(line), &row); err != nil {
			t.Fatalf("line %d: %v", i, err)
		}
		if row.Resolution != want[i] {
			t.Errorf("line %d: got %+v, want %+v", i, row.Resolution, want[i])
		}
	}
}

func TestResolveCommandEnvOverride(t *testing.T) {
	t.Setenv("RUEDAYA_TENANCY_ENABLED", "false")

	out, err := execute(t, "", "resolve", "kia-loja.ruedaya.com/")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !strings.Contains(out, `"rule":"default"`) {
		t.Errorf("expected default rule with tenancy disabled, got %s", out)
	}
}

func TestResolveCommandRejectsBadInput(t *testing.T) {
	if _, err := execute(t, "", "resolve", "/only/a/path"); err == nil {
		t.Fatal("expected error for missing host")
	}
	if _, err := execute(t, "", "resolve"); err == nil {
		t.Fatal("expected error without arguments")
	}
}

func TestWriteTable(t *testing.T) {
	var buf bytes.Buffer
	err := writeTable(&buf, []resolveRow{
		{Input: "kia-loja.ruedaya.com/", Resolution: tenant.Resolution{DealerSlug: "kia-loja", RewrittenPath: "/dealer/", Rule: tenant.RuleProductionSubdomain}},
		{Input: "ruedaya.com/", Resolution: tenant.Resolution{IsMainDomain: true, Rule: tenant.RuleProductionSubdomain}},
	})
	if err != nil {
		t.Fatalf("writeTable: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"INPUT", "kia-loja", "/dealer/", "ruedaya.com/"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
}

func TestSessionVerifyCommand(t *testing.T) {
	sess, err := service.NewSessionService(config.Defaults().Session).Sign(account.Claims{
		UserID: "u-42",
		Email:  "ana@example.com",
	})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	out, err := execute(t, sess.Token+"\n", "session", "verify")
	if err != nil {
		t.Fatalf("verify from stdin: %v", err)
	}
	if !strings.Contains(out, `"id": "u-42"`) {
		t.Errorf("unexpected output %s", out)
	}

	if _, err := execute(t, "", "session", "verify", sess.Token+"x"); err == nil {
		t.Fatal("expected tampered token to fail")
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "", "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(out, "ruedaya ") {
		t.Errorf("unexpected version output %q", out)
	}
}
