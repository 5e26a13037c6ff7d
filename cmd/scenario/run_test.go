package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"pe-scenario-lab/backend/internal/scenario"
)

func TestLoadParamsYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deal.yaml")
	if err := os.WriteFile(path, []byte("growth: 3\nmacro: Severe Recession\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	paramsPath = path
	t.Cleanup(func() { paramsPath = "" })

	p, _ := scenario.DealPreset("Base")
	if err := loadParams(&p); err != nil {
		t.Fatalf("load: %v", err)
	}
	if p.Growth != 3 || p.Macro != scenario.MacroSevereRecession || p.Margin != 18 {
		t.Fatalf("unexpected params %+v", p)
	}
}

func TestLoadParamsRejectsUnknownMacro(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deal.json")
	if err := os.WriteFile(path, []byte(`{"macro":"Boom"}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	paramsPath = path
	t.Cleanup(func() { paramsPath = "" })

	var p scenario.DealParams
	if err := loadParams(&p); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestRenderFormats(t *testing.T) {
	proj, err := scenario.ProjectCxO(scenario.DefaultCxOParams())
	if err != nil {
		t.Fatalf("project: %v", err)
	}
	t.Cleanup(func() { format = "yaml" })

	tests := []struct {
		format string
		want   string
	}{
		{"yaml", "over_budget: false"},
		{"json", `"over_budget": false`},
	}
	for _, tc := range tests {
		format = tc.format
		var buf bytes.Buffer
		if err := render(&buf, proj); err != nil {
			t.Fatalf("%s: %v", tc.format, err)
		}
		if !strings.Contains(buf.String(), tc.want) {
			t.Fatalf("%s output missing %q:\n%s", tc.format, tc.want, buf.String())
		}
	}

	format = "xml"
	if err := render(&bytes.Buffer{}, proj); err == nil {
		t.Fatal("expected unknown format error")
	}
}

func TestDealCommandYAML(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"deal", "--preset", "Downside", "--runs", "200", "--seed", "5"})
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		preset, runs, seedSet, seed = "Base", 500, false, 0
	})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}

	var summary scenario.DealSummary
	if err := yaml.Unmarshal(out.Bytes(), &summary); err != nil {
		t.Fatalf("decode yaml: %v\n%s", err, out.String())
	}
	if summary.Requested != 200 || summary.Params.Macro != scenario.MacroMildRecession {
		t.Fatalf("unexpected summary %+v", summary)
	}
}
