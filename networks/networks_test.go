package networks

import (
	"testing"

	"nodeboard/config"
)

func TestMapOrganizationNameDefaults(t *testing.T) {
	m := New(DefaultAliases(), 2)
	cases := map[string]string{
		"Amazon.com, Inc.":          "Amazon",
		"AMAZON-02":                 "Amazon",
		"Hetzner Online GmbH":       "Hetzner",
		"  Deutsche   Telekom AG  ": "Deutsche Telekom",
		"Choopa, LLC":               "Vultr",
		"Some Regional ISP":         "Some Regional ISP",
		"":                          "",
	}
	for raw, want := range cases {
		if got := m.MapOrganizationName(raw); got != want {
			t.Fatalf("MapOrganizationName(%q) = %q, want %q", raw, got, want)
		}
	}
}

func TestMapOrganizationNameFuzzy(t *testing.T) {
	m := New(DefaultAliases(), 2)
	if got := m.MapOrganizationName("Deutsche Telekon AG"); got != "Deutsche Telekom" {
		t.Fatalf("expected fuzzy match to Deutsche Telekom, got %q", got)
	}
	strict := New(DefaultAliases(), 0)
	if got := strict.MapOrganizationName("Deutsche Telekon AG"); got != "Deutsche Telekon AG" {
		t.Fatalf("expected fuzzy disabled to keep raw name, got %q", got)
	}
}

func TestLongestPrefixWins(t *testing.T) {
	m := New([]Alias{
		{Match: "google", Name: "Google", Prefix: true},
		{Match: "google fiber", Name: "Google Fiber", Prefix: true},
	}, 0)
	if got := m.MapOrganizationName("Google Fiber Inc."); got != "Google Fiber" {
		t.Fatalf("expected longest prefix, got %q", got)
	}
	if got := m.MapOrganizationName("Google LLC"); got != "Google" {
		t.Fatalf("expected short prefix, got %q", got)
	}
}

func TestFromConfigUserAliasesOverrideDefaults(t *testing.T) {
	m := FromConfig(config.NetworksConfig{
		FuzzyDistance: 1,
		Aliases: []config.AliasConfig{
			{Match: "Deutsche Telekom AG", Name: "DTAG"},
		},
	})
	if got := m.MapOrganizationName("Deutsche Telekom AG"); got != "DTAG" {
		t.Fatalf("expected user alias to win, got %q", got)
	}
	if got := m.MapOrganizationName("Amazon Technologies Inc."); got != "Amazon" {
		t.Fatalf("expected defaults to stay active, got %q", got)
	}

	bare := FromConfig(config.NetworksConfig{DisableDefaults: true})
	if got := bare.MapOrganizationName("Amazon.com, Inc."); got != "Amazon.com, Inc." {
		t.Fatalf("expected defaults disabled, got %q", got)
	}
}

func TestNilMapperPassesThrough(t *testing.T) {
	var m *Mapper
	if got := m.MapOrganizationName(" Example "); got != "Example" {
		t.Fatalf("unexpected nil mapper result %q", got)
	}
}
