// Package networks normalizes the organization names reported by geo/ASN
// enrichment into short, stable display names ("Amazon.com, Inc." -> "Amazon").
package networks

import (
	"sort"
	"strings"

	"nodeboard/config"
	"nodeboard/strutil"

	lev "github.com/agnivade/levenshtein"
)

// minFuzzyKeyLen keeps short keys such as "ovh" out of fuzzy matching, where a
// distance of two would match almost anything.
const minFuzzyKeyLen = 6

// Alias maps a raw organization name, or any name starting with Match when
// Prefix is set, to Name.
type Alias struct {
	Match  string
	Name   string
	Prefix bool
}

type prefixRule struct {
	prefix string
	name   string
}

// Mapper resolves organization names. It is immutable after New and safe for
// concurrent use.
type Mapper struct {
	exact         map[string]string
	fuzzyKeys     []string
	prefixes      []prefixRule
	fuzzyDistance int
}

// DefaultAliases lists the hosting and access networks that dominate public
// peer tables.
func DefaultAliases() []Alias {
	return []Alias{
		{Match: "amazon", Name: "Amazon", Prefix: true},
		{Match: "google", Name: "Google", Prefix: true},
		{Match: "microsoft", Name: "Microsoft", Prefix: true},
		{Match: "hetzner", Name: "Hetzner", Prefix: true},
		{Match: "ovh", Name: "OVH", Prefix: true},
		{Match: "digitalocean", Name: "DigitalOcean", Prefix: true},
		{Match: "linode", Name: "Linode", Prefix: true},
		{Match: "akamai", Name: "Akamai", Prefix: true},
		{Match: "contabo", Name: "Contabo", Prefix: true},
		{Match: "choopa", Name: "Vultr", Prefix: true},
		{Match: "vultr", Name: "Vultr", Prefix: true},
		{Match: "the constant company", Name: "Vultr", Prefix: true},
		{Match: "alibaba", Name: "Alibaba", Prefix: true},
		{Match: "tencent", Name: "Tencent", Prefix: true},
		{Match: "leaseweb", Name: "LeaseWeb", Prefix: true},
		{Match: "online s.a.s", Name: "Scaleway", Prefix: true},
		{Match: "scaleway", Name: "Scaleway", Prefix: true},
		{Match: "comcast", Name: "Comcast", Prefix: true},
		{Match: "deutsche telekom ag", Name: "Deutsche Telekom"},
		{Match: "charter communications inc", Name: "Charter"},
		{Match: "verizon business", Name: "Verizon"},
		{Match: "at&t services, inc.", Name: "AT&T"},
		{Match: "private layer inc", Name: "Private Layer"},
		{Match: "m247 ltd", Name: "M247"},
	}
}

// New builds a mapper. Aliases listed earlier win over later ones, so callers
// put their own aliases ahead of DefaultAliases. fuzzyDistance <= 0 disables
// fuzzy matching.
func New(aliases []Alias, fuzzyDistance int) *Mapper {
	m := &Mapper{
		exact:         make(map[string]string),
		fuzzyDistance: fuzzyDistance,
	}
	for _, alias := range aliases {
		key := strutil.NormalizeKey(alias.Match)
		name := strings.TrimSpace(alias.Name)
		if key == "" || name == "" {
			continue
		}
		if alias.Prefix {
			m.prefixes = append(m.prefixes, prefixRule{prefix: key, name: name})
			continue
		}
		if _, exists := m.exact[key]; exists {
			continue
		}
		m.exact[key] = name
		if len(key) >= minFuzzyKeyLen {
			m.fuzzyKeys = append(m.fuzzyKeys, key)
		}
	}
	// Longest prefix first; stable so equal lengths keep caller precedence.
	sort.SliceStable(m.prefixes, func(i, j int) bool {
		return len(m.prefixes[i].prefix) > len(m.prefixes[j].prefix)
	})
	sort.Strings(m.fuzzyKeys)
	return m
}

// FromConfig builds a mapper from the networks config section.
func FromConfig(cfg config.NetworksConfig) *Mapper {
	aliases := make([]Alias, 0, len(cfg.Aliases)+32)
	for _, a := range cfg.Aliases {
		aliases = append(aliases, Alias{Match: a.Match, Name: a.Name, Prefix: a.Prefix})
	}
	if !cfg.DisableDefaults {
		aliases = append(aliases, DefaultAliases()...)
	}
	return New(aliases, cfg.FuzzyDistance)
}

// MapOrganizationName returns the display name for raw. Lookup order: exact
// alias, longest matching prefix, nearest exact alias within the fuzzy
// distance. Unknown names come back trimmed but otherwise untouched.
func (m *Mapper) MapOrganizationName(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if m == nil || trimmed == "" {
		return trimmed
	}
	key := strutil.NormalizeKey(trimmed)
	if name, ok := m.exact[key]; ok {
		return name
	}
	for _, rule := range m.prefixes {
		if strings.HasPrefix(key, rule.prefix) {
			return rule.name
		}
	}
	if name, ok := m.fuzzy(key); ok {
		return name
	}
	return trimmed
}

func (m *Mapper) fuzzy(key string) (string, bool) {
	if m.fuzzyDistance <= 0 || len(key) < minFuzzyKeyLen {
		return "", false
	}
	best := ""
	bestDist := m.fuzzyDistance + 1
	for _, candidate := range m.fuzzyKeys {
		diff := len(candidate) - len(key)
		if diff > m.fuzzyDistance || -diff > m.fuzzyDistance {
			continue
		}
		if d := lev.ComputeDistance(key, candidate); d < bestDist {
			best = candidate
			bestDist = d
		}
	}
	if best == "" {
		return "", false
	}
	return m.exact[best], true
}
