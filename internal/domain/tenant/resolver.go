package tenant

import (
	"strings"

	"github.com/ruedaya/storefront/internal/config"
)

// Resolver maps request descriptors to resolutions. It holds no mutable
// state and is safe for concurrent use.
type Resolver struct {
	rules          []Rule
	bypassPrefixes []string
	bypassFiles    map[string]bool
	dealerPrefix   string
	dealerParam    string
}

// NewResolver builds the rule chain from cfg. With tenancy disabled the chain
// holds only the default rule.
func NewResolver(cfg config.Tenancy) *Resolver {
	mainLabels := append([]string{cfg.MainLabel}, cfg.AliasLabels...)

	var rules []Rule
	if cfg.Enabled {
		rules = append(rules,
			DealerQueryRule(cfg.DealerParam, NewAllowList(cfg.AllowedDealers)),
			ProductionSubdomainRule(strings.ToLower(cfg.RootDomain), mainLabels),
			LocalDevelopmentRule(cfg.LocalSuffix, cfg.LoopbackPrefix, mainLabels),
		)
	}
	rules = append(rules, DefaultRule())

	return NewResolverWithRules(cfg, rules)
}

// NewResolverWithRules builds a resolver with an explicit rule chain. A
// default rule is appended when the chain does not end with one.
func NewResolverWithRules(cfg config.Tenancy, rules []Rule) *Resolver {
	if len(rules) == 0 || rules[len(rules)-1].Name != RuleDefault {
		rules = append(rules, DefaultRule())
	}
	files := make(map[string]bool, len(cfg.BypassFiles))
	for _, f := range cfg.BypassFiles {
		files[f] = true
	}
	return &Resolver{
		rules:          rules,
		bypassPrefixes: cfg.BypassPrefixes,
		bypassFiles:    files,
		dealerPrefix:   strings.TrimSuffix(cfg.DealerPrefix, "/"),
		dealerParam:    cfg.DealerParam,
	}
}

// Rules returns the rule names in evaluation order.
func (r *Resolver) Rules() []string {
	names := make([]string, len(r.rules))
	for i, rule := range r.rules {
		names[i] = rule.Name
	}
	return names
}

// ShouldBypass reports whether path belongs to assets, the API or a
// well-known root file, which are never tenant-resolved.
func (r *Resolver) ShouldBypass(path string) bool {
	for _, p := range r.bypassPrefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return strings.Contains(path, ".") || r.bypassFiles[path]
}

// Resolve decides the tenant for req. It never fails: anything it cannot
// attribute to a dealer resolves to the main domain.
func (r *Resolver) Resolve(req Request) Resolution {
	if r.ShouldBypass(req.Path) {
		return Resolution{IsMainDomain: true, Bypassed: true, Rule: RuleBypass}
	}

	host := NormalizeHost(req.Hostname)
	for _, rule := range r.rules {
		if rule.Match(req, host) {
			return r.finish(req, rule.Name, rule.Resolve(req, host))
		}
	}
	// unreachable: the chain always ends with the default rule
	return r.finish(req, RuleDefault, Main())
}

// finish enforces the slug/main invariant and computes the rewrite.
func (r *Resolver) finish(req Request, rule string, res Resolution) Resolution {
	if res.IsMainDomain || res.DealerSlug == "" {
		return Resolution{IsMainDomain: true, Rule: rule}
	}
	out := Resolution{
		DealerSlug:     res.DealerSlug,
		RewrittenPath:  r.dealerPrefix + rooted(req.Path),
		RewrittenQuery: StripQueryKey(req.RawQuery, r.dealerParam),
		Rule:           rule,
	}
	if req.EscapedPath != "" && req.EscapedPath != req.Path {
		out.RewrittenRawPath = r.dealerPrefix + rooted(req.EscapedPath)
	}
	return out
}

func rooted(path string) string {
	if strings.HasPrefix(path, "/") {
		return path
	}
	return "/" + path
}
