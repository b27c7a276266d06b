package tenant

import "strings"

// Rule names, in the order the resolver evaluates them.
const (
	RuleBypass              = "bypass"
	RuleDealerQuery         = "dealer-query"
	RuleProductionSubdomain = "production-subdomain"
	RuleLocalDevelopment    = "local-development"
	RuleDefault             = "default"
)

// Rule is one entry of the resolution chain. host is the normalized hostname.
// The first rule whose Match returns true decides the resolution.
type Rule struct {
	Name    string
	Match   func(req Request, host string) bool
	Resolve func(req Request, host string) Resolution
}

// DealerQueryRule selects a dealer from the param query key. Unknown or
// undecodable slugs resolve to the main domain and stop the chain.
func DealerQueryRule(param string, allowed AllowList) Rule {
	return Rule{
		Name: RuleDealerQuery,
		Match: func(req Request, _ string) bool {
			_, present, _ := req.QueryValue(param)
			return present
		},
		Resolve: func(req Request, _ string) Resolution {
			slug, _, ok := req.QueryValue(param)
			if !ok || !allowed.Contains(slug) {
				return Main()
			}
			return ForDealer(slug)
		},
	}
}

// ProductionSubdomainRule treats the first label of any host containing
// rootDomain as a dealer slug, unless it is one of the main labels.
// The label is not checked against the allow-list.
func ProductionSubdomainRule(rootDomain string, mainLabels []string) Rule {
	reserved := labelSet(mainLabels)
	return Rule{
		Name: RuleProductionSubdomain,
		Match: func(_ Request, host string) bool {
			return rootDomain != "" && strings.Contains(host, rootDomain)
		},
		Resolve: func(_ Request, host string) Resolution {
			return fromSubdomain(host, reserved)
		},
	}
}

// LocalDevelopmentRule covers localhost, the loopback address and hosts
// carrying localSuffix. Only the suffix form can select a dealer.
func LocalDevelopmentRule(localSuffix, loopbackPrefix string, mainLabels []string) Rule {
	reserved := labelSet(mainLabels)
	isLocal := func(host string) bool {
		return localSuffix != "" && strings.Contains(host, localSuffix)
	}
	return Rule{
		Name: RuleLocalDevelopment,
		Match: func(_ Request, host string) bool {
			return host == "localhost" ||
				(loopbackPrefix != "" && strings.HasPrefix(host, loopbackPrefix)) ||
				isLocal(host)
		},
		Resolve: func(_ Request, host string) Resolution {
			if isLocal(host) {
				return fromSubdomain(host, reserved)
			}
			return Main()
		},
	}
}

// DefaultRule always matches and resolves to the main domain.
func DefaultRule() Rule {
	return Rule{
		Name:    RuleDefault,
		Match:   func(Request, string) bool { return true },
		Resolve: func(Request, string) Resolution { return Main() },
	}
}

func fromSubdomain(host string, reserved map[string]bool) Resolution {
	label, ok := firstLabel(host)
	if !ok || label == "" || reserved[label] {
		return Main()
	}
	return ForDealer(label)
}

func labelSet(labels []string) map[string]bool {
	set := make(map[string]bool, len(labels))
	for _, l := range labels {
		set[strings.ToLower(l)] = true
	}
	return set
}
