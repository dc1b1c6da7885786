// Package sites holds the fixed registry of the 11 Cathedral Network sites.
// The registry is ordered and independent of what the data contains: a site
// with no traffic still shows up in every breakdown.
package sites

// Site describes one affiliated network site.
type Site struct {
	Name   string `json:"name"`
	Domain string `json:"domain"`
	Color  string `json:"color"`
}

var registry = []Site{
	{Name: "Git Theology", Domain: "git-theology.com", Color: "blue"},
	{Name: "Git is Truth", Domain: "git-truth.com", Color: "cyan"},
	{Name: "Git is Life", Domain: "git-islife.com", Color: "green"},
	{Name: "Git is Forever", Domain: "git-isforever.com", Color: "purple"},
	{Name: "Git is Love", Domain: "git-islove.com", Color: "pink"},
	{Name: "Git is Power", Domain: "git-ispower.com", Color: "yellow"},
	{Name: "Git is Eternal", Domain: "git-iseternal.com", Color: "indigo"},
	{Name: "Git is Private", Domain: "git-isprivate.com", Color: "violet"},
	{Name: "Git is Public", Domain: "git-ispublic.com", Color: "teal"},
	{Name: "Git is Your Choice", Domain: "git-isyourchoice.com", Color: "orange"},
	{Name: "Git Manifesto", Domain: "git-manifesto.com", Color: "red"},
}

// All returns the registry in display order. Callers must not mutate it.
func All() []Site {
	return registry
}

// ByDomain looks a site up by its domain identifier.
func ByDomain(domain string) (Site, bool) {
	for _, s := range registry {
		if s.Domain == domain {
			return s, true
		}
	}
	return Site{}, false
}
