package mentor

import (
	"hash/fnv"
	"log/slog"
	"strings"

	"github.com/kalambet/mentortable/internal/textutil"
)

// Catalog mentor IDs. Every resolved profile carries one of these.
const (
	BillGates     = "bill_gates"
	SteveJobs     = "steve_jobs"
	ElonMusk      = "elon_musk"
	WarrenBuffett = "warren_buffett"
	OprahWinfrey  = "oprah_winfrey"
	MichelleObama = "michelle_obama"
	KobeBryant    = "kobe_bryant"
	JackMa        = "jack_ma"
)

// Catalog is a read-only lookup of built-in personas.
type Catalog struct {
	order []string
	byID  map[string]Profile
}

// NewCatalog builds a catalog from profiles, keeping their order. Later
// duplicates of an ID are ignored.
func NewCatalog(profiles []Profile) *Catalog {
	c := &Catalog{byID: make(map[string]Profile, len(profiles))}
	for _, p := range profiles {
		if p.ID == "" {
			continue
		}
		if _, dup := c.byID[p.ID]; dup {
			continue
		}
		c.order = append(c.order, p.ID)
		c.byID[p.ID] = p.clone()
	}
	return c
}

var defaultCatalog = NewCatalog(builtinProfiles())

// DefaultCatalog returns the built-in persona catalog.
func DefaultCatalog() *Catalog {
	return defaultCatalog
}

// Lookup returns the profile with the given ID.
func (c *Catalog) Lookup(id string) (Profile, bool) {
	p, ok := c.byID[id]
	if !ok {
		return Profile{}, false
	}
	return p.clone(), true
}

// All returns every profile in catalog order.
func (c *Catalog) All() []Profile {
	out := make([]Profile, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.byID[id].clone())
	}
	return out
}

// IDs returns the catalog IDs in order.
func (c *Catalog) IDs() []string {
	return append([]string(nil), c.order...)
}

// Match finds the catalog persona a requested profile refers to by ID,
// display name, short label or alias.
func (c *Catalog) Match(req Profile) (Profile, bool) {
	keys := requestKeys(req)
	for _, id := range c.order {
		p := c.byID[id]
		for _, k := range keys {
			if k == p.ID || k == textutil.NormalizeKey(p.DisplayName) || k == textutil.NormalizeKey(p.ShortLabel) {
				return p.clone(), true
			}
			for _, a := range p.aliases {
				if k == a {
					return p.clone(), true
				}
			}
		}
	}
	return Profile{}, false
}

func requestKeys(req Profile) []string {
	var keys []string
	for _, s := range []string{req.ID, req.DisplayName, req.ShortLabel} {
		if k := textutil.NormalizeKey(s); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

// Resolve turns requested profiles into the mentors to consult, in request
// order. Catalog matches keep their persona and adopt a requested display
// name; unknown names borrow the traits of the nearest catalog persona not
// already in use, keeping the requested name. Repeated personas are dropped
// so every resolved ID is unique, and names left over once every persona is
// in use are dropped with a warning.
func (c *Catalog) Resolve(requested []Profile) []Profile {
	slots := make([]*Profile, len(requested))
	used := make(map[string]bool)

	// Catalog matches first so they keep their own IDs.
	for i, req := range requested {
		p, ok := c.Match(req)
		if !ok {
			continue
		}
		if used[p.ID] {
			slog.Debug("mentor: dropping repeated mentor", "requested", req.Name(), "id", p.ID)
			continue
		}
		used[p.ID] = true
		if req.DisplayName != "" {
			p.DisplayName = strings.TrimSpace(req.DisplayName)
		}
		slots[i] = &p
	}

	for i, req := range requested {
		if slots[i] != nil {
			continue
		}
		if _, ok := c.Match(req); ok {
			continue
		}
		name := strings.TrimSpace(req.Name())
		if name == "" {
			continue
		}
		base, ok := c.nearestFree(name, used)
		if !ok {
			slog.Warn("mentor: no free persona left, dropping requested mentor", "requested", name, "catalog_size", len(c.order))
			continue
		}
		used[base.ID] = true
		p := Synthesize(base, name)
		slots[i] = &p
	}

	out := make([]Profile, 0, len(requested))
	for _, p := range slots {
		if p != nil {
			out = append(out, *p)
		}
	}
	return out
}

// nearestFree picks the unused catalog persona closest to name: one whose
// alias appears as a word in the name, otherwise a stable hash-seeded walk
// around the catalog.
func (c *Catalog) nearestFree(name string, used map[string]bool) (Profile, bool) {
	if len(c.order) == 0 {
		return Profile{}, false
	}
	words := strings.Split(textutil.NormalizeKey(name), "_")
	for _, id := range c.order {
		if used[id] {
			continue
		}
		for _, a := range c.byID[id].aliases {
			for _, w := range words {
				if w != "" && w == a {
					return c.byID[id].clone(), true
				}
			}
		}
	}

	h := fnv.New32a()
	h.Write([]byte(textutil.NormalizeKey(name)))
	start := int(h.Sum32() % uint32(len(c.order)))
	for i := range c.order {
		id := c.order[(start+i)%len(c.order)]
		if !used[id] {
			return c.byID[id].clone(), true
		}
	}
	return Profile{}, false
}

// Synthesize derives a persona for an arbitrary name from base. The result
// keeps base's ID and traits and presents itself under name.
func Synthesize(base Profile, name string) Profile {
	p := base.clone()
	p.DisplayName = name
	p.ShortLabel = name
	p.aliases = nil
	p.KnownExperienceThemes = nil
	p.AvoidClaims = append(p.AvoidClaims,
		"Do not invent biographical facts about "+name+".",
		"Do not borrow personal anecdotes from "+base.Name()+".",
	)
	return p
}
