package router

import (
	"maps"
	"regexp"
	"slices"
	"sort"
	"strings"

	routererrors "github.com/CoworkedShawn/openclaw-skills/internal/errors"
)

const defaultPriority = 1.0

// IntentSpec is the declarative form of an intent as stored in configuration.
// Keys other than the named fields are cue lists (time_words, platforms, ...).
type IntentSpec struct {
	Keywords        []string            `yaml:"keywords" json:"keywords"`
	Patterns        []string            `yaml:"patterns" json:"patterns"`
	Priority        *float64            `yaml:"priority,omitempty" json:"priority,omitempty"`
	ConfidenceBoost *float64            `yaml:"confidence_boost,omitempty" json:"confidence_boost,omitempty"`
	Cues            map[string][]string `yaml:",inline" json:"cues,omitempty"`
}

// IntentDefinition is a compiled, immutable intent.
type IntentDefinition struct {
	ID              string
	Keywords        []string
	Patterns        []string
	Cues            map[string][]string
	Priority        float64
	ConfidenceBoost float64

	compiled  []*regexp.Regexp
	lowerKW   []string
	lowerCues [][]string // non-empty cue lists only
}

// NewIntentDefinition validates spec and compiles its patterns.
// Patterns are matched case-insensitively.
func NewIntentDefinition(id string, spec IntentSpec) (*IntentDefinition, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, routererrors.InvalidArgument("intent id is required")
	}

	def := &IntentDefinition{
		ID:              id,
		Keywords:        slices.Clone(spec.Keywords),
		Patterns:        slices.Clone(spec.Patterns),
		Cues:            make(map[string][]string, len(spec.Cues)),
		Priority:        defaultPriority,
		ConfidenceBoost: 0,
	}
	if spec.Priority != nil {
		def.Priority = *spec.Priority
	}
	if spec.ConfidenceBoost != nil {
		def.ConfidenceBoost = *spec.ConfidenceBoost
	}
	if def.Priority < 0 {
		return nil, routererrors.InvalidConfig("intent "+id+": priority must be non-negative", nil)
	}
	if len(def.Keywords) == 0 && len(def.Patterns) == 0 {
		return nil, routererrors.InvalidConfig("intent "+id+": at least one keyword or pattern is required", nil)
	}

	for _, kw := range def.Keywords {
		if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
			def.lowerKW = append(def.lowerKW, kw)
		}
	}

	for _, p := range def.Patterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, routererrors.InvalidPattern(id, p, err)
		}
		def.compiled = append(def.compiled, re)
	}

	names := slices.Sorted(maps.Keys(spec.Cues))
	for _, name := range names {
		words := slices.Clone(spec.Cues[name])
		def.Cues[name] = words
		var lower []string
		for _, w := range words {
			if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
				lower = append(lower, w)
			}
		}
		if len(lower) > 0 {
			def.lowerCues = append(def.lowerCues, lower)
		}
	}

	return def, nil
}

// Spec returns the declarative form of the definition.
func (d *IntentDefinition) Spec() IntentSpec {
	priority := d.Priority
	boost := d.ConfidenceBoost
	spec := IntentSpec{
		Keywords:        slices.Clone(d.Keywords),
		Patterns:        slices.Clone(d.Patterns),
		Priority:        &priority,
		ConfidenceBoost: &boost,
	}
	if len(d.Cues) > 0 {
		spec.Cues = make(map[string][]string, len(d.Cues))
		for name, words := range d.Cues {
			spec.Cues[name] = slices.Clone(words)
		}
	}
	return spec
}

// Catalog is an immutable set of intent definitions.
type Catalog struct {
	intents map[string]*IntentDefinition
	ids     []string // sorted
}

// NewCatalog builds a catalog. Later definitions replace earlier ones with the same id.
func NewCatalog(defs ...*IntentDefinition) *Catalog {
	c := &Catalog{intents: make(map[string]*IntentDefinition, len(defs))}
	for _, def := range defs {
		c.intents[def.ID] = def
	}
	c.ids = slices.Sorted(maps.Keys(c.intents))
	return c
}

// CatalogFromSpecs compiles every spec into a catalog.
func CatalogFromSpecs(specs map[string]IntentSpec) (*Catalog, error) {
	defs := make([]*IntentDefinition, 0, len(specs))
	for id, spec := range specs {
		def, err := NewIntentDefinition(id, spec)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return NewCatalog(defs...), nil
}

// With returns a copy of the catalog with def added or replaced.
func (c *Catalog) With(def *IntentDefinition) *Catalog {
	defs := make([]*IntentDefinition, 0, len(c.intents)+1)
	for _, id := range c.ids {
		defs = append(defs, c.intents[id])
	}
	return NewCatalog(append(defs, def)...)
}

// Get returns the definition for id.
func (c *Catalog) Get(id string) (*IntentDefinition, bool) {
	def, ok := c.intents[id]
	return def, ok
}

// IDs returns all intent ids, sorted.
func (c *Catalog) IDs() []string {
	return slices.Clone(c.ids)
}

// Len returns the number of intents.
func (c *Catalog) Len() int {
	return len(c.ids)
}

// Specs returns the declarative form of every intent.
func (c *Catalog) Specs() map[string]IntentSpec {
	specs := make(map[string]IntentSpec, len(c.intents))
	for id, def := range c.intents {
		specs[id] = def.Spec()
	}
	return specs
}

func each(c *Catalog, fn func(*IntentDefinition)) {
	for _, id := range c.ids {
		fn(c.intents[id])
	}
}

func floatPtr(v float64) *float64 { return &v }

// DefaultIntentSpecs returns the built-in intent catalog.
func DefaultIntentSpecs() map[string]IntentSpec {
	return map[string]IntentSpec{
		"calendar_scheduling": {
			Keywords: []string{"schedule", "meeting", "appointment", "calendar", "remind", "event", "book", "reschedule"},
			Patterns: []string{
				`\b(schedule|book|set up|arrange)\b.*\b(meeting|call|appointment|event)\b`,
				`\b\d{1,2}(:\d{2})?\s*(am|pm)\b`,
				`\b(today|tomorrow|tonight|next week|this weekend|monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b`,
				`\b(remind me|reminder)\b`,
			},
			ConfidenceBoost: floatPtr(0.1),
			Cues: map[string][]string{
				"time_words":   {"today", "tomorrow", "tonight", "morning", "afternoon", "evening", "week", "am", "pm"},
				"action_words": {"schedule", "book", "cancel", "reschedule", "move"},
			},
		},
		"email_management": {
			Keywords: []string{"email", "mail", "send", "inbox", "reply", "forward", "message", "unread"},
			Patterns: []string{
				`[\w.+-]+@[\w-]+(\.[\w-]+)+`,
				`\b(send|write|compose|draft)\b.*\b(email|mail|message)\b`,
				`\b(check|read)\b.*\binbox\b`,
				`\bunread\b`,
			},
			ConfidenceBoost: floatPtr(0.1),
			Cues: map[string][]string{
				"action_words": {"send", "reply", "forward", "compose", "draft", "check"},
			},
		},
		"file_operations": {
			Keywords: []string{"file", "folder", "directory", "rename", "delete", "copy", "upload", "download"},
			Patterns: []string{
				`\b[\w-]+\.(txt|md|pdf|docx?|xlsx?|csv|json|ya?ml|png|jpe?g|zip)\b`,
				`\b(open|create|delete|remove|rename|move|copy)\b.*\b(file|folder|directory)\b`,
				`\b(list|show)\b.*\b(files|folders|directory)\b`,
			},
			ConfidenceBoost: floatPtr(0.05),
			Cues: map[string][]string{
				"extensions":   {".txt", ".md", ".pdf", ".docx", ".csv", ".json", ".png", ".zip"},
				"action_words": {"open", "save", "rename", "move", "copy", "delete"},
			},
		},
		"web_research": {
			Keywords: []string{"search", "research", "look up", "google", "find information", "latest news", "web"},
			Patterns: []string{
				`\b(search( the web)?|look up|google)\s+(for\s+)?\w+`,
				`\bwhat('s| is) the latest\b`,
				`\bresearch\b`,
			},
			ConfidenceBoost: floatPtr(0.05),
			Cues: map[string][]string{
				"action_words": {"search", "find", "research", "compare", "look"},
			},
		},
		"coding_assistance": {
			Keywords: []string{"code", "function", "bug", "debug", "script", "refactor", "compile", "python", "javascript", "typescript", "golang", "rust", "unit test"},
			Patterns: []string{
				`\b(write|fix|debug|refactor|review)\b.*\b(code|function|class|script|bug|test)s?\b`,
				`\b(python|javascript|typescript|golang|rust|java|ruby|php|sql)\b`,
				"```",
				`\b(exception|stack trace|segfault)\b`,
			},
			ConfidenceBoost: floatPtr(0.05),
			Cues: map[string][]string{
				"languages": {"python", "javascript", "typescript", "golang", "rust", "java", "ruby", "php", "sql", "bash"},
				"artifacts": {"function", "class", "script", "api", "module", "endpoint"},
			},
		},
		"social_media": {
			Keywords: []string{"post", "facebook", "instagram", "tweet", "linkedin", "social media", "followers", "hashtag"},
			Patterns: []string{
				`\b(post|share|publish)\b.*\b(facebook|instagram|twitter|linkedin|tiktok|threads)\b`,
				`\bpost (something )?about\b`,
				`#\w+`,
			},
			ConfidenceBoost: floatPtr(0.05),
			Cues: map[string][]string{
				"platforms": {"facebook", "instagram", "twitter", "linkedin", "tiktok", "threads"},
			},
		},
		"crm_contact": {
			Keywords: []string{"contact", "crm", "lead", "client", "customer", "follow up", "deal"},
			Patterns: []string{
				`\b(add|update|find|create|look up)\s+(a\s+)?(new\s+)?contact\b`,
				`\b(crm|pipeline|deal)\b`,
				`\bfollow[- ]up with\b`,
			},
			ConfidenceBoost: floatPtr(0.05),
			Cues: map[string][]string{
				"action_words": {"add", "update", "log", "follow"},
			},
		},
		"wordpress_publishing": {
			Keywords: []string{"wordpress", "blog", "publish", "draft", "article", "page", "post"},
			Patterns: []string{
				`\bwordpress\b`,
				`\b(publish|draft|write)\b.*\b(blog|post|article|page)\b`,
				`\bblog post\b`,
			},
			ConfidenceBoost: floatPtr(0.05),
			Cues: map[string][]string{
				"post_types": {"post", "page", "draft", "article"},
			},
		},
		"video_production": {
			Keywords: []string{"video", "clip", "render", "footage", "youtube", "reel", "subtitle", "video editing"},
			Patterns: []string{
				`\b(create|make|edit|render|cut)\b.*\b(video|clip|reel)s?\b`,
				`\b\d+\s*(seconds?|secs?|minutes?|mins?)\b`,
				`\b(mp4|mov|ffmpeg)\b`,
			},
			ConfidenceBoost: floatPtr(0.05),
			Cues: map[string][]string{
				"formats": {"mp4", "mov", "webm", "vertical", "landscape"},
			},
		},
		GenericIntent: {
			Keywords: []string{"help", "explain", "question", "what is", "how do", "how to", "tell me", "can you"},
			Patterns: []string{
				`\?\s*$`,
				`^\s*(what|why|how|who|when|where)\b`,
			},
			Priority: floatPtr(0.5),
		},
	}
}

// DefaultCatalog compiles the built-in intents.
func DefaultCatalog() *Catalog {
	c, err := CatalogFromSpecs(DefaultIntentSpecs())
	if err != nil {
		panic(err)
	}
	return c
}

// sortScored orders candidates by score descending, then id.
func sortScored(scored []ScoredIntent) {
	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Intent < scored[j].Intent
	})
}
