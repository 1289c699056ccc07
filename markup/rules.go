package markup

// RenderFunc renders one element. content holds the element's children,
// already rendered, unless the rule is Raw.
type RenderFunc func(c *Context, n *Node, content string) string

// Rule pairs a predicate over an element with the renderer used when it
// matches.
type Rule struct {
	Name   string
	Match  func(n *Node) bool
	Render RenderFunc
	// Block output is separated from its neighbours by a blank line.
	Block bool
	// Raw rules walk the element themselves; its children are not rendered
	// beforehand.
	Raw bool
}

// Registry is an ordered, immutable list of rules. The first matching rule
// renders an element; elements no rule matches are unwrapped.
type Registry struct {
	rules []Rule
}

func NewRegistry(rules ...Rule) *Registry {
	return &Registry{rules: append([]Rule(nil), rules...)}
}

func (r *Registry) Rules() []Rule {
	return append([]Rule(nil), r.rules...)
}

func (r *Registry) match(n *Node) (Rule, bool) {
	for _, rule := range r.rules {
		if rule.Match(n) {
			return rule, true
		}
	}
	return Rule{}, false
}

var defaultRegistry = NewRegistry(DefaultRules()...)

// DefaultRegistry returns the shared registry of DefaultRules.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

// DefaultRules returns the Confluence storage rules in priority order,
// followed by the rules for plain HTML elements.
func DefaultRules() []Rule {
	rules := []Rule{
		userMentionRule,
		codeMacroRule,
		panelRule,
		expandRule,
		imageRule,
		tableRule,
		listRule,
	}
	return append(rules, standardRules()...)
}

func tagIs(tags ...string) func(*Node) bool {
	return func(n *Node) bool {
		if n.Kind != ElementNode {
			return false
		}
		for _, tag := range tags {
			if n.Tag == tag {
				return true
			}
		}
		return false
	}
}

func macroIs(names ...string) func(*Node) bool {
	return func(n *Node) bool {
		name := n.MacroName()
		if name == "" {
			return false
		}
		for _, want := range names {
			if name == want {
				return true
			}
		}
		return false
	}
}
