// Package skills tracks which routing targets are installed and reachable.
// Targets are registered statically or discovered from directories holding
// one SKILL.md per skill, with YAML frontmatter naming the skill and the
// tools it needs.
package skills

// Skill represents a discovered routing target.
type Skill struct {
	Name          string   // Unique name from frontmatter
	Description   string   // One-line summary
	RequiredTools []string // Capabilities the skill expects from its host
	Directory     string   // Full path to the skill directory
}
