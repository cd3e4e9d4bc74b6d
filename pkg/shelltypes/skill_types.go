package shelltypes

// Skill is a named, discoverable unit of instructional content.
// Name, Description and Location are populated by discovery; Body is filled lazily
// when the content is loaded.
type Skill struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	Location    string `json:"location" yaml:"-"`
	Body        string `json:"body,omitempty" yaml:"-"`
}

// SkillActivationResult holds the two renderings of a skill activation outcome.
// LLMContent is the verbose text returned to the model; ReturnDisplay is the short
// form shown to the user.
type SkillActivationResult struct {
	LLMContent    string `json:"llmContent"`
	ReturnDisplay string `json:"returnDisplay"`
}
