package tutor

// Outline is an ordered curriculum: sections, each an ordered list of subtopics.
type Outline struct {
	Title    string    `json:"title,omitempty" yaml:"title,omitempty"`
	Sections []Section `json:"sections" yaml:"sections"`
}

// Section groups subtopics under shared learning objectives.
type Section struct {
	Title              string     `json:"title" yaml:"title"`
	LearningObjectives []string   `json:"learning_objectives,omitempty" yaml:"learning_objectives,omitempty"`
	Subtopics          []Subtopic `json:"subtopics" yaml:"subtopics"`
}

// Subtopic is the unit the tutor teaches in one cycle.
type Subtopic struct {
	Title            string   `json:"title" yaml:"title"`
	Description      string   `json:"description,omitempty" yaml:"description,omitempty"`
	KeyPoints        []string `json:"key_points,omitempty" yaml:"key_points,omitempty"`
	EstimatedMinutes int      `json:"estimated_minutes,omitempty" yaml:"estimated_minutes,omitempty"`
}

// TopicCount returns the number of subtopics across all sections.
func (o *Outline) TopicCount() int {
	if o == nil {
		return 0
	}
	n := 0
	for _, s := range o.Sections {
		n += len(s.Subtopics)
	}
	return n
}

// Topic locates one subtopic within an outline.
type Topic struct {
	Section       Section
	Subtopic      Subtopic
	SectionIndex  int
	SubtopicIndex int
}
