package tutor

import "time"

// fakeClock is a manually advanced clock.
type fakeClock struct{ t time.Time }

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time { return f.t }

func (f *fakeClock) Advance(d time.Duration) { f.t = f.t.Add(d) }

func twoSectionOutline() *Outline {
	return &Outline{
		Title: "Light",
		Sections: []Section{
			{
				Title:              "Reflection",
				LearningObjectives: []string{"Explain the laws of reflection"},
				Subtopics: []Subtopic{
					{Title: "Plane mirrors", KeyPoints: []string{"angle of incidence equals angle of reflection"}, EstimatedMinutes: 10},
				},
			},
			{
				Title:              "Refraction",
				LearningObjectives: []string{"Describe refraction at a boundary"},
				Subtopics: []Subtopic{
					{Title: "Snell's law", KeyPoints: []string{"n1 sin i = n2 sin r"}, EstimatedMinutes: 15},
				},
			},
		},
	}
}

func threeByTwoOutline() *Outline {
	return &Outline{
		Sections: []Section{
			{Title: "A", Subtopics: []Subtopic{{Title: "a1"}, {Title: "a2"}}},
			{Title: "B", Subtopics: []Subtopic{{Title: "b1"}, {Title: "b2"}}},
			{Title: "C", Subtopics: []Subtopic{{Title: "c1"}, {Title: "c2"}}},
		},
	}
}

func newTestContext(clock *fakeClock, opts ...ContextOption) *Context {
	opts = append([]ContextOption{WithClock(clock.Now)}, opts...)
	return NewContext("sess-1", "user-1", Selection{
		Board:   "cbse",
		Subject: "physics",
		Chapter: "light",
	}, opts...)
}
