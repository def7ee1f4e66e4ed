package catalog

type EntityType string

const (
	TypeLearningPaths EntityType = "learningPaths"
	TypeCourses       EntityType = "courses"
	TypeModules       EntityType = "modules"
	TypeUnits         EntityType = "units"
)

type StudyGuideItem struct {
	Uid  string `json:"uid"`
	Type string `json:"type"`
}

// Entity is one item of the catalog hierarchy. The API serves the same
// field shape for paths, courses, modules and units, with the child uid
// lists populated per kind.
type Entity struct {
	Uid               string `json:"uid"`
	Title             string `json:"title"`
	Summary           string `json:"summary"`
	DurationInMinutes int    `json:"duration_in_minutes"`
	Url               string `json:"url"`
	Locale            string `json:"locale"`
	CourseNumber      string `json:"course_number"`
	NumberOfChildren  int    `json:"number_of_children"`

	// Child uid lists. Their order defines presentation order and is
	// preserved through every batch operation.
	Modules    []string         `json:"modules"`
	Units      []string         `json:"units"`
	StudyGuide []StudyGuideItem `json:"study_guide"`
}

// Catalog is the API's top-level response document.
type Catalog struct {
	LearningPaths []Entity `json:"learningPaths"`
	Courses       []Entity `json:"courses"`
	Modules       []Entity `json:"modules"`
	Units         []Entity `json:"units"`
}

func (c Catalog) ByType(t EntityType) []Entity {
	switch t {
	case TypeLearningPaths:
		return c.LearningPaths
	case TypeCourses:
		return c.Courses
	case TypeModules:
		return c.Modules
	case TypeUnits:
		return c.Units
	}
	return nil
}
