package catalog

// ContractVersion identifies the schema for catalog records shared across services.
const ContractVersion = "v0.1.0"

// Stage distinguishes basic from advanced coursework within a category.
const (
	StageBasic    = "BASIC"
	StageAdvanced = "ADVANCED"
)

// Category labels how a course counts toward graduation credit buckets.
const (
	CategoryMajor   = "MAJOR"
	CategoryLiberal = "LIBERAL"
	CategoryGeneral = "GENERAL"
)

// CourseAttributes is the minimal course evidence consumed by graduation logic.
type CourseAttributes struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Credit   int    `json:"credit"`
	Category string `json:"category"`
	Stage    string `json:"stage"`
	Required bool   `json:"required"`
}

// RequiredCourse names a course every student must complete before graduating.
type RequiredCourse struct {
	Code string `json:"code"`
	Name string `json:"name"`
}
