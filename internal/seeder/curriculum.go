package seeder

import (
	catalogmodels "gradus/internal/catalog/models"
	id "gradus/pkg/domain"
)

var (
	major   = catalogmodels.CategoryMajor
	liberal = catalogmodels.CategoryLiberal
	general = catalogmodels.CategoryGeneral

	basic    = catalogmodels.StageBasic
	advanced = catalogmodels.StageAdvanced
)

// Curriculum returns the seeded course catalog: a computer science program
// with enough credit on offer to clear every graduation floor. Mandatory
// courses carry Required and feed the mandatory-courses branch of the
// requirement tree.
func Curriculum() []catalogmodels.Course {
	return []catalogmodels.Course{
		// Major, basic tier.
		course("CS101", "Introduction to Programming", 3, major, basic, true),
		course("CS102", "Programming Practice", 3, major, basic, false),
		course("CS201", "Data Structures", 3, major, basic, true),
		course("CS202", "Algorithms", 3, major, basic, true),
		course("CS210", "Computer Architecture", 3, major, basic, false),
		course("CS215", "Systems Programming", 3, major, basic, false),
		course("CS220", "Discrete Mathematics", 3, major, basic, false),
		course("CS230", "Operating Systems", 3, major, basic, false),
		course("CS240", "Database Fundamentals", 3, major, basic, false),
		course("CS250", "Computer Networks", 3, major, basic, false),
		course("CS260", "Software Engineering", 3, major, basic, false),
		course("CS270", "Theory of Computation", 3, major, basic, false),
		course("CS280", "Programming Languages", 3, major, basic, false),
		course("MA101", "Calculus I", 3, major, basic, false),
		course("MA102", "Calculus II", 3, major, basic, false),
		course("MA201", "Linear Algebra", 3, major, basic, false),
		course("MA210", "Probability and Statistics", 3, major, basic, false),

		// Major, advanced tier.
		course("CS301", "Distributed Systems", 3, major, advanced, false),
		course("CS310", "Compiler Construction", 3, major, advanced, false),
		course("CS320", "Machine Learning", 3, major, advanced, false),
		course("CS330", "Computer Graphics", 3, major, advanced, false),
		course("CS340", "Information Security", 3, major, advanced, false),
		course("CS350", "Cloud Computing", 3, major, advanced, false),
		course("CS360", "Mobile Computing", 3, major, advanced, false),
		course("CS370", "Human-Computer Interaction", 3, major, advanced, false),
		course("CS380", "Data Engineering", 3, major, advanced, false),
		course("CS401", "Capstone Project I", 3, major, advanced, true),
		course("CS402", "Capstone Project II", 3, major, advanced, false),
		course("MA301", "Numerical Analysis", 3, major, advanced, false),

		// Liberal arts.
		course("EN101", "Academic Writing", 3, liberal, basic, true),
		course("EN102", "Technical Communication", 3, liberal, basic, false),
		course("HU110", "Introduction to Philosophy", 3, liberal, basic, false),
		course("HU120", "World History", 3, liberal, basic, false),
		course("SO110", "Principles of Economics", 3, liberal, basic, false),
		course("SO120", "Introduction to Psychology", 3, liberal, basic, false),
		course("AR110", "Art Appreciation", 2, liberal, basic, false),
		course("PE100", "Physical Education", 1, liberal, basic, false),
		course("LN101", "Foreign Language I", 2, liberal, basic, false),
		course("LN102", "Foreign Language II", 2, liberal, basic, false),
		course("EN201", "Advanced Academic Writing", 3, liberal, advanced, false),
		course("HU210", "Ethics in Technology", 3, liberal, advanced, false),
		course("HU220", "Critical Thinking", 3, liberal, advanced, false),
		course("SO210", "Science, Technology and Society", 3, liberal, advanced, false),

		// General electives.
		course("GE101", "Freshman Seminar", 1, general, basic, true),
		course("GE110", "Information Literacy", 2, general, basic, false),
		course("GE201", "Career Development", 1, general, advanced, false),
		course("GE210", "Entrepreneurship", 3, general, advanced, false),
		course("GE220", "Open Source Practicum", 3, general, advanced, false),
	}
}

func course(code, name string, credit int, category catalogmodels.Category, stage catalogmodels.Stage, required bool) catalogmodels.Course {
	return catalogmodels.Course{
		Code:     id.CourseCode(code),
		Name:     name,
		Credit:   credit,
		Category: category,
		Stage:    stage,
		Required: required,
		Source:   catalogmodels.SourceSeed,
	}
}
