// Package main provides gradcheck, an offline graduation diagnostic. It
// runs one evaluation against an in-memory catalog and prints the result
// tree, with no server, database, or registry involved.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	catalogmodels "gradus/internal/catalog/models"
	catalogservice "gradus/internal/catalog/service"
	"gradus/internal/catalog/store"
	"gradus/internal/evaluation"
	evaladapters "gradus/internal/evaluation/adapters"
	"gradus/internal/seeder"
	id "gradus/pkg/domain"
)

// studentInput is the JSON shape of the -student file.
type studentInput struct {
	CourseCodes          []string          `json:"course_codes"`
	Grades               map[string]string `json:"grades"`
	CurriculumYear       string            `json:"curriculum_year"`
	StudentType          string            `json:"student_type"`
	ExtraCurricularUnits int               `json:"extra_curricular_units"`
}

// courseInput is one entry of the optional -courses fixture file.
type courseInput struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Credit   int    `json:"credit"`
	Category string `json:"category"`
	Stage    string `json:"stage"`
	Required bool   `json:"required"`
}

func main() {
	studentPath := flag.String("student", "", "Path to the student context JSON ('-' for stdin)")
	coursesPath := flag.String("courses", "", "Optional course fixture JSON; defaults to the seeded curriculum")
	jsonOut := flag.Bool("json", false, "Print the full report as JSON instead of the rendered tree")
	flag.Parse()

	if *studentPath == "" {
		fmt.Fprintln(os.Stderr, "gradcheck: -student is required")
		flag.Usage()
		os.Exit(2)
	}

	evalCtx, err := loadStudent(*studentPath)
	if err != nil {
		fatal("reading student context: %v", err)
	}

	courses, err := loadCourses(*coursesPath)
	if err != nil {
		fatal("reading course fixture: %v", err)
	}

	ctx := context.Background()
	catalog := store.NewInMemory()
	for i := range courses {
		if err := catalog.Upsert(ctx, &courses[i]); err != nil {
			fatal("loading catalog: %v", err)
		}
	}

	svc := evaluation.New(evaladapters.NewCatalogAdapter(catalogservice.New(catalog)))

	report, err := svc.Evaluate(ctx, evalCtx)
	if err != nil {
		fatal("evaluation failed: %v", err)
	}

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			fatal("encoding report: %v", err)
		}
	} else {
		printReport(report)
	}

	if !report.Passed {
		os.Exit(1)
	}
}

func loadStudent(path string) (evaluation.Context, error) {
	var in studentInput
	if err := readJSON(path, &in); err != nil {
		return evaluation.Context{}, err
	}

	grades := make(map[string]id.Grade, len(in.Grades))
	for code, letter := range in.Grades {
		g, err := id.ParseGrade(letter)
		if err != nil {
			return evaluation.Context{}, fmt.Errorf("grade for %s: %w", code, err)
		}
		grades[code] = g
	}

	st := id.StudentType("")
	if in.StudentType != "" {
		parsed, err := id.ParseStudentType(in.StudentType)
		if err != nil {
			return evaluation.Context{}, err
		}
		st = parsed
	}

	return evaluation.Context{
		CourseCodes:          in.CourseCodes,
		Grades:               grades,
		CurriculumYear:       in.CurriculumYear,
		StudentType:          st,
		ExtraCurricularUnits: in.ExtraCurricularUnits,
	}, nil
}

func loadCourses(path string) ([]catalogmodels.Course, error) {
	if path == "" {
		return seeder.Curriculum(), nil
	}

	var in []courseInput
	if err := readJSON(path, &in); err != nil {
		return nil, err
	}

	courses := make([]catalogmodels.Course, 0, len(in))
	for _, c := range in {
		code, err := id.ParseCourseCode(c.Code)
		if err != nil {
			return nil, fmt.Errorf("course %q: %w", c.Code, err)
		}
		category, err := catalogmodels.ParseCategory(c.Category)
		if err != nil {
			return nil, fmt.Errorf("course %s: %w", code, err)
		}
		stage, err := catalogmodels.ParseStage(c.Stage)
		if err != nil {
			return nil, fmt.Errorf("course %s: %w", code, err)
		}
		courses = append(courses, catalogmodels.Course{
			Code:     code,
			Name:     c.Name,
			Credit:   c.Credit,
			Category: category,
			Stage:    stage,
			Required: c.Required,
			Source:   "fixture",
		})
	}
	return courses, nil
}

func readJSON(path string, v any) error {
	var r io.Reader
	if path == "-" {
		r = os.Stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}

	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func printReport(report *evaluation.Report) {
	verdict := "NOT ELIGIBLE"
	if report.Passed {
		verdict = "ELIGIBLE"
	}
	fmt.Printf("Graduation check: %s\n\n", verdict)
	fmt.Print(evaluation.RenderTree(report.Tree))

	if len(report.MissingItems) > 0 {
		fmt.Printf("\nMissing (%d):\n", len(report.MissingItems))
		for _, item := range report.MissingItems {
			fmt.Printf("  - %s\n", item.Message)
		}
	}
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "gradcheck: "+format+"\n", args...)
	os.Exit(1)
}
