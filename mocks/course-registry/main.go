package main

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultPort      = "8081"
	defaultAPIKey    = ""
	defaultLatencyMs = "50"
)

type CourseResponse struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Credit   int    `json:"credit"`
	Category string `json:"category"`
	Stage    string `json:"stage"`
	Required bool   `json:"required"`
}

type CoursesResponse struct {
	Courses []CourseResponse `json:"courses"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

var (
	apiKey    = getEnv("API_KEY", defaultAPIKey)
	latencyMs = getEnvInt("LATENCY_MS", defaultLatencyMs)
)

func main() {
	port := getEnv("PORT", defaultPort)

	http.HandleFunc("/api/v1/health", handleHealth)
	http.HandleFunc("/api/v1/courses", handleBatchLookup)
	http.HandleFunc("/api/v1/courses/", handleSingleLookup)

	log.Printf("Mock Course Registry starting on port %s", port)
	log.Printf("Simulated latency: %dms", latencyMs)

	if err := http.ListenAndServe(":"+port, nil); err != nil {
		log.Fatal(err)
	}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "healthy",
		"service": "course-registry",
		"version": "1.0.0",
	})
}

// testCourses contains predefined records for specific course codes. These
// "magic" codes let e2e tests assert on exact attributes instead of the
// generated ones.
var testCourses = map[string]CourseResponse{
	"CS204": {Code: "CS204", Name: "Data Structures", Credit: 3, Category: "MAJOR", Stage: "BASIC", Required: true},
	"CS301": {Code: "CS301", Name: "Operating Systems", Credit: 3, Category: "MAJOR", Stage: "ADVANCED", Required: true},
	"CS452": {Code: "CS452", Name: "Distributed Systems", Credit: 3, Category: "MAJOR", Stage: "ADVANCED", Required: false},
	"GE101": {Code: "GE101", Name: "Academic Writing", Credit: 2, Category: "LIBERAL", Stage: "BASIC", Required: true},
	"GE205": {Code: "GE205", Name: "Critical Thinking", Credit: 2, Category: "LIBERAL", Stage: "BASIC", Required: false},
	"PE100": {Code: "PE100", Name: "Physical Education", Credit: 1, Category: "GENERAL", Stage: "BASIC", Required: false},
}

// Magic prefixes that steer the mock into failure modes, so clients can
// exercise their retry/failover paths.
const (
	prefixNotFound  = "UNKNOWN"  // 404
	prefixOutage    = "OUTAGE"   // 503
	prefixRateLimit = "THROTTLE" // 429
	prefixBadData   = "BADREQ"   // 400
	prefixDrift     = "DRIFT"    // 200 with an invalid stage, a contract violation
)

func handleSingleLookup(w http.ResponseWriter, r *http.Request) {
	time.Sleep(time.Duration(latencyMs) * time.Millisecond)
	log.Printf("incoming request: %s %s from %s", r.Method, r.URL.Path, r.RemoteAddr)

	if r.Method != http.MethodGet {
		sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !checkAPIKey(w, r) {
		return
	}

	code := strings.ToUpper(strings.TrimPrefix(r.URL.Path, "/api/v1/courses/"))
	if code == "" {
		sendError(w, "course code is required", http.StatusBadRequest)
		return
	}

	course, status := lookupCourse(code)
	if status != http.StatusOK {
		sendError(w, statusMessage(status, code), status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(course)
	log.Printf("course lookup: %s -> %s (%d credits)", code, course.Name, course.Credit)
}

func handleBatchLookup(w http.ResponseWriter, r *http.Request) {
	time.Sleep(time.Duration(latencyMs) * time.Millisecond)
	log.Printf("incoming request: %s %s from %s", r.Method, r.URL.RequestURI(), r.RemoteAddr)

	if r.Method != http.MethodGet {
		sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !checkAPIKey(w, r) {
		return
	}

	raw := r.URL.Query().Get("codes")
	if raw == "" {
		sendError(w, "codes query parameter is required", http.StatusBadRequest)
		return
	}

	var courses []CourseResponse
	for _, part := range strings.Split(raw, ",") {
		code := strings.ToUpper(strings.TrimSpace(part))
		if code == "" {
			continue
		}
		course, status := lookupCourse(code)
		switch status {
		case http.StatusOK:
			courses = append(courses, course)
		case http.StatusNotFound:
			// Batch contract: unknown codes are omitted, not an error.
		default:
			sendError(w, statusMessage(status, code), status)
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(CoursesResponse{Courses: courses})
	log.Printf("batch lookup: %d requested, %d found", len(strings.Split(raw, ",")), len(courses))
}

// lookupCourse resolves a code to a response and an HTTP status, honoring
// the magic prefixes.
func lookupCourse(code string) (CourseResponse, int) {
	switch {
	case strings.HasPrefix(code, prefixNotFound):
		return CourseResponse{}, http.StatusNotFound
	case strings.HasPrefix(code, prefixOutage):
		return CourseResponse{}, http.StatusServiceUnavailable
	case strings.HasPrefix(code, prefixRateLimit):
		return CourseResponse{}, http.StatusTooManyRequests
	case strings.HasPrefix(code, prefixBadData):
		return CourseResponse{}, http.StatusBadRequest
	case strings.HasPrefix(code, prefixDrift):
		return CourseResponse{
			Code:     code,
			Name:     "Schema Drift Course",
			Credit:   3,
			Category: "MAJOR",
			Stage:    "INTERMEDIATE", // not a stage the contract allows
		}, http.StatusOK
	}

	if course, ok := testCourses[code]; ok {
		return course, http.StatusOK
	}
	return generateCourse(code), http.StatusOK
}

// generateCourse produces deterministic pseudo-random attributes so repeated
// lookups for the same code always agree.
func generateCourse(code string) CourseResponse {
	hash := sha256.Sum256([]byte(code))
	h := int(hash[0])

	subjects := []string{"Algorithms", "Databases", "Networks", "Linear Algebra", "Ethics", "World History", "Statistics", "Compilers", "Microeconomics", "Philosophy"}
	kinds := []string{"Introduction to", "Intermediate", "Advanced", "Topics in", "Seminar:"}

	name := fmt.Sprintf("%s %s", kinds[h%len(kinds)], subjects[(h*3)%len(subjects)])
	credit := 1 + h%3 // 1-3 credits

	category := "GENERAL"
	stage := "BASIC"
	switch h % 3 {
	case 0:
		category = "MAJOR"
		if h%2 == 0 {
			stage = "ADVANCED"
		}
	case 1:
		category = "LIBERAL"
	}

	return CourseResponse{
		Code:     code,
		Name:     name,
		Credit:   credit,
		Category: category,
		Stage:    stage,
		Required: h%10 == 0, // roughly one in ten is mandatory
	}
}

func checkAPIKey(w http.ResponseWriter, r *http.Request) bool {
	if apiKey == "" {
		return true
	}
	if r.Header.Get("X-API-Key") != apiKey {
		sendError(w, "Invalid API key", http.StatusUnauthorized)
		return false
	}
	return true
}

func statusMessage(status int, code string) string {
	switch status {
	case http.StatusNotFound:
		return "course not found: " + code
	case http.StatusServiceUnavailable:
		return "registry temporarily unavailable"
	case http.StatusTooManyRequests:
		return "rate limited"
	case http.StatusBadRequest:
		return "malformed course code: " + code
	default:
		return http.StatusText(status)
	}
}

func sendError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   http.StatusText(code),
		Message: message,
	})
	log.Printf("error response: %d - %s", code, message)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key, defaultValue string) int {
	value := getEnv(key, defaultValue)
	intValue, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("invalid integer value for %s, using default: %s", key, defaultValue)
		intValue, _ = strconv.Atoi(defaultValue)
	}
	return intValue
}
