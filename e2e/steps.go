package e2e

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cucumber/godog"
)

// RegisterSteps registers all step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	// Background steps
	ctx.Step(`^the gradus API is running$`, tc.apiIsRunning)

	// Account and session steps
	ctx.Step(`^I register a new student$`, tc.registerNewStudent)
	ctx.Step(`^I register a new transfer student$`, tc.registerNewTransferStudent)
	ctx.Step(`^I log in with the registered credentials$`, tc.loginWithRegisteredCredentials)
	ctx.Step(`^I log in with email "([^"]*)" and password "([^"]*)"$`, tc.loginWith)
	ctx.Step(`^I refresh the access token$`, tc.refreshAccessToken)
	ctx.Step(`^I present the previous refresh token again$`, tc.reuseRefreshToken)
	ctx.Step(`^I log out$`, tc.logout)

	// Academic record steps
	ctx.Step(`^I update my course record with:$`, tc.updateCourseRecord)
	ctx.Step(`^I request my graduation evaluation$`, tc.requestGraduation)
	ctx.Step(`^I evaluate graduation with payload:$`, tc.evaluatePayload)

	// Catalog steps
	ctx.Step(`^I look up course "([^"]*)"$`, tc.lookupCourse)
	ctx.Step(`^I search courses with query "([^"]*)"$`, tc.searchCourses)
	ctx.Step(`^I list the required courses$`, tc.listRequiredCourses)

	// Timetable steps
	ctx.Step(`^I create a timetable named "([^"]*)" with:$`, tc.createTimetable)
	ctx.Step(`^I delete that timetable$`, tc.deleteTimetable)

	// Generic request steps
	ctx.Step(`^I GET "([^"]*)" without authorization$`, tc.getWithoutAuth)
	ctx.Step(`^I GET "([^"]*)" with invalid token "([^"]*)"$`, tc.getWithInvalidToken)
	ctx.Step(`^I GET "([^"]*)" with my token$`, tc.getWithToken)
	ctx.Step(`^I POST to "([^"]*)" with empty body$`, tc.postWithEmptyBody)

	// Assertion steps
	ctx.Step(`^the response status should be (\d+)$`, tc.responseStatusShouldBe)
	ctx.Step(`^the response should contain "([^"]*)"$`, tc.responseShouldContain)
	ctx.Step(`^the response field "([^"]*)" should equal "([^"]*)"$`, tc.responseFieldShouldEqual)
	ctx.Step(`^the graduation result should be passed$`, tc.graduationShouldBePassed)
	ctx.Step(`^the graduation result should not be passed$`, tc.graduationShouldNotBePassed)
	ctx.Step(`^the missing items should include "([^"]*)"$`, tc.missingItemsShouldInclude)
	ctx.Step(`^the missing items should not include "([^"]*)"$`, tc.missingItemsShouldNotInclude)
	ctx.Step(`^log "([^"]*)"$`, tc.logMessage)
}

func (tc *TestContext) apiIsRunning(ctx context.Context) error {
	if err := tc.GET("/health/live", nil); err != nil {
		return err
	}
	if tc.GetLastResponseStatus() != 200 {
		return fmt.Errorf("api is not healthy: status %d", tc.GetLastResponseStatus())
	}
	return nil
}

func (tc *TestContext) registerNewStudent(ctx context.Context) error {
	return tc.registerStudent(ctx, "FRESHMAN")
}

func (tc *TestContext) registerNewTransferStudent(ctx context.Context) error {
	return tc.registerStudent(ctx, "TRANSFER")
}

func (tc *TestContext) registerStudent(ctx context.Context, studentType string) error {
	// Unique per scenario run so the suite can be re-run against the same
	// deployment without conflicts.
	tc.Email = fmt.Sprintf("e2e-%d@example.edu", time.Now().UnixNano())
	tc.Password = "correct-horse-battery"

	body := map[string]interface{}{
		"email":        tc.Email,
		"password":     tc.Password,
		"name":         "E2E Student",
		"student_type": studentType,
	}
	return tc.POST("/students", body)
}

func (tc *TestContext) loginWithRegisteredCredentials(ctx context.Context) error {
	if err := tc.loginWith(ctx, tc.Email, tc.Password); err != nil {
		return err
	}
	return tc.saveTokens()
}

func (tc *TestContext) loginWith(ctx context.Context, email, password string) error {
	return tc.POST("/auth/login", map[string]interface{}{
		"email":    email,
		"password": password,
	})
}

func (tc *TestContext) saveTokens() error {
	if tc.GetLastResponseStatus() != 200 {
		return fmt.Errorf("login failed: status %d body %s", tc.GetLastResponseStatus(), string(tc.LastResponseBody))
	}
	access, err := tc.GetResponseField("access_token")
	if err != nil {
		return err
	}
	refresh, err := tc.GetResponseField("refresh_token")
	if err != nil {
		return err
	}
	tc.AccessToken = access.(string)
	tc.RefreshToken = refresh.(string)
	return nil
}

func (tc *TestContext) refreshAccessToken(ctx context.Context) error {
	// Remember the token being burned so the reuse step can present it again.
	burned := tc.RefreshToken
	if err := tc.POST("/auth/refresh", map[string]interface{}{"refresh_token": burned}); err != nil {
		return err
	}
	if tc.GetLastResponseStatus() == 200 {
		if err := tc.saveTokens(); err != nil {
			return err
		}
	}
	tc.SessionID = "" // session listing must be re-fetched after rotation
	tc.usedRefreshToken = burned
	return nil
}

func (tc *TestContext) reuseRefreshToken(ctx context.Context) error {
	return tc.POST("/auth/refresh", map[string]interface{}{"refresh_token": tc.usedRefreshToken})
}

func (tc *TestContext) logout(ctx context.Context) error {
	return tc.POSTWithHeaders("/auth/logout", map[string]interface{}{}, tc.authHeaders())
}

func (tc *TestContext) updateCourseRecord(ctx context.Context, body *godog.DocString) error {
	var payload map[string]interface{}
	if err := json.Unmarshal([]byte(body.Content), &payload); err != nil {
		return fmt.Errorf("invalid course record payload: %w", err)
	}
	return tc.PUT("/me/courses", payload, tc.authHeaders())
}

func (tc *TestContext) requestGraduation(ctx context.Context) error {
	return tc.GET("/me/graduation", tc.authHeaders())
}

func (tc *TestContext) evaluatePayload(ctx context.Context, body *godog.DocString) error {
	var payload map[string]interface{}
	if err := json.Unmarshal([]byte(body.Content), &payload); err != nil {
		return fmt.Errorf("invalid evaluation payload: %w", err)
	}
	return tc.POST("/graduation/evaluate", payload)
}

func (tc *TestContext) lookupCourse(ctx context.Context, code string) error {
	return tc.GET("/courses/"+code, nil)
}

func (tc *TestContext) searchCourses(ctx context.Context, query string) error {
	return tc.GET("/courses?q="+query, nil)
}

func (tc *TestContext) listRequiredCourses(ctx context.Context) error {
	return tc.GET("/courses/required", nil)
}

func (tc *TestContext) createTimetable(ctx context.Context, name string, body *godog.DocString) error {
	var entries []interface{}
	if err := json.Unmarshal([]byte(body.Content), &entries); err != nil {
		return fmt.Errorf("invalid timetable entries: %w", err)
	}
	payload := map[string]interface{}{
		"name":    name,
		"entries": entries,
	}
	if err := tc.POSTWithHeaders("/me/timetables", payload, tc.authHeaders()); err != nil {
		return err
	}
	if tc.GetLastResponseStatus() == 201 {
		id, err := tc.GetResponseField("id")
		if err != nil {
			return err
		}
		tc.TimetableID = id.(string)
	}
	return nil
}

func (tc *TestContext) deleteTimetable(ctx context.Context) error {
	if tc.TimetableID == "" {
		return fmt.Errorf("no timetable was created in this scenario")
	}
	return tc.DELETE("/me/timetables/"+tc.TimetableID, tc.authHeaders())
}

func (tc *TestContext) getWithoutAuth(ctx context.Context, path string) error {
	return tc.GET(path, nil)
}

func (tc *TestContext) getWithInvalidToken(ctx context.Context, path, token string) error {
	return tc.GET(path, map[string]string{
		"Authorization": "Bearer " + token,
	})
}

func (tc *TestContext) getWithToken(ctx context.Context, path string) error {
	return tc.GET(path, tc.authHeaders())
}

func (tc *TestContext) postWithEmptyBody(ctx context.Context, path string) error {
	return tc.POST(path, map[string]interface{}{})
}

func (tc *TestContext) responseStatusShouldBe(ctx context.Context, expectedStatus int) error {
	if tc.LastResponse.StatusCode != expectedStatus {
		return fmt.Errorf("expected status %d but got %d\nResponse: %s",
			expectedStatus, tc.LastResponse.StatusCode, string(tc.LastResponseBody))
	}
	return nil
}

func (tc *TestContext) responseShouldContain(ctx context.Context, field string) error {
	if !tc.ResponseContains(field) {
		return fmt.Errorf("response does not contain field: %s\nResponse: %s", field, string(tc.LastResponseBody))
	}
	return nil
}

func (tc *TestContext) responseFieldShouldEqual(ctx context.Context, field, expectedValue string) error {
	var data map[string]interface{}
	if err := json.Unmarshal(tc.LastResponseBody, &data); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	actualValue, ok := data[field]
	if !ok {
		return fmt.Errorf("field %s not found in response", field)
	}

	if fmt.Sprint(actualValue) != expectedValue {
		return fmt.Errorf("field %s: expected %s but got %v", field, expectedValue, actualValue)
	}
	return nil
}

func (tc *TestContext) graduationShouldBePassed(ctx context.Context) error {
	return tc.responseFieldShouldEqual(ctx, "passed", "true")
}

func (tc *TestContext) graduationShouldNotBePassed(ctx context.Context) error {
	return tc.responseFieldShouldEqual(ctx, "passed", "false")
}

// missingItemTypes extracts the rule types from the missing_items list of
// the last graduation report.
func (tc *TestContext) missingItemTypes() (map[string]bool, error) {
	var report struct {
		MissingItems []struct {
			Type string `json:"type"`
		} `json:"missing_items"`
	}
	if err := json.Unmarshal(tc.LastResponseBody, &report); err != nil {
		return nil, fmt.Errorf("failed to parse graduation report: %w", err)
	}
	types := make(map[string]bool, len(report.MissingItems))
	for _, item := range report.MissingItems {
		types[item.Type] = true
	}
	return types, nil
}

func (tc *TestContext) missingItemsShouldInclude(ctx context.Context, ruleType string) error {
	types, err := tc.missingItemTypes()
	if err != nil {
		return err
	}
	if !types[ruleType] {
		return fmt.Errorf("missing items do not include %s\nResponse: %s", ruleType, string(tc.LastResponseBody))
	}
	return nil
}

func (tc *TestContext) missingItemsShouldNotInclude(ctx context.Context, ruleType string) error {
	types, err := tc.missingItemTypes()
	if err != nil {
		return err
	}
	if types[ruleType] {
		return fmt.Errorf("missing items unexpectedly include %s\nResponse: %s", ruleType, string(tc.LastResponseBody))
	}
	return nil
}

func (tc *TestContext) logMessage(ctx context.Context, message string) error {
	fmt.Println(message)
	return nil
}
