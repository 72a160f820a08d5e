package steps

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/cucumber/godog"
)

// registerAPISteps registers HTTP request steps.
func registerAPISteps(ctx *godog.ScenarioContext) {
	ctx.Step(`^the API server is running$`, theAPIServerIsRunning)
	ctx.Step(`^I send a "([^"]*)" request to "([^"]*)"$`, iSendARequestTo)
	ctx.Step(`^I send a "([^"]*)" request to "([^"]*)" with body:$`, iSendARequestToWithBody)
	ctx.Step(`^I set header "([^"]*)" to "([^"]*)"$`, iSetHeaderTo)
}

// registerResponseSteps registers response validation steps.
func registerResponseSteps(ctx *godog.ScenarioContext) {
	ctx.Step(`^the response status should be (\d+)$`, theResponseStatusShouldBe)
	ctx.Step(`^the response should be JSON$`, theResponseShouldBeJSON)
	ctx.Step(`^the response should contain "([^"]*)"$`, theResponseShouldContain)
	ctx.Step(`^the response field "([^"]*)" should be "([^"]*)"$`, theResponseFieldShouldBe)
	ctx.Step(`^the response field "([^"]*)" should exist$`, theResponseFieldShouldExist)
	ctx.Step(`^the response field "([^"]*)" should not exist$`, theResponseFieldShouldNotExist)
	ctx.Step(`^the response field "([^"]*)" should have (\d+) items$`, theResponseFieldShouldHaveItems)
	ctx.Step(`^the response should be CSV with (\d+) rows$`, theResponseShouldBeCSVWithRows)
	ctx.Step(`^CSV row (\d+) column "([^"]*)" should be "([^"]*)"$`, csvRowColumnShouldBe)
}

func theAPIServerIsRunning(ctx context.Context) error {
	tc := GetTestContext(ctx)
	if tc == nil || tc.server == nil {
		return fmt.Errorf("test server is not running")
	}
	return nil
}

func iSendARequestTo(ctx context.Context, method, endpoint string) (context.Context, error) {
	return sendRequest(ctx, method, endpoint, nil)
}

func iSendARequestToWithBody(ctx context.Context, method, endpoint string, body *godog.DocString) (context.Context, error) {
	return sendRequest(ctx, method, endpoint, body)
}

func sendRequest(ctx context.Context, method, endpoint string, body *godog.DocString) (context.Context, error) {
	tc := GetTestContext(ctx)
	if tc == nil {
		return ctx, fmt.Errorf("test context not found")
	}

	var payload io.Reader
	if body != nil {
		payload = bytes.NewBufferString(tc.replacePlaceholders(body.Content))
	}

	req, err := http.NewRequest(method, tc.server.URL+tc.replacePlaceholders(endpoint), payload)
	if err != nil {
		return ctx, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, value := range tc.requestHeaders {
		req.Header.Set(key, value)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return ctx, fmt.Errorf("failed to send request: %w", err)
	}

	tc.response = resp
	tc.responseBody, err = io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return ctx, fmt.Errorf("failed to read response body: %w", err)
	}

	tc.captureIDs()
	return SetTestContext(ctx, tc), nil
}

func (tc *TestContext) replacePlaceholders(content string) string {
	content = strings.ReplaceAll(content, "{{last_expense_id}}", tc.lastExpenseID)
	content = strings.ReplaceAll(content, "{{session_id}}", tc.sessionID)
	return content
}

// captureIDs remembers identifiers later requests refer to.
func (tc *TestContext) captureIDs() {
	var body map[string]any
	if err := json.Unmarshal(tc.responseBody, &body); err != nil {
		return
	}
	if id, ok := body["id"].(string); ok && tc.response.StatusCode == http.StatusCreated {
		tc.lastExpenseID = id
	}
	if sessionID, ok := body["session_id"].(string); ok && sessionID != "" {
		tc.sessionID = sessionID
	}
}

func iSetHeaderTo(ctx context.Context, header, value string) (context.Context, error) {
	tc := GetTestContext(ctx)
	if tc == nil {
		return ctx, fmt.Errorf("test context not found")
	}
	tc.requestHeaders[header] = value
	return SetTestContext(ctx, tc), nil
}

func theResponseStatusShouldBe(ctx context.Context, expectedStatus int) error {
	tc := GetTestContext(ctx)
	if tc == nil {
		return fmt.Errorf("test context not found")
	}
	if tc.response == nil {
		return fmt.Errorf("no response received")
	}
	if tc.response.StatusCode != expectedStatus {
		return fmt.Errorf("expected status %d, got %d. Body: %s", expectedStatus, tc.response.StatusCode, string(tc.responseBody))
	}
	return nil
}

func theResponseShouldBeJSON(ctx context.Context) error {
	tc := GetTestContext(ctx)
	if tc == nil {
		return fmt.Errorf("test context not found")
	}
	var js json.RawMessage
	if err := json.Unmarshal(tc.responseBody, &js); err != nil {
		return fmt.Errorf("response is not valid JSON: %w", err)
	}
	return nil
}

func theResponseShouldContain(ctx context.Context, expected string) error {
	tc := GetTestContext(ctx)
	if tc == nil {
		return fmt.Errorf("test context not found")
	}
	if !strings.Contains(string(tc.responseBody), expected) {
		return fmt.Errorf("response does not contain '%s'. Body: %s", expected, string(tc.responseBody))
	}
	return nil
}

func theResponseFieldShouldBe(ctx context.Context, field, expected string) error {
	value, err := responseField(ctx, field)
	if err != nil {
		return err
	}
	if value == nil {
		return fmt.Errorf("field '%s' not found in response", field)
	}

	expected = GetTestContext(ctx).replacePlaceholders(expected)
	actual := fmt.Sprintf("%v", value)
	if actual != expected {
		return fmt.Errorf("field '%s' expected '%s', got '%s'", field, expected, actual)
	}
	return nil
}

func theResponseFieldShouldExist(ctx context.Context, field string) error {
	value, err := responseField(ctx, field)
	if err != nil {
		return err
	}
	if value == nil {
		return fmt.Errorf("field '%s' not found in response", field)
	}
	return nil
}

func theResponseFieldShouldNotExist(ctx context.Context, field string) error {
	value, err := responseField(ctx, field)
	if err != nil {
		return err
	}
	if value != nil {
		return fmt.Errorf("field '%s' expected to be absent, got %v", field, value)
	}
	return nil
}

func theResponseFieldShouldHaveItems(ctx context.Context, field string, expected int) error {
	value, err := responseField(ctx, field)
	if err != nil {
		return err
	}
	items, ok := value.([]any)
	if !ok {
		if value == nil && expected == 0 {
			return nil
		}
		return fmt.Errorf("field '%s' is not a list: %v", field, value)
	}
	if len(items) != expected {
		return fmt.Errorf("field '%s' expected %d items, got %d", field, expected, len(items))
	}
	return nil
}

func responseField(ctx context.Context, field string) (any, error) {
	tc := GetTestContext(ctx)
	if tc == nil {
		return nil, fmt.Errorf("test context not found")
	}

	var data map[string]any
	if err := json.Unmarshal(tc.responseBody, &data); err != nil {
		return nil, fmt.Errorf("failed to parse response JSON: %w", err)
	}
	return getFieldValue(data, field), nil
}

// getFieldValue resolves a dot separated path such as "entries.0.children.1.id".
func getFieldValue(object map[string]any, dotSeparatedField string) any {
	var field any = object
	for _, part := range strings.Split(dotSeparatedField, ".") {
		if field == nil {
			return nil
		}
		if i, err := strconv.Atoi(part); err == nil {
			arr, ok := field.([]any)
			if !ok || i >= len(arr) {
				return nil
			}
			field = arr[i]
			continue
		}
		m, ok := field.(map[string]any)
		if !ok {
			return nil
		}
		field = m[part]
	}
	return field
}

func readCSV(ctx context.Context) ([][]string, error) {
	tc := GetTestContext(ctx)
	if tc == nil {
		return nil, fmt.Errorf("test context not found")
	}
	if ct := tc.response.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		return nil, fmt.Errorf("expected CSV response, got content type %q", ct)
	}
	records, err := csv.NewReader(bytes.NewReader(tc.responseBody)).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("response is not valid CSV: %w", err)
	}
	return records, nil
}

func theResponseShouldBeCSVWithRows(ctx context.Context, expected int) error {
	records, err := readCSV(ctx)
	if err != nil {
		return err
	}
	if len(records)-1 != expected {
		return fmt.Errorf("expected %d CSV rows after the header, got %d", expected, len(records)-1)
	}
	return nil
}

func csvRowColumnShouldBe(ctx context.Context, row int, column, expected string) error {
	records, err := readCSV(ctx)
	if err != nil {
		return err
	}
	if row < 1 || row >= len(records) {
		return fmt.Errorf("CSV row %d out of range, %d rows present", row, len(records)-1)
	}

	for i, name := range records[0] {
		if name != column {
			continue
		}
		if actual := records[row][i]; actual != expected {
			return fmt.Errorf("CSV row %d column '%s' expected '%s', got '%s'", row, column, expected, actual)
		}
		return nil
	}
	return fmt.Errorf("CSV column '%s' not found in header %v", column, records[0])
}
