package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/medrank/tracker/internal/export"
	appI18n "github.com/medrank/tracker/internal/i18n"
	"github.com/medrank/tracker/internal/model"
	"github.com/medrank/tracker/internal/score"
	"github.com/medrank/tracker/internal/store"
	"github.com/medrank/tracker/internal/tracker"
)

func TestMain(m *testing.M) {
	if err := appI18n.Init("en"); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

type analyzerFunc func(ctx context.Context, tests []model.GrandTest) (string, error)

func (f analyzerFunc) Analyze(ctx context.Context, tests []model.GrandTest) (string, error) {
	return f(ctx, tests)
}

type testEnv struct {
	router chi.Router
	ctrl   *tracker.Controller
}

func newTestEnv(t *testing.T, basePath string) *testEnv {
	t.Helper()
	s, err := store.New(":memory:")
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	a := analyzerFunc(func(_ context.Context, tests []model.GrandTest) (string, error) {
		return "Focus on Anatomy.", nil
	})
	ctrl := tracker.New(s, a)
	h := New(ctrl, model.AppConfig{BasePath: basePath})
	h.now = func() time.Time { return time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC) }

	r := chi.NewRouter()
	r.Use(h.BasePathMiddleware)
	if basePath != "" {
		r.Route(basePath, h.Routes)
	} else {
		h.Routes(r)
	}
	return &testEnv{router: r, ctrl: ctrl}
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) get(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()
	return e.do(httptest.NewRequest(http.MethodGet, path, nil))
}

// csrfCookie fetches a page and returns the token cookie it issues.
func (e *testEnv) csrfCookie(t *testing.T, path string) *http.Cookie {
	t.Helper()
	rec := e.get(t, path)
	for _, c := range rec.Result().Cookies() {
		if c.Name == csrfCookieName {
			return c
		}
	}
	t.Fatalf("GET %s: no %s cookie", path, csrfCookieName)
	return nil
}

func (e *testEnv) post(t *testing.T, path string, form url.Values, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	if cookie != nil {
		form.Set(csrfFieldName, cookie.Value)
	}
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	return e.do(req)
}

func seedTest(t *testing.T, ctrl *tracker.Controller, id, name string) model.GrandTest {
	t.Helper()
	gt := model.GrandTest{
		ID:   id,
		Name: name,
		Date: "2026-03-01",
		Mode: model.ModeNEETPG,
		Scores: map[string]model.SubjectScore{
			"anat": score.Subject("anat", 40, 10, model.ModeNEETPG),
		},
	}
	if err := ctrl.Save(context.Background(), gt); err != nil {
		t.Fatalf("Save: %v", err)
	}
	return gt
}

func TestDashboardEmpty(t *testing.T) {
	e := newTestEnv(t, "")
	rec := e.get(t, "/")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `id="no-tests"`) {
		t.Error("expected empty state on a fresh dashboard")
	}
}

func TestDashboardShowsTests(t *testing.T) {
	e := newTestEnv(t, "")
	seedTest(t, e.ctrl, "a", "GT1")

	rec := e.get(t, "/?category=RANK_DECIDING")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"GT1", "/tests/a/edit", "/tests/a/delete", csrfFieldName} {
		if !strings.Contains(body, want) {
			t.Errorf("dashboard missing %q", want)
		}
	}
}

func TestCreateTest(t *testing.T) {
	e := newTestEnv(t, "")
	cookie := e.csrfCookie(t, "/tests/new")

	form := url.Values{
		"name":         {"GT1"},
		"date":         {"2026-03-14"},
		"mode":         {string(model.ModeNEETPG)},
		"correct_anat": {"10"},
		"wrong_anat":   {"2"},
		"action":       {"save"},
	}
	rec := e.post(t, "/tests", form, cookie)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d: %s", rec.Code, rec.Body.String())
	}
	if loc := rec.Header().Get("Location"); loc != "/" {
		t.Errorf("expected redirect to /, got %q", loc)
	}

	tests := e.ctrl.Tests()
	if len(tests) != 1 {
		t.Fatalf("expected 1 test, got %d", len(tests))
	}
	want := score.Subject("anat", 10, 2, model.ModeNEETPG)
	if got := tests[0].ScoreFor("anat"); got.Percentage != want.Percentage || got.CorrectCount() != 10 {
		t.Errorf("anat = %+v, want %+v", got, want)
	}
	if len(tests[0].Scores) != len(model.Subjects()) {
		t.Errorf("expected a score for every subject, got %d", len(tests[0].Scores))
	}
}

func TestCreateTestRecalculate(t *testing.T) {
	e := newTestEnv(t, "")
	cookie := e.csrfCookie(t, "/tests/new")

	form := url.Values{
		"name":         {"GT1"},
		"date":         {"2026-03-14"},
		"mode":         {string(model.ModeNEETPG)},
		"correct_anat": {"10"},
		"action":       {"recalculate"},
	}
	rec := e.post(t, "/tests", form, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if e.ctrl.Count() != 0 {
		t.Error("recalculate must not save")
	}
}

func TestCreateTestInvalid(t *testing.T) {
	e := newTestEnv(t, "")
	cookie := e.csrfCookie(t, "/tests/new")

	rec := e.post(t, "/tests", url.Values{"name": {" "}, "date": {"14/03/2026"}}, cookie)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "name is required") {
		t.Error("expected the validation problems to be listed")
	}
	if e.ctrl.Count() != 0 {
		t.Error("invalid form must not save")
	}
}

func TestCSRFRequired(t *testing.T) {
	e := newTestEnv(t, "")
	tests := []struct {
		name   string
		cookie *http.Cookie
		token  string
	}{
		{"no cookie", nil, ""},
		{"wrong token", &http.Cookie{Name: csrfCookieName, Value: "abc"}, "abd"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := url.Values{"name": {"GT1"}, csrfFieldName: {tt.token}}
			req := httptest.NewRequest(http.MethodPost, "/tests", strings.NewReader(form.Encode()))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			if tt.cookie != nil {
				req.AddCookie(tt.cookie)
			}
			if rec := e.do(req); rec.Code != http.StatusForbidden {
				t.Errorf("expected 403, got %d", rec.Code)
			}
		})
	}
}

func TestEditTest(t *testing.T) {
	e := newTestEnv(t, "")
	seedTest(t, e.ctrl, "a", "GT1")
	seedTest(t, e.ctrl, "b", "GT2")

	cookie := e.csrfCookie(t, "/tests/a/edit")
	form := url.Values{
		"name":         {"GT1 retake"},
		"date":         {"2026-03-02"},
		"mode":         {string(model.ModeINICET)},
		"correct_anat": {"12"},
		"wrong_anat":   {"3"},
	}
	rec := e.post(t, "/tests/a", form, cookie)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d: %s", rec.Code, rec.Body.String())
	}

	tests := e.ctrl.Tests()
	if len(tests) != 2 || tests[0].ID != "a" || tests[1].ID != "b" {
		t.Fatalf("edit must keep position and id, got %+v", tests)
	}
	if tests[0].Name != "GT1 retake" || tests[0].Mode != model.ModeINICET {
		t.Errorf("edit not applied: %+v", tests[0])
	}
}

func TestNotFound(t *testing.T) {
	e := newTestEnv(t, "")
	if rec := e.get(t, "/tests/missing/edit"); rec.Code != http.StatusNotFound {
		t.Errorf("edit: expected 404, got %d", rec.Code)
	}
	cookie := e.csrfCookie(t, "/")
	if rec := e.post(t, "/tests/missing/delete", url.Values{}, cookie); rec.Code != http.StatusNotFound {
		t.Errorf("delete: expected 404, got %d", rec.Code)
	}
	if rec := e.get(t, "/charts/nope.png"); rec.Code != http.StatusNotFound {
		t.Errorf("chart: expected 404, got %d", rec.Code)
	}
}

func TestDeleteTest(t *testing.T) {
	e := newTestEnv(t, "")
	seedTest(t, e.ctrl, "a", "GT1")

	cookie := e.csrfCookie(t, "/")
	rec := e.post(t, "/tests/a/delete", url.Values{}, cookie)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", rec.Code)
	}
	if e.ctrl.Count() != 0 {
		t.Error("test not deleted")
	}
}

func TestExport(t *testing.T) {
	e := newTestEnv(t, "")

	rec := e.get(t, "/export.xlsx")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("empty export: expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "No data to export.") {
		t.Error("expected the no-data alert")
	}

	seedTest(t, e.ctrl, "a", "GT1")
	rec = e.get(t, "/export.xlsx?category=RANK_BUILDING")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != export.ContentType {
		t.Errorf("content type %q", ct)
	}
	cd := rec.Header().Get("Content-Disposition")
	if !strings.Contains(cd, "MedRank_BUILDING_NEET_PG_2026-03-14.xlsx") {
		t.Errorf("unexpected Content-Disposition %q", cd)
	}
	// xlsx files are zip archives.
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")) {
		t.Error("body is not an xlsx archive")
	}
}

func TestChart(t *testing.T) {
	e := newTestEnv(t, "")
	if rec := e.get(t, "/charts/anat.png"); rec.Code != http.StatusNotFound {
		t.Errorf("no tests: expected 404, got %d", rec.Code)
	}

	seedTest(t, e.ctrl, "a", "GT1")
	rec := e.get(t, "/charts/anat.png")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if _, err := png.Decode(rec.Body); err != nil {
		t.Errorf("invalid png: %v", err)
	}
}

func TestAPITests(t *testing.T) {
	e := newTestEnv(t, "")
	rec := e.get(t, "/api/tests")
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("expected empty array, got %s", rec.Body.String())
	}

	seedTest(t, e.ctrl, "a", "GT1")
	rec = e.get(t, "/api/tests")
	var got []model.GrandTest
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 1 || got[0].ID != "a" {
		t.Errorf("unexpected tests %+v", got)
	}
}

func TestInsights(t *testing.T) {
	e := newTestEnv(t, "")
	rec := e.get(t, "/insights")
	if !strings.Contains(rec.Body.String(), `id="need-test"`) {
		t.Error("expected the add-a-test prompt without tests")
	}

	seedTest(t, e.ctrl, "a", "GT1")
	cookie := e.csrfCookie(t, "/insights")
	rec = e.post(t, "/insights/analyze", url.Values{}, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Focus on Anatomy.") {
		t.Error("expected the analysis in the page")
	}

	// The report survives navigation; only a data change drops it.
	e.get(t, "/")
	if text, analyzing := e.ctrl.Analysis(); text == "" || analyzing {
		t.Errorf("after navigation: text=%q analyzing=%v", text, analyzing)
	}
}

func TestImportTests(t *testing.T) {
	e := newTestEnv(t, "")
	seedTest(t, e.ctrl, "a", "GT1")
	cookie := e.csrfCookie(t, "/")

	upload := func(content string) *httptest.ResponseRecorder {
		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		if err := mw.WriteField(csrfFieldName, cookie.Value); err != nil {
			t.Fatal(err)
		}
		fw, err := mw.CreateFormFile(importField, "tests.json")
		if err != nil {
			t.Fatal(err)
		}
		fw.Write([]byte(content))
		mw.Close()

		req := httptest.NewRequest(http.MethodPost, "/tests/import", &body)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.AddCookie(cookie)
		return e.do(req)
	}

	rec := upload(`{"not":"a list"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid file: expected 400, got %d", rec.Code)
	}

	rec = upload(`[{"id":"a","name":"GT1 fixed","date":"2026-03-01","mode":"NEET_PG"},
		{"id":"b","name":"GT2","date":"2026-03-08","mode":"INI_CET"}]`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "1 added, 1 replaced") {
		t.Error("expected the import summary")
	}
	tests := e.ctrl.Tests()
	if len(tests) != 2 || tests[0].Name != "GT1 fixed" || tests[1].ID != "b" {
		t.Errorf("unexpected tests after import: %+v", tests)
	}
}

func TestBasePath(t *testing.T) {
	e := newTestEnv(t, "/medrank")
	seedTest(t, e.ctrl, "a", "GT1")

	rec := e.get(t, "/medrank/")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `/medrank/tests/a/edit`) {
		t.Error("links should carry the base path")
	}
	var cookiePath string
	for _, c := range rec.Result().Cookies() {
		if c.Name == csrfCookieName {
			cookiePath = c.Path
		}
	}
	if cookiePath != "/medrank/" {
		t.Errorf("csrf cookie path = %q", cookiePath)
	}

	cookie := e.csrfCookie(t, "/medrank/")
	rec = e.post(t, "/medrank/tests/a/delete", url.Values{}, cookie)
	if loc := rec.Header().Get("Location"); loc != "/medrank/" {
		t.Errorf("expected redirect to /medrank/, got %q", loc)
	}
}

func TestExportKeepsCSRFToken(t *testing.T) {
	e := newTestEnv(t, "")
	cookie := e.csrfCookie(t, "/")

	exportWithCookie := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/export.xlsx", nil)
		req.AddCookie(cookie)
		rec := e.do(req)
		for _, c := range rec.Result().Cookies() {
			if c.Name == csrfCookieName {
				t.Errorf("export replaced the csrf cookie (status %d)", rec.Code)
			}
		}
		return rec
	}

	// The empty-export page embeds the token the browser already has.
	rec := exportWithCookie()
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("empty export: expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), cookie.Value) {
		t.Error("empty-export page should carry the existing csrf token")
	}

	seedTest(t, e.ctrl, "a", "GT1")
	if rec := exportWithCookie(); rec.Code != http.StatusOK {
		t.Fatalf("export: expected 200, got %d", rec.Code)
	}

	// A form rendered before the download still posts.
	rec = e.post(t, "/tests/a/delete", url.Values{}, cookie)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("delete after export: expected 303, got %d: %s", rec.Code, rec.Body.String())
	}
	if e.ctrl.Count() != 0 {
		t.Error("test not deleted")
	}
}
