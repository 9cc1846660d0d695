package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orgstruct/internal/core/apperror"
	appctx "orgstruct/internal/core/context"
	"orgstruct/internal/core/entity"
	"orgstruct/internal/core/id"
	"orgstruct/internal/domain/orgstructure/department"
	"orgstruct/internal/domain/orgstructure/version"
	"orgstruct/internal/infrastructure/http/v1/handlers"
	"orgstruct/internal/infrastructure/http/v1/middleware"
	"orgstruct/internal/infrastructure/metrics"
	"orgstruct/pkg/logger"
)

const testScope = "0190a7c4-1a2b-7c3d-8e4f-001122334455"

var testNow = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

// --- fakes ---

type fakeVersions struct {
	versions   map[id.ID]*version.Version
	lastCreate version.CreateInput
	lastUpdate version.UpdateInput
	lastAsOf   time.Time
	scopeSeen  string
	err        error
}

func newFakeVersions() *fakeVersions {
	return &fakeVersions{versions: map[id.ID]*version.Version{}}
}

func (f *fakeVersions) add(code string, effective time.Time) *version.Version {
	v := &version.Version{
		ID:            id.New(),
		ScopeID:       testScope,
		Code:          code,
		Name:          "Version " + code,
		EffectiveDate: effective,
		Timestamps:    entity.NewTimestamps(testNow),
	}
	f.versions[v.ID] = v
	return v
}

func (f *fakeVersions) GetVersion(ctx context.Context, versionID id.ID) (*version.Version, error) {
	f.scopeSeen = appctx.GetScopeID(ctx)
	if f.err != nil {
		return nil, f.err
	}
	v, ok := f.versions[versionID]
	if !ok {
		return nil, apperror.NewVersionNotFound(versionID)
	}
	return v, nil
}

func (f *fakeVersions) ListVersions(ctx context.Context, orderBy string) ([]*version.Version, error) {
	f.scopeSeen = appctx.GetScopeID(ctx)
	all := make([]*version.Version, 0, len(f.versions))
	for _, v := range f.versions {
		all = append(all, v)
	}
	return version.NewRegistry(all).Sort(orderBy)
}

func (f *fakeVersions) ResolveAsOf(_ context.Context, scopeID string, date time.Time) (*version.Version, error) {
	f.scopeSeen = scopeID
	f.lastAsOf = date
	for _, v := range f.versions {
		if v.Contains(date) {
			return v, nil
		}
	}
	return nil, apperror.NewVersionNotFoundAsOf(scopeID, date)
}

func (f *fakeVersions) CreateVersion(_ context.Context, in version.CreateInput) (*version.Version, error) {
	f.lastCreate = in
	if f.err != nil {
		return nil, f.err
	}
	v := f.add(in.Code, in.EffectiveDate)
	v.ExpiryDate = in.ExpiryDate
	return v, nil
}

func (f *fakeVersions) CopyVersion(_ context.Context, sourceID id.ID, in version.CreateInput) (*version.CopyResult, error) {
	if _, ok := f.versions[sourceID]; !ok {
		return nil, apperror.NewVersionNotFound(sourceID)
	}
	v := f.add(in.Code, in.EffectiveDate)
	return &version.CopyResult{Version: v, Departments: 3}, nil
}

func (f *fakeVersions) UpdateVersion(_ context.Context, versionID id.ID, in version.UpdateInput) (*version.Version, error) {
	f.lastUpdate = in
	v, ok := f.versions[versionID]
	if !ok {
		return nil, apperror.NewVersionNotFound(versionID)
	}
	return v, nil
}

type fakeDepartments struct {
	tree       *department.Tree
	lastFilter department.TreeFilter
	lastCreate department.CreateInput
	lastUpdate department.UpdateInput
	moveParent *id.ID
	moveCalled bool
	include    bool
}

func (f *fakeDepartments) GetTree(_ context.Context, _ id.ID, filter department.TreeFilter) ([]*department.TreeNode, error) {
	f.lastFilter = filter
	return department.FilterTree(f.tree, filter), nil
}

func (f *fakeDepartments) GetDepartment(_ context.Context, _ id.ID, deptID id.ID) (*department.Department, error) {
	return f.tree.FindByID(deptID)
}

func (f *fakeDepartments) Subtree(_ context.Context, _ id.ID, stableID id.ID, include bool) ([]*department.Department, error) {
	f.include = include
	return f.tree.Subtree(stableID, include)
}

func (f *fakeDepartments) Create(_ context.Context, _ id.ID, in department.CreateInput) (*department.Department, error) {
	f.lastCreate = in
	return f.tree.Roots()[0], nil
}

func (f *fakeDepartments) Update(_ context.Context, _ id.ID, deptID id.ID, in department.UpdateInput) (*department.Department, error) {
	f.lastUpdate = in
	return f.GetDepartment(context.Background(), id.ID{}, deptID)
}

func (f *fakeDepartments) Move(_ context.Context, _ id.ID, deptID id.ID, parentID *id.ID) (*department.Department, error) {
	f.moveCalled = true
	f.moveParent = parentID
	if parentID != nil && *parentID == deptID {
		return nil, apperror.NewCircularHierarchy(deptID, *parentID)
	}
	return f.GetDepartment(context.Background(), id.ID{}, deptID)
}

func (f *fakeDepartments) Deactivate(_ context.Context, _ id.ID, deptID id.ID) (*department.Department, error) {
	return nil, apperror.NewDepartmentAlreadyInactive(deptID)
}

func (f *fakeDepartments) Reactivate(ctx context.Context, versionID, deptID id.ID) (*department.Department, error) {
	return f.GetDepartment(ctx, versionID, deptID)
}

// --- harness ---

type harness struct {
	t        *testing.T
	router   http.Handler
	versions *fakeVersions
	depts    *fakeDepartments
	root     *department.Department
	child    *department.Department
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	versionID := id.New()

	mapper := department.NewIdentityMapper()
	mut := department.NewMutator(mapper)
	tree := department.NewEmptyTree(versionID)
	root, _, err := mut.Create(tree, department.CreateInput{Code: "CORP", Name: "Corporation"})
	require.NoError(t, err)
	child, _, err := mut.Create(tree, department.CreateInput{Code: "SALES", Name: "Sales", ParentID: id.Ptr(root.ID)})
	require.NoError(t, err)

	versions := newFakeVersions()
	depts := &fakeDepartments{tree: tree}

	router := NewRouter(RouterConfig{
		Logger:      logger.NewNop(),
		Versions:    versions,
		Departments: depts,
		HealthChecks: map[string]handlers.Pinger{
			"database": nil,
		},
		Metrics: metrics.New(),
	})

	return &harness{t: t, router: router, versions: versions, depts: depts, root: root, child: child}
}

func (h *harness) do(method, path string, body any) *httptest.ResponseRecorder {
	h.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(h.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.ScopeHeader, testScope)
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

// --- tests ---

func TestRouter_ScopeRequired(t *testing.T) {
	h := newHarness(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/versions", nil)
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperror.CodeValidation, decodeBody(t, w)["code"])
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	h := newHarness(t)

	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	h.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	h.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_CreateVersion(t *testing.T) {
	h := newHarness(t)

	w := h.do(http.MethodPost, "/api/v1/versions", map[string]any{
		"versionCode":   "V2025",
		"versionName":   "FY2025",
		"effectiveDate": "2025-01-01",
		"expiryDate":    "2026-01-01",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	body := decodeBody(t, w)
	assert.Equal(t, "V2025", body["versionCode"])
	assert.Equal(t, "2025-01-01", body["effectiveDate"])
	assert.Equal(t, "2026-01-01", body["expiryDate"])
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), h.versions.lastCreate.EffectiveDate)
}

func TestRouter_CreateVersion_BadDate(t *testing.T) {
	h := newHarness(t)

	w := h.do(http.MethodPost, "/api/v1/versions", map[string]any{
		"versionCode":   "V2025",
		"versionName":   "FY2025",
		"effectiveDate": "01/01/2025",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, apperror.CodeValidation, body["code"])
	assert.Equal(t, "effectiveDate", body["details"].(map[string]any)["field"])
}

func TestRouter_CreateVersion_Duplicate(t *testing.T) {
	h := newHarness(t)
	h.versions.err = apperror.NewVersionCodeDuplicate("V2025")

	w := h.do(http.MethodPost, "/api/v1/versions", map[string]any{
		"versionCode":   "V2025",
		"versionName":   "FY2025",
		"effectiveDate": "2025-01-01",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, apperror.CodeVersionCodeDuplicate, decodeBody(t, w)["code"])
}

func TestRouter_AsOfIsNotAVersionID(t *testing.T) {
	h := newHarness(t)
	v := h.versions.add("V2025", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))

	w := h.do(http.MethodGet, "/api/v1/versions/as-of?date=2025-06-30", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, v.ID.String(), decodeBody(t, w)["id"])
	assert.Equal(t, testScope, h.versions.scopeSeen)

	w = h.do(http.MethodGet, "/api/v1/versions/as-of?date=2024-12-31", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, apperror.CodeVersionNotFound, decodeBody(t, w)["code"])
}

func TestRouter_ListVersions(t *testing.T) {
	h := newHarness(t)
	h.versions.add("A", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	h.versions.add("B", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))

	w := h.do(http.MethodGet, "/api/v1/versions", nil)
	require.Equal(t, http.StatusOK, w.Code)
	items := decodeBody(t, w)["items"].([]any)
	require.Len(t, items, 2)
	assert.Equal(t, "B", items[0].(map[string]any)["versionCode"])

	w = h.do(http.MethodGet, "/api/v1/versions?orderBy=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_GetVersion_InvalidID(t *testing.T) {
	h := newHarness(t)

	w := h.do(http.MethodGet, "/api/v1/versions/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_UpdateVersion_ClearsExpiry(t *testing.T) {
	h := newHarness(t)
	v := h.versions.add("A", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	w := h.do(http.MethodPut, "/api/v1/versions/"+v.ID.String(), map[string]any{"expiryDate": ""})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, h.versions.lastUpdate.ClearExpiryDate)
	assert.Nil(t, h.versions.lastUpdate.ExpiryDate)
}

func TestRouter_CopyVersion(t *testing.T) {
	h := newHarness(t)
	src := h.versions.add("A", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	w := h.do(http.MethodPost, "/api/v1/versions/"+src.ID.String()+"/copy", map[string]any{
		"versionCode":   "B",
		"versionName":   "Copy",
		"effectiveDate": "2025-01-01",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body := decodeBody(t, w)
	assert.Equal(t, float64(3), body["departmentsCopied"])
	assert.Equal(t, "B", body["version"].(map[string]any)["versionCode"])
}

func deptPath(h *harness, suffix string) string {
	return "/api/v1/versions/" + h.root.VersionID.String() + "/departments" + suffix
}

func TestRouter_Tree(t *testing.T) {
	h := newHarness(t)

	w := h.do(http.MethodGet, deptPath(h, "/tree?keyword=sales&isActive=true"), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	assert.Equal(t, "sales", h.depts.lastFilter.Keyword)
	require.NotNil(t, h.depts.lastFilter.IsActive)
	assert.True(t, *h.depts.lastFilter.IsActive)

	items := decodeBody(t, w)["items"].([]any)
	require.Len(t, items, 1)
	root := items[0].(map[string]any)
	assert.Equal(t, "CORP", root["departmentCode"])
	assert.Equal(t, false, root["matched"])
	assert.Equal(t, float64(1), root["hierarchyLevel"])

	children := root["children"].([]any)
	require.Len(t, children, 1)
	assert.Equal(t, "/CORP/SALES", children[0].(map[string]any)["hierarchyPath"])
}

func TestRouter_Tree_UnknownUnitType(t *testing.T) {
	h := newHarness(t)

	w := h.do(http.MethodGet, deptPath(h, "/tree?orgUnitType=galaxy"), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_GetDepartment(t *testing.T) {
	h := newHarness(t)

	w := h.do(http.MethodGet, deptPath(h, "/"+h.child.ID.String()), nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, h.child.StableID.String(), body["stableId"])
	assert.Equal(t, h.root.ID.String(), body["parentId"])

	w = h.do(http.MethodGet, deptPath(h, "/"+id.New().String()), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_Subtree(t *testing.T) {
	h := newHarness(t)

	w := h.do(http.MethodGet, deptPath(h, "/by-stable-id/"+h.root.StableID.String()+"/subtree"), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, h.depts.include)
	assert.Len(t, decodeBody(t, w)["items"].([]any), 2)

	w = h.do(http.MethodGet, deptPath(h, "/by-stable-id/"+h.root.StableID.String()+"/subtree?includeDescendants=false"), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, h.depts.include)
	assert.Len(t, decodeBody(t, w)["items"].([]any), 1)
}

func TestRouter_CreateDepartment(t *testing.T) {
	h := newHarness(t)

	w := h.do(http.MethodPost, deptPath(h, ""), map[string]any{
		"departmentCode": "HR",
		"departmentName": "Human Resources",
		"parentId":       h.root.ID.String(),
		"orgUnitType":    "department",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "HR", h.depts.lastCreate.Code)
	require.NotNil(t, h.depts.lastCreate.ParentID)
	assert.Equal(t, h.root.ID, *h.depts.lastCreate.ParentID)
	require.NotNil(t, h.depts.lastCreate.OrgUnitType)
	assert.Equal(t, department.UnitDepartment, *h.depts.lastCreate.OrgUnitType)
}

func TestRouter_CreateDepartment_Validation(t *testing.T) {
	h := newHarness(t)

	w := h.do(http.MethodPost, deptPath(h, ""), map[string]any{
		"departmentCode":     "HR",
		"departmentName":     "Human Resources",
		"responsibilityType": "fun_center",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(http.MethodPost, deptPath(h, ""), map[string]any{"departmentName": "No code"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_CreateDepartment_RejectsDerivedFields(t *testing.T) {
	tests := []struct {
		name  string
		field string
		value any
	}{
		{name: "level", field: "hierarchyLevel", value: 7},
		{name: "path", field: "hierarchyPath", value: "/X/Y/HR"},
		{name: "stable id", field: "stableId", value: id.New().String()},
		{name: "unknown", field: "colour", value: "red"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)

			w := h.do(http.MethodPost, deptPath(h, ""), map[string]any{
				"departmentCode": "HR",
				"departmentName": "Human Resources",
				tt.field:         tt.value,
			})
			require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			body := decodeBody(t, w)
			assert.Equal(t, "VALIDATION_ERROR", body["code"])
			assert.Equal(t, tt.field, body["details"].(map[string]any)["field"])
			assert.Empty(t, h.depts.lastCreate.Code)
		})
	}
}

func TestRouter_UpdateDepartment_RejectsStructuralFields(t *testing.T) {
	tests := []struct {
		name string
		body map[string]any
	}{
		{name: "path", body: map[string]any{"departmentName": "Sales", "hierarchyPath": "/EVIL"}},
		{name: "level", body: map[string]any{"hierarchyLevel": 1}},
		{name: "parent", body: map[string]any{"parentId": id.New().String()}},
		{name: "code", body: map[string]any{"departmentCode": "RENAMED"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)

			w := h.do(http.MethodPut, deptPath(h, "/"+h.child.ID.String()), tt.body)
			require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			assert.Equal(t, "VALIDATION_ERROR", decodeBody(t, w)["code"])
			assert.Nil(t, h.depts.lastUpdate.Name)
			assert.Equal(t, "/CORP/SALES", h.child.HierarchyPath)
		})
	}
}

func TestRouter_UpdateDepartment_ClearsEnum(t *testing.T) {
	h := newHarness(t)

	w := h.do(http.MethodPut, deptPath(h, "/"+h.child.ID.String()), map[string]any{
		"orgUnitType": "",
		"sortOrder":   5,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NotNil(t, h.depts.lastUpdate.OrgUnitType)
	assert.Equal(t, department.OrgUnitType(""), *h.depts.lastUpdate.OrgUnitType)
	require.NotNil(t, h.depts.lastUpdate.SortOrder)
	assert.Equal(t, 5, *h.depts.lastUpdate.SortOrder)
}

func TestRouter_MoveDepartment(t *testing.T) {
	h := newHarness(t)

	w := h.do(http.MethodPost, deptPath(h, "/"+h.child.ID.String()+"/move"), map[string]any{"parentId": nil})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, h.depts.moveCalled)
	assert.Nil(t, h.depts.moveParent)

	w = h.do(http.MethodPost, deptPath(h, "/"+h.child.ID.String()+"/move"), map[string]any{"parentId": h.child.ID.String()})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, apperror.CodeCircularHierarchy, decodeBody(t, w)["code"])
}

func TestRouter_Deactivate_MapsConflict(t *testing.T) {
	h := newHarness(t)

	w := h.do(http.MethodPost, deptPath(h, "/"+h.child.ID.String()+"/deactivate"), nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, apperror.CodeDepartmentAlreadyInactive, decodeBody(t, w)["code"])

	w = h.do(http.MethodPost, deptPath(h, "/"+h.child.ID.String()+"/reactivate"), nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_UnknownError_IsHidden(t *testing.T) {
	h := newHarness(t)
	h.versions.err = errors.New("connection refused")

	w := h.do(http.MethodGet, "/api/v1/versions/"+id.New().String(), nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "connection refused")
}
