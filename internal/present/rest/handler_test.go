package rest

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/totegamma/dms/internal/domain"
	"github.com/totegamma/dms/internal/infra/blob"
	"github.com/totegamma/dms/internal/infra/memory"
	"github.com/totegamma/dms/internal/usecase"
)

func newTestServer(t *testing.T) *echo.Echo {
	t.Helper()
	docs := memory.NewDocumentRepository()
	users := memory.NewUserRepository()
	events := memory.NewPublisher()
	blobs := blob.NewStore("mem://localhost/" + t.Name())

	h := NewHandler(
		usecase.NewWorkflowUsecase(docs, users, events, usecase.WorkflowOptions{}),
		usecase.NewDocumentUsecase(docs, blobs, events),
		usecase.NewUserUsecase(users),
		nil,
	)
	return NewServer(h)
}

func do(t *testing.T, e *echo.Echo, method, target string, body []byte, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set(echo.HeaderContentType, contentType)
	}
	res := httptest.NewRecorder()
	e.ServeHTTP(res, req)
	return res
}

func doJSON(t *testing.T, e *echo.Echo, method, target string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body []byte
	if payload != nil {
		body, _ = json.Marshal(payload)
	}
	return do(t, e, method, target, body, echo.MIMEApplicationJSON)
}

func decode[T any](t *testing.T, res *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(res.Body.Bytes(), &v); err != nil {
		t.Fatalf("failed to decode %q: %v", res.Body.String(), err)
	}
	return v
}

func upload(t *testing.T, e *echo.Echo, filename, content string) string {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, _ := w.CreateFormFile("file", filename)
	part.Write([]byte(content))
	w.Close()

	res := do(t, e, http.MethodPost, "/files/upload/", buf.Bytes(), w.FormDataContentType())
	if res.Code != http.StatusCreated {
		t.Fatalf("upload: expected 201 got %d: %s", res.Code, res.Body.String())
	}
	out := decode[map[string]string](t, res)
	if out["filename"] != filename {
		t.Fatalf("upload: expected filename %s got %s", filename, out["filename"])
	}
	return out["document_id"]
}

func importUsers(t *testing.T, e *echo.Echo, names ...string) []string {
	t.Helper()
	var list []domain.NewUser
	for _, n := range names {
		list = append(list, domain.NewUser{Name: n, Designation: "Officer", Office: "HQ", Email: n + "@example.com", Password: n + "-pw"})
	}
	res := doJSON(t, e, http.MethodPost, "/users/add", map[string]any{"List_Of_User": list})
	if res.Code != http.StatusCreated {
		t.Fatalf("import: expected 201 got %d: %s", res.Code, res.Body.String())
	}
	out := decode[struct {
		Users []domain.User `json:"users"`
	}](t, res)
	ids := make([]string, 0, len(out.Users))
	for _, u := range out.Users {
		ids = append(ids, u.ID)
	}
	return ids
}

type visibleResponse struct {
	Documents []struct {
		DocumentID     string `json:"document_id"`
		ApprovalStatus *bool  `json:"approval_status"`
		Priority       int    `json:"priority"`
	} `json:"associated_documents"`
}

func TestApprovalFlow(t *testing.T) {
	e := newTestServer(t)
	ids := importUsers(t, e, "asha", "ravi")
	asha, ravi := ids[0], ids[1]
	docID := upload(t, e, "budget.txt", "FY26 budget")

	res := doJSON(t, e, http.MethodPost, "/associate/"+docID+"/"+asha, map[string]int{"priority": 1})
	if res.Code != http.StatusOK {
		t.Fatalf("associate: expected 200 got %d: %s", res.Code, res.Body.String())
	}
	res = do(t, e, http.MethodPost, "/associate/"+docID+"/"+ravi+"?priority=2", nil, "")
	if res.Code != http.StatusOK {
		t.Fatalf("associate with query: expected 200 got %d: %s", res.Code, res.Body.String())
	}

	visible := decode[visibleResponse](t, do(t, e, http.MethodGet, "/associated_documents/"+ravi, nil, ""))
	if len(visible.Documents) != 0 {
		t.Fatalf("expected document hidden from ravi, got %+v", visible.Documents)
	}
	visible = decode[visibleResponse](t, do(t, e, http.MethodGet, "/associated_documents/"+asha, nil, ""))
	if len(visible.Documents) != 1 || visible.Documents[0].DocumentID != docID {
		t.Fatalf("expected document visible to asha, got %+v", visible.Documents)
	}

	res = do(t, e, http.MethodPost, "/approve/"+docID+"/"+asha, nil, "")
	detail := decode[map[string]string](t, res)
	if detail["detail"] != "Approved document "+docID+" for user "+asha {
		t.Fatalf("unexpected approve detail %q", detail["detail"])
	}

	visible = decode[visibleResponse](t, do(t, e, http.MethodGet, "/associated_documents/"+ravi, nil, ""))
	if len(visible.Documents) != 1 {
		t.Fatalf("expected document visible to ravi after approval, got %+v", visible.Documents)
	}
	if visible.Documents[0].ApprovalStatus != nil || visible.Documents[0].Priority != 2 {
		t.Fatalf("expected ravi pending at priority 2, got %+v", visible.Documents[0])
	}

	res = doJSON(t, e, http.MethodPut, "/status/"+docID+"/"+ravi, map[string]any{"approval_status": false})
	detail = decode[map[string]string](t, res)
	if !strings.HasPrefix(detail["detail"], "Rejected document") {
		t.Fatalf("unexpected status detail %q", detail["detail"])
	}

	listed := decode[struct {
		Users []struct {
			User           domain.User `json:"user"`
			ApprovalStatus *bool       `json:"approval_status"`
			Priority       int         `json:"priority"`
		} `json:"associated_users"`
	}](t, do(t, e, http.MethodGet, "/associated_users/"+docID, nil, ""))
	if len(listed.Users) != 2 {
		t.Fatalf("expected 2 associated users got %d", len(listed.Users))
	}
	if listed.Users[0].ApprovalStatus == nil || !*listed.Users[0].ApprovalStatus {
		t.Fatalf("expected asha approved")
	}
	if listed.Users[1].ApprovalStatus == nil || *listed.Users[1].ApprovalStatus {
		t.Fatalf("expected ravi rejected")
	}
	if listed.Users[1].User.Name != "ravi" {
		t.Fatalf("expected resolved profile, got %+v", listed.Users[1].User)
	}

	res = do(t, e, http.MethodPost, "/reset/"+docID+"/"+ravi, nil, "")
	detail = decode[map[string]string](t, res)
	if !strings.HasPrefix(detail["detail"], "Reset approval") {
		t.Fatalf("unexpected reset detail %q", detail["detail"])
	}

	res = do(t, e, http.MethodDelete, "/disassociate/"+docID+"/"+asha, nil, "")
	if res.Code != http.StatusOK {
		t.Fatalf("disassociate: expected 200 got %d", res.Code)
	}
	res = do(t, e, http.MethodDelete, "/disassociate/"+docID+"/"+asha, nil, "")
	if res.Code != http.StatusOK {
		t.Fatalf("repeated disassociate: expected 200 got %d", res.Code)
	}
}

func TestFileLifecycle(t *testing.T) {
	e := newTestServer(t)
	docID := upload(t, e, "notes.txt", "hello")

	res := do(t, e, http.MethodGet, "/files/"+docID+"/download", nil, "")
	if res.Code != http.StatusOK {
		t.Fatalf("download: expected 200 got %d", res.Code)
	}
	if res.Body.String() != "hello" {
		t.Fatalf("download: unexpected body %q", res.Body.String())
	}
	if !strings.Contains(res.Header().Get(echo.HeaderContentDisposition), "notes.txt") {
		t.Fatalf("download: missing content disposition")
	}

	files := decode[struct {
		Files []domain.Document `json:"files"`
	}](t, do(t, e, http.MethodGet, "/files/", nil, ""))
	if len(files.Files) != 1 || files.Files[0].ID != docID {
		t.Fatalf("unexpected file listing %+v", files.Files)
	}

	detail := decode[map[string]string](t, do(t, e, http.MethodDelete, "/files/delete/notes.txt", nil, ""))
	if detail["detail"] != "Deleted notes.txt" {
		t.Fatalf("unexpected delete detail %q", detail["detail"])
	}
	res = do(t, e, http.MethodDelete, "/files/delete/notes.txt", nil, "")
	detail = decode[map[string]string](t, res)
	if res.Code != http.StatusOK || detail["detail"] != "notes.txt not found" {
		t.Fatalf("unexpected second delete %d %q", res.Code, detail["detail"])
	}

	res = do(t, e, http.MethodGet, "/files/"+docID+"/download", nil, "")
	if res.Code != http.StatusNotFound {
		t.Fatalf("download after delete: expected 404 got %d", res.Code)
	}
}

func TestErrorMapping(t *testing.T) {
	e := newTestServer(t)
	ids := importUsers(t, e, "mei")
	docID := upload(t, e, "a.txt", "a")

	tests := []struct {
		name   string
		method string
		target string
		body   any
		code   int
	}{
		{"users import duplicate email", http.MethodPost, "/users/add", map[string]any{"List_Of_User": []domain.NewUser{{Name: "mei", Email: "MEI@example.com", Password: "p"}}}, http.StatusConflict},
		{"unknown document", http.MethodPost, "/associate/nope/" + ids[0], nil, http.StatusNotFound},
		{"unknown user", http.MethodPost, "/associate/" + docID + "/nope", nil, http.StatusNotFound},
		{"negative priority", http.MethodPost, "/associate/" + docID + "/" + ids[0] + "?priority=-1", nil, http.StatusBadRequest},
		{"bad status", http.MethodPut, "/status/" + docID + "/" + ids[0], map[string]any{"approval_status": "maybe"}, http.StatusBadRequest},
		{"visible for unknown user", http.MethodGet, "/associated_documents/nope", nil, http.StatusNotFound},
		{"users of unknown document", http.MethodGet, "/associated_users/nope", nil, http.StatusNotFound},
		{"wrong password", http.MethodPost, "/login", map[string]string{"email": "mei@example.com", "password": "x"}, http.StatusUnauthorized},
		{"right password", http.MethodPost, "/login", map[string]string{"email": "mei@example.com", "password": "mei-pw"}, http.StatusOK},
		{"realtime without redis", http.MethodGet, "/realtime?user_id=" + ids[0], nil, http.StatusServiceUnavailable},
		{"realtime without channel", http.MethodGet, "/realtime", nil, http.StatusBadRequest},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res := doJSON(t, e, tc.method, tc.target, tc.body)
			if res.Code != tc.code {
				t.Fatalf("expected %d got %d: %s", tc.code, res.Code, res.Body.String())
			}
		})
	}
}

func TestUploadSameNameConflicts(t *testing.T) {
	e := newTestServer(t)
	docID := upload(t, e, "a.txt", "first")

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, _ := w.CreateFormFile("file", "a.txt")
	part.Write([]byte("second"))
	w.Close()

	res := do(t, e, http.MethodPost, "/files/upload", buf.Bytes(), w.FormDataContentType())
	if res.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d: %s", res.Code, res.Body.String())
	}

	res = do(t, e, http.MethodGet, "/files/"+docID+"/download", nil, "")
	if res.Body.String() != "first" {
		t.Fatalf("expected original content, got %q", res.Body.String())
	}
}
