package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/trezcool/smartseats/apps/api/echo"
	"github.com/trezcool/smartseats/core/student"
	testutil "github.com/trezcool/smartseats/tests"
)

func fPtr(f float64) *float64 { return &f }
func sPtr(s string) *string   { return &s }

func Test_studentApi_create(t *testing.T) {
	db.Reset()

	usr := testutil.CreateUser(t, usrRepo, "Jane", "jane@test.cd", "s3cr3tp@ss")
	testutil.CreateStudent(t, stdRepo, "Ali Taken", "Year 9", 80)
	token := getToken(t, usr)

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "required fields", token: token, wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"name":      "this field is required",
				"yeargroup": "this field is required",
			}),
		},
		{
			name: "attendance out of range", token: token, wantCode: http.StatusBadRequest,
			body:     marchallObj(t, student.NewStudent{Name: "Ali", Yeargroup: "Year 9", Attendance: fPtr(101)}),
			wantData: marchallObj(t, map[string]string{"attendance": "attendance must be between 0 and 100"}),
		},
		{
			name: "duplicate name in yeargroup", token: token, wantCode: http.StatusConflict,
			body:     marchallObj(t, student.NewStudent{Name: "Ali Taken", Yeargroup: "Year 9"}),
			wantData: marchallObj(t, map[string]string{"name": "a student with the same name and year group already exists"}),
		},
		{
			name: "create ok", token: token, wantCode: http.StatusCreated,
			body: marchallObj(t, student.NewStudent{Name: "Ali", Yeargroup: "Year 9", Notes: "new kid"}),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/api/students"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)

			if tt.wantCode == http.StatusCreated {
				if rec.Code != tt.wantCode {
					t.Fatalf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
				}
				var std student.Student
				if err := json.Unmarshal(rec.Body.Bytes(), &std); err != nil {
					t.Fatalf("json.Unmarshal(): %v", err)
				}
				if std.ID.IsZero() {
					t.Error("failed! empty id")
				}
				if std.Attendance != 100 { // default when omitted
					t.Errorf("failed! attendance = %v; want 100", std.Attendance)
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_studentApi_query(t *testing.T) {
	db.Reset()

	usr := testutil.CreateUser(t, usrRepo, "Jane", "jane@test.cd", "s3cr3tp@ss")
	token := getToken(t, usr)

	t.Run("empty DB returns empty list", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/students", token)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallList(t)}, rec)
	})

	ali := testutil.CreateStudent(t, stdRepo, "Ali", "Year 9", 80)
	zoe := testutil.CreateStudent(t, stdRepo, "Zoe", "Year 10", 95)
	moe := testutil.CreateStudent(t, stdRepo, "Moe", "Year 9", 60)

	t.Run("sorted by name", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/students", token)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallList(t, ali, moe, zoe)}, rec)
	})
}

func Test_studentApi_search(t *testing.T) {
	db.Reset()

	usr := testutil.CreateUser(t, usrRepo, "Jane", "jane@test.cd", "s3cr3tp@ss")
	token := getToken(t, usr)

	ali := testutil.CreateStudent(t, stdRepo, "Ali Mwamba", "Year 9", 80)
	moe := testutil.CreateStudent(t, stdRepo, "Moe Ali", "Year 9", 60)
	testutil.CreateStudent(t, stdRepo, "Zoe", "Year 10", 95)

	path := func(q string) string {
		return "/api/students/search?" + url.Values{"q": {q}}.Encode()
	}
	empty := marchallList(t)

	tests := []httpTest{
		{name: "Auth required", path: path("ali"), wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "missing q", path: "/api/students/search", token: token, wantData: empty},
		{name: "blank q", path: path("   "), token: token, wantData: empty},
		{name: "no match", path: path("lol"), token: token, wantData: empty},
		{name: "case-insensitive match", path: path("aLI"), token: token, wantData: marchallList(t, ali, moe)},
		{name: "regex metachars are literal", path: path(".*"), token: token, wantData: empty},
	}
	for _, tt := range tests {
		tt.method = http.MethodGet
		if tt.wantCode == 0 {
			tt.wantCode = http.StatusOK
		}

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_studentApi_retrieve(t *testing.T) {
	db.Reset()

	usr := testutil.CreateUser(t, usrRepo, "Jane", "jane@test.cd", "s3cr3tp@ss")
	token := getToken(t, usr)
	ali := testutil.CreateStudent(t, stdRepo, "Ali", "Year 9", 80)

	tests := []httpTest{
		{name: "Auth required", path: "/api/students/" + ali.ID.Hex(), wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "invalid id", path: "/api/students/lol", token: token,
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "invalid id"}),
		},
		{
			name: "unknown id", path: "/api/students/" + primitive.NewObjectID().Hex(), token: token,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "student not found"}),
		},
		{
			name: "get ok", path: "/api/students/" + ali.ID.Hex(), token: token,
			wantCode: http.StatusOK, wantData: marchallObj(t, ali),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodGet

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_studentApi_update(t *testing.T) {
	db.Reset()

	usr := testutil.CreateUser(t, usrRepo, "Jane", "jane@test.cd", "s3cr3tp@ss")
	token := getToken(t, usr)
	ali := testutil.CreateStudent(t, stdRepo, "Ali", "Year 9", 80)

	tests := []httpTest{
		{
			name: "unknown id", path: "/api/students/" + primitive.NewObjectID().Hex(), token: token,
			body:     marchallObj(t, student.UpdateStudent{Name: sPtr("Moe")}),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "student not found"}),
		},
		{
			name: "attendance out of range", path: "/api/students/" + ali.ID.Hex(), token: token,
			body:     marchallObj(t, student.UpdateStudent{Attendance: fPtr(-1)}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"attendance": "attendance must be between 0 and 100"}),
		},
		{name: "partial update", path: "/api/students/" + ali.ID.Hex(), token: token, body: marchallObj(t, student.UpdateStudent{Notes: sPtr("captain")}), wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		tt.method = http.MethodPut

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)

			if tt.wantData == nil {
				if rec.Code != tt.wantCode {
					t.Fatalf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
				}
				var std student.Student
				if err := json.Unmarshal(rec.Body.Bytes(), &std); err != nil {
					t.Fatalf("json.Unmarshal(): %v", err)
				}
				if std.Notes != "captain" {
					t.Errorf("failed! notes = %q; want %q", std.Notes, "captain")
				}
				if std.Name != "Ali" { // untouched
					t.Errorf("failed! name = %q; want %q", std.Name, "Ali")
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_studentApi_destroy(t *testing.T) {
	db.Reset()

	usr := testutil.CreateUser(t, usrRepo, "Jane", "jane@test.cd", "s3cr3tp@ss")
	token := getToken(t, usr)
	ali := testutil.CreateStudent(t, stdRepo, "Ali", "Year 9", 80)
	cls := testutil.CreateClass(t, clsRepo, "Math 9", usr.ID)

	ctx := context.Background()
	if err := clsRepo.AddStudentsToClass(ctx, cls.ID, []primitive.ObjectID{ali.ID}); err != nil {
		t.Fatalf("AddStudentsToClass(): %v", err)
	}

	tests := []httpTest{
		{
			name: "unknown id", path: "/api/students/" + primitive.NewObjectID().Hex(), token: token,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "student not found"}),
		},
		{
			name: "delete ok", path: "/api/students/" + ali.ID.Hex(), token: token,
			wantCode: http.StatusOK, wantData: marchallObj(t, echoapi.SuccessResponse{Success: "Student deleted."}),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodDelete

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	// membership is gone with the student
	got, err := clsRepo.GetClassByID(ctx, cls.ID)
	if err != nil {
		t.Fatalf("GetClassByID(): %v", err)
	}
	if len(got.Students) != 0 {
		t.Errorf("failed! len(Students) = %d; want 0", len(got.Students))
	}
}

func Test_studentApi_removeFromClass(t *testing.T) {
	db.Reset()

	usr := testutil.CreateUser(t, usrRepo, "Jane", "jane@test.cd", "s3cr3tp@ss")
	token := getToken(t, usr)
	ali := testutil.CreateStudent(t, stdRepo, "Ali", "Year 9", 80)
	cls := testutil.CreateClass(t, clsRepo, "Math 9", usr.ID)

	ctx := context.Background()
	if err := clsRepo.AddStudentsToClass(ctx, cls.ID, []primitive.ObjectID{ali.ID}); err != nil {
		t.Fatalf("AddStudentsToClass(): %v", err)
	}

	tests := []httpTest{
		{
			name: "unknown class", path: "/api/students/" + primitive.NewObjectID().Hex() + "/" + ali.ID.Hex(), token: token,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "class not found"}),
		},
		{
			name: "remove ok", path: "/api/students/" + cls.ID.Hex() + "/" + ali.ID.Hex(), token: token,
			wantCode: http.StatusOK, wantData: marchallObj(t, echoapi.SuccessResponse{Success: "Student removed from class."}),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodDelete

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	got, err := clsRepo.GetClassByID(ctx, cls.ID)
	if err != nil {
		t.Fatalf("GetClassByID(): %v", err)
	}
	if len(got.Students) != 0 {
		t.Errorf("failed! len(Students) = %d; want 0", len(got.Students))
	}

	// student itself survives
	if _, err = stdRepo.GetStudentByID(ctx, ali.ID); err != nil {
		t.Errorf("GetStudentByID(): %v", err)
	}
}
