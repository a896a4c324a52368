package echoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/attendance"
	"github.com/trezcool/shule/core/school"
	"github.com/trezcool/shule/core/user"
	inmemdb "github.com/trezcool/shule/storage/database/inmem"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type testLogger struct{}

func (testLogger) Enable(bool)                  {}
func (testLogger) Debug(string, ...interface{}) {}
func (testLogger) Info(string, ...interface{})  {}
func (testLogger) Warn(string, ...interface{})  {}
func (testLogger) Error(string, ...interface{}) {}
func (testLogger) Fatal(string, ...interface{}) {}

type testDeps struct {
	server     *Server
	userRepo   user.Repository
	schoolRepo school.Repository
	attRepo    attendance.Repository
}

func setup(t *testing.T) *testDeps {
	t.Helper()

	conf := &core.Config{
		TestMode:  true,
		AppName:   "Shule",
		SecretKey: []byte("secret"),
	}
	conf.Server.JWTExpirationDelta = 10 * time.Minute
	conf.Server.JWTRefreshExpirationDelta = 4 * time.Hour

	db := inmemdb.Open()
	userRepo := inmemdb.NewUserRepository(db)
	schoolRepo := inmemdb.NewSchoolRepository(db)
	attRepo := inmemdb.NewAttendanceRepository(db)

	usrSvc := user.NewService(userRepo)
	schoolSvc := school.NewService(schoolRepo)
	attSvc := attendance.NewService(attRepo, schoolSvc, school.NewGate(schoolRepo))

	validate := validator.New()
	translator := newTestTranslator(t)
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	school.InitValidators(validate, translator)
	attendance.InitValidators(validate, translator)

	server := NewServer(ServerDeps{
		Conf:          conf,
		Logger:        testLogger{},
		UserSvc:       usrSvc,
		SchoolSvc:     schoolSvc,
		AttendanceSvc: attSvc,
		Validate:      validate,
		Translator:    translator,
	})
	return &testDeps{server: server, userRepo: userRepo, schoolRepo: schoolRepo, attRepo: attRepo}
}

func newTestTranslator(t *testing.T) ut.Translator {
	t.Helper()
	lang := en.New()
	translator, found := ut.New(lang, lang).GetTranslator("en")
	if !found {
		t.Fatal("translator not found")
	}
	return translator
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, usr user.User) string {
	t.Helper()
	claims := GetUserClaims(usr)
	token, err := GenerateToken(claims)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	return assert.ElementsMatch(t, j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

// fixtures

func createUser(t *testing.T, repo user.Repository, name, uname, email, pwd string, roles []string, isActive bool) user.User {
	t.Helper()
	now := time.Now().UTC()
	usr := user.User{
		Name:      name,
		Username:  uname,
		Email:     email,
		Roles:     roles,
		IsActive:  isActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("createUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("createUser() failed: %v", err)
	}
	return usr
}

func createClass(t *testing.T, repo school.Repository, name, teacherID string) school.Class {
	t.Helper()
	now := time.Now().UTC()
	cls, err := repo.CreateClass(context.Background(), school.Class{
		Name:         name,
		Capacity:     30,
		AcademicYear: "2025-2026",
		Semester:     school.SemesterFall,
		TeacherID:    teacherID,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("createClass() failed: %v", err)
	}
	return cls
}

func createStudent(t *testing.T, repo school.Repository, fname, lname, email, classID string) school.Student {
	t.Helper()
	now := time.Now().UTC()
	std, err := repo.CreateStudent(context.Background(), school.Student{
		FirstName:     fname,
		LastName:      lname,
		Email:         email,
		DateOfBirth:   time.Date(2010, time.May, 12, 0, 0, 0, 0, time.UTC),
		AdmissionDate: now,
		ClassID:       classID,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	if err != nil {
		t.Fatalf("createStudent() failed: %v", err)
	}
	return std
}

func createRecord(t *testing.T, repo attendance.Repository, classID, studentID string, day attendance.Day, status, markedBy string) attendance.Record {
	t.Helper()
	now := time.Now().UTC()
	rec, err := repo.CreateRecord(context.Background(), attendance.Record{
		ClassID:   classID,
		StudentID: studentID,
		Date:      day,
		Status:    status,
		MarkedBy:  markedBy,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("createRecord() failed: %v", err)
	}
	return rec
}
