package tests

import (
	"archive/zip"
	"bytes"
	"net/http"
	"strings"
	"testing"

	"github.com/trezcool/smartseats/core/slides"
	testutil "github.com/trezcool/smartseats/tests"
)

func Test_slidesApi_generate(t *testing.T) {
	db.Reset()

	usr := testutil.CreateUser(t, usrRepo, "Jane", "jane@test.cd", "s3cr3tp@ss")
	token := getToken(t, usr)

	reqBody := func(topic string) []byte {
		return marchallObj(t, slides.Request{
			Topic:      topic,
			YearLevel:  "Year 9",
			Objectives: slides.StringList{"Understand fractions"},
			Course:     "Mathematics",
		})
	}

	t.Run("Auth required", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/api/generate-ppt", reqBody("Fractions"))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)}, rec)
	})

	t.Run("required fields", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/api/generate-ppt", token)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"topic":      "this field is required",
				"yearLevel":  "this field is required",
				"objectives": "this field is required",
				"course":     "this field is required",
			}),
		}, rec)
	})

	t.Run("malformed AI response", func(t *testing.T) {
		textGen.response, textGen.err = "here are your slides!", nil

		req, rec := newAuthRequest(http.MethodPost, "/api/generate-ppt", token, reqBody("Fractions"))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadGateway,
			wantData: marchallObj(t, httpErr{Error: "the AI response was not valid JSON"}),
		}, rec)
	})

	t.Run("generate ok", func(t *testing.T) {
		textGen.response = `[
			{"slideTitle": "What is a fraction?", "slidePoints": ["A part of a whole", "Written as a/b"]},
			{"slideTitle": "Adding fractions", "slidePoints": ["Find a common denominator"]}
		]`
		textGen.err = nil

		req, rec := newAuthRequest(http.MethodPost, "/api/generate-ppt", token, reqBody("Fractions"))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
		if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "presentationml") {
			t.Errorf("failed! content-type = %q", ct)
		}
		if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "Fractions.pptx") {
			t.Errorf("failed! content-disposition = %q", cd)
		}

		// the payload is a readable zip with one part per slide (title + 2 content)
		zr, err := zip.NewReader(bytes.NewReader(rec.Body.Bytes()), int64(rec.Body.Len()))
		if err != nil {
			t.Fatalf("zip.NewReader(): %v", err)
		}
		var slideParts int
		for _, f := range zr.File {
			if strings.HasPrefix(f.Name, "ppt/slides/slide") && strings.HasSuffix(f.Name, ".xml") {
				slideParts++
			}
		}
		if slideParts != 3 {
			t.Errorf("failed! slide parts = %d; want 3", slideParts)
		}
	})
}
