package main

import (
	"encoding/base64"
	"encoding/json"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"gameassets/pkg/models"

	"github.com/stretchr/testify/suite"
)

// fakeBackend is an in-memory stand-in for gameassetsd.
type fakeBackend struct {
	mu      sync.Mutex
	assets  map[string]models.Asset
	scores  []models.PlayerScore
	corrupt bool
}

func (f *fakeBackend) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /test_connection", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "Server is up!")
	})
	for _, kind := range []models.AssetKind{models.KindSprite, models.KindAudio} {
		mux.HandleFunc("POST /upload_"+string(kind), func(w http.ResponseWriter, r *http.Request) {
			f.upload(w, r, kind)
		})
		mux.HandleFunc("GET /"+string(kind)+"/{filename}", func(w http.ResponseWriter, r *http.Request) {
			f.mu.Lock()
			asset, ok := f.assets[string(kind)+"/"+r.PathValue("filename")]
			f.mu.Unlock()
			if !ok {
				http.Error(w, "Asset not found", http.StatusNotFound)
				return
			}
			_ = json.NewEncoder(w).Encode(asset)
		})
	}
	mux.HandleFunc("POST /player_score", func(w http.ResponseWriter, r *http.Request) {
		var score models.PlayerScore
		if err := json.NewDecoder(r.Body).Decode(&score); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		f.mu.Lock()
		f.scores = append(f.scores, score)
		f.mu.Unlock()
		_, _ = io.WriteString(w, "Score recorded, ID: 1")
	})
	mux.HandleFunc("GET /player_scores", func(w http.ResponseWriter, _ *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		_ = json.NewEncoder(w).Encode(f.scores)
	})
	return mux
}

func (f *fakeBackend) upload(w http.ResponseWriter, r *http.Request, kind models.AssetKind) {
	reader, err := r.MultipartReader()
	if err != nil {
		http.Error(w, "file parameter is required", http.StatusBadRequest)
		return
	}
	part, err := reader.NextPart()
	if err != nil {
		http.Error(w, "file parameter is required", http.StatusBadRequest)
		return
	}
	data, _ := io.ReadAll(part)
	if f.corrupt && len(data) > 0 {
		data[0] ^= 0xff
	}

	_, params, _ := mime.ParseMediaType(part.Header.Get("Content-Disposition"))
	name := params["filename"]

	f.mu.Lock()
	f.assets[string(kind)+"/"+name] = models.Asset{
		FileName:    name,
		ContentType: part.Header.Get("Content-Type"),
		Size:        int64(len(data)),
		Content:     base64.StdEncoding.EncodeToString(data),
	}
	f.mu.Unlock()

	_, _ = io.WriteString(w, kind.Label()+" metadata saved, ID: 1")
}

// SmokeTestSuite runs the smoke steps against a fake backend.
type SmokeTestSuite struct {
	suite.Suite
	backend *fakeBackend
	srv     *httptest.Server
}

func (s *SmokeTestSuite) SetupTest() {
	s.backend = &fakeBackend{assets: map[string]models.Asset{}}
	s.srv = httptest.NewServer(s.backend.handler())
}

func (s *SmokeTestSuite) TearDownTest() {
	s.srv.Close()
}

func (s *SmokeTestSuite) newTester() *tester {
	return newTester(config{
		serverURL:   s.srv.URL,
		fileSize:    256,
		parallel:    4,
		retryMax:    0,
		httpTimeout: 5 * time.Second,
	})
}

// TestRunAllSteps tests a full successful run.
func (s *SmokeTestSuite) TestRunAllSteps() {
	t := s.newTester()
	s.Require().NoError(t.run(s.T().Context()))

	s.Len(t.metrics.steps, 5)
	for _, step := range t.metrics.steps {
		s.True(step.Success, step.Name)
	}
	s.Equal(6, t.metrics.counts["upload"])
	s.Equal(6, t.metrics.counts["download"])
	s.EqualValues(12*256, t.metrics.totalBytes)
	s.Len(s.backend.assets, 6)
}

// TestContentMismatch tests that corrupted round trips are reported.
func (s *SmokeTestSuite) TestContentMismatch() {
	s.backend.corrupt = true

	err := s.newTester().run(s.T().Context())
	s.Require().Error(err)
	s.Contains(err.Error(), "content mismatch")
	s.Contains(err.Error(), "Step 2")
}

// TestUploadRejected tests that non-2xx responses fail the step.
func (s *SmokeTestSuite) TestUploadRejected() {
	s.srv.Close()
	s.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/test_connection" {
			_, _ = io.WriteString(w, "Server is up!")
			return
		}
		http.Error(w, "Invalid filename", http.StatusBadRequest)
	}))

	err := s.newTester().run(s.T().Context())
	s.Require().Error(err)
	s.Contains(err.Error(), "400")
}

// TestUploadBody tests the multipart body produced by the client.
func (s *SmokeTestSuite) TestUploadBody() {
	var gotName, gotType string
	var gotData []byte
	s.srv.Close()
	s.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		s.NoError(err)
		part, err := multipart.NewReader(r.Body, params["boundary"]).NextPart()
		s.Require().NoError(err)
		s.Equal("file", part.FormName())
		gotName = part.FileName()
		gotType = part.Header.Get("Content-Type")
		gotData, _ = io.ReadAll(part)
		_, _ = io.WriteString(w, "Sprite metadata saved, ID: abc")
	}))

	client := newAssetClient(s.srv.URL, time.Second, 0)
	resp, err := client.upload(s.T().Context(), models.KindSprite, "hero.png", "image/png", []byte("pixels"))
	s.Require().NoError(err)
	s.True(strings.HasSuffix(resp, "abc"))
	s.Equal("hero.png", gotName)
	s.Equal("image/png", gotType)
	s.Equal([]byte("pixels"), gotData)
}

func TestSmokeSuite(t *testing.T) {
	suite.Run(t, new(SmokeTestSuite))
}
