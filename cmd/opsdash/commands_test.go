package main

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/gorilla/mux"

	"github.com/nao1215/opsdash/internal/controller"
	"github.com/nao1215/opsdash/internal/model"
)

const activityJSON = `[
	{"id": 2, "username": "alpha", "action_type": "feature_access", "feature_name": "uav", "ip_address": "10.0.0.2", "timestamp": "2025-03-09T11:00:00"},
	{"id": 1, "username": "alpha", "action_type": "login", "ip_address": "10.0.0.1", "timestamp": "2025-03-09T10:00:00"}
]`

// TestLogsCmd tests the filter query and the CSV export.
func TestLogsCmd(t *testing.T) {
	t.Parallel()

	var (
		mu      sync.Mutex
		queries []string
	)
	r := mux.NewRouter()
	r.HandleFunc("/api/activity-logs", func(w http.ResponseWriter, req *http.Request) {
		mu.Lock()
		queries = append(queries, req.URL.RawQuery)
		mu.Unlock()
		if req.URL.Query().Get("export") == "csv" {
			w.Header().Set("Content-Type", "text/csv")
			_, _ = io.WriteString(w, "id,username\n2,alpha\n1,alpha\n")
			return
		}
		writeJSON(w, http.StatusOK, activityJSON)
	}).Methods(http.MethodGet)

	cfgPath := fakeBackend(t, r)
	dir := t.TempDir()
	out, err := runCLI(t, "logs", "-c", cfgPath, "--user", "alpha", "--export", "-d", dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(out, "feature_access") && !strings.Contains(out, "uav") {
		t.Errorf("log table missing from output:\n%s", out)
	}
	mu.Lock()
	for _, q := range queries {
		if !strings.Contains(q, "username=alpha") {
			t.Errorf("query %q lacks the user filter", q)
		}
	}
	if len(queries) != 2 {
		t.Errorf("requests = %d, want list and export", len(queries))
	}
	mu.Unlock()

	matches, err := filepath.Glob(filepath.Join(dir, "activity_logs_*.csv"))
	if err != nil || len(matches) != 1 {
		t.Fatalf("export file not written: %v %v", matches, err)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("failed to read export: %v", err)
	}
	if !strings.HasPrefix(string(data), "id,username") {
		t.Errorf("export = %q", data)
	}
}

// TestStatsCmd tests the statistics report.
func TestStatsCmd(t *testing.T) {
	t.Parallel()

	r := mux.NewRouter()
	r.HandleFunc("/api/dashboard-stats", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, `{"total_soldiers":4,"active_today":2,"soldier_summary":[{"username":"alpha","total_actions":5,"active_days":2}]}`)
	}).Methods(http.MethodGet)

	out, err := runCLI(t, "stats", "-c", fakeBackend(t, r))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "alpha") {
		t.Errorf("soldier row missing:\n%s", out)
	}
}

// TestWeatherCmd tests a successful lookup and a domain failure in JSON
// mode.
func TestWeatherCmd(t *testing.T) {
	t.Parallel()

	r := mux.NewRouter()
	r.HandleFunc("/api/weather", func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Query().Get("location") == "Atlantis" {
			writeJSON(w, http.StatusOK, `{"status":"error","message":"City not found"}`)
			return
		}
		writeJSON(w, http.StatusOK, `{"city":"Oslo","country":"NO","weather_main":"Snow","weather_desc":"light snow","temperature":-3.5,"humidity":80,"status":"success","sunrise":0,"sunset":0}`)
	}).Methods(http.MethodGet)
	cfgPath := fakeBackend(t, r)

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		out, err := runCLI(t, "weather", "Oslo", "-c", cfgPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "Oslo") {
			t.Errorf("output lacks the city:\n%s", out)
		}
	})

	t.Run("domain failure in json", func(t *testing.T) {
		t.Parallel()
		out, err := runCLI(t, "weather", "Atlantis", "-c", cfgPath, "--json")
		if err == nil {
			t.Fatal("expected an error")
		}
		if !strings.Contains(err.Error(), "City not found") {
			t.Errorf("error = %v", err)
		}
		if !strings.Contains(out, "City not found") {
			t.Errorf("json output lacks the error:\n%s", out)
		}
	})
}

// TestInboxSendCmd tests the request body for direct and broadcast
// messages.
func TestInboxSendCmd(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		args          []string
		wantRecipient string
		wantBroadcast bool
		wantTarget    string
	}{
		{"direct", []string{"--to", "alpha", "Hold", "position"}, "alpha", false, "to alpha"},
		{"broadcast", []string{"-b", "All", "units"}, "", true, "to everyone"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var body atomic.Value
			r := mux.NewRouter()
			r.HandleFunc("/feature5/send_message", func(w http.ResponseWriter, req *http.Request) {
				raw, _ := io.ReadAll(req.Body)
				body.Store(raw)
				writeJSON(w, http.StatusOK, `{"success":true,"message_id":9}`)
			}).Methods(http.MethodPost)
			r.HandleFunc("/feature5/get_messages", func(w http.ResponseWriter, _ *http.Request) {
				writeJSON(w, http.StatusOK, `{"success":true,"messages":[],"unread_count":0}`)
			}).Methods(http.MethodGet)

			args := append([]string{"inbox", "send", "-c", fakeBackend(t, r)}, tt.args...)
			out, err := runCLI(t, args...)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !strings.Contains(out, controller.MessageSentText) || !strings.Contains(out, tt.wantTarget) {
				t.Errorf("output = %s", out)
			}

			raw, _ := body.Load().([]byte)
			var req model.SendMessageRequest
			if err := sonic.Unmarshal(raw, &req); err != nil {
				t.Fatalf("request body is not JSON: %v", err)
			}
			if req.IsBroadcast != tt.wantBroadcast {
				t.Errorf("is_broadcast = %v, want %v", req.IsBroadcast, tt.wantBroadcast)
			}
			switch {
			case tt.wantBroadcast && req.Recipient != nil:
				t.Errorf("broadcast recipient = %q, want null", *req.Recipient)
			case !tt.wantBroadcast && (req.Recipient == nil || *req.Recipient != tt.wantRecipient):
				t.Errorf("recipient = %v, want %q", req.Recipient, tt.wantRecipient)
			}
		})
	}
}

// TestInboxSendCmdNeedsRecipient tests that a direct message without --to
// is refused before any request.
func TestInboxSendCmdNeedsRecipient(t *testing.T) {
	t.Parallel()

	var sends atomic.Int64
	r := mux.NewRouter()
	r.HandleFunc("/feature5/send_message", func(w http.ResponseWriter, _ *http.Request) {
		sends.Add(1)
		writeJSON(w, http.StatusOK, `{"success":true}`)
	}).Methods(http.MethodPost)

	if _, err := runCLI(t, "inbox", "send", "-c", fakeBackend(t, r), "hello"); err == nil {
		t.Error("expected an error")
	}
	if sends.Load() != 0 {
		t.Error("no request should be sent")
	}
}

// TestInboxListCmd tests the listing and the mark-read pass.
func TestInboxListCmd(t *testing.T) {
	t.Parallel()

	var marked atomic.Int64
	r := mux.NewRouter()
	r.HandleFunc("/feature5/get_messages", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, `{
			"success": true,
			"unread_count": 2,
			"messages": [
				{"id": 3, "sender": "hq", "message": "Hold position", "timestamp": "2025-03-09T11:58:00", "is_read": false, "is_broadcast": true, "message_type": "received"},
				{"id": 2, "sender": "alpha", "message": "Copy", "timestamp": "2025-03-09T10:00:00", "is_read": false, "is_broadcast": false, "message_type": "received"}
			]
		}`)
	}).Methods(http.MethodGet)
	r.HandleFunc("/feature5/mark_read", func(w http.ResponseWriter, _ *http.Request) {
		marked.Add(1)
		writeJSON(w, http.StatusOK, `{"success":true}`)
	}).Methods(http.MethodPost)

	out, err := runCLI(t, "inbox", "list", "-c", fakeBackend(t, r), "--mark-read")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "Hold position") {
		t.Errorf("message missing:\n%s", out)
	}
	if !strings.Contains(out, "2 of 2 messages marked read") {
		t.Errorf("mark-read summary missing:\n%s", out)
	}
	if marked.Load() < 2 {
		t.Errorf("mark-read requests = %d, want 2", marked.Load())
	}
}

const analysisResultJSON = `{
	"success": true,
	"tactical_options": [
		{"rank": 1, "name": "Flank", "description": "Move east", "success_probability": 72.5, "confidence_score": 60, "risk_level": "MEDIUM", "expected_casualties": 3, "time_required": "2h", "resource_requirement": "2 squads"}
	],
	"fog_of_war": {"uncertainty_factor": 35, "intelligence_quality": "MODERATE", "visibility_conditions": "GOOD"},
	"force_analysis": {"force_ratio": "2.0:1", "assessment": "FAVORABLE"},
	"commander_recommendation": {"recommended_action": "Flank", "rationale": "Best odds", "confidence": "HIGH"}
}`

// TestAnalyzeCmdRestore tests that a saved form is restored under its
// session key and that civilian presence must be given again.
func TestAnalyzeCmdRestore(t *testing.T) {
	t.Parallel()

	var (
		mu     sync.Mutex
		bodies []model.AnalysisRequest
	)
	r := mux.NewRouter()
	r.HandleFunc("/feature1/analyze", func(w http.ResponseWriter, req *http.Request) {
		raw, _ := io.ReadAll(req.Body)
		var body model.AnalysisRequest
		_ = sonic.Unmarshal(raw, &body)
		mu.Lock()
		bodies = append(bodies, body)
		mu.Unlock()
		writeJSON(w, http.StatusOK, analysisResultJSON)
	}).Methods(http.MethodPost)

	cfgPath := fakeBackend(t, r)
	dataDir := t.TempDir()

	out, err := runCLI(t, "analyze", "-c", cfgPath, "--data-dir", dataDir, "--session", "s1",
		"--friendly", "100", "--enemy", "50", "--terrain", "urban", "--weather", "clear",
		"--visibility", "7", "--intel", "6", "--mission", "assault", "--time", "immediate",
		"--civilians", "high")
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if !strings.Contains(out, "Flank") || !strings.Contains(out, "s1") {
		t.Errorf("first run output:\n%s", out)
	}

	if _, err := runCLI(t, "analyze", "-c", cfgPath, "--data-dir", dataDir, "--session", "s1",
		"--restore", "--enemy", "80", "--civilians", "none"); err != nil {
		t.Fatalf("restored run: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(bodies) != 2 {
		t.Fatalf("analyze requests = %d, want 2", len(bodies))
	}
	second := bodies[1]
	if second.FriendlyForces != "100" || second.Terrain != "urban" || second.MissionType != "assault" {
		t.Errorf("restored form = %+v", second)
	}
	if second.EnemyForces != "80" {
		t.Errorf("enemy = %q, want the flag value 80", second.EnemyForces)
	}
	if second.CivilianPresence != "none" {
		t.Errorf("civilians = %q, want none", second.CivilianPresence)
	}
}

// TestAnalyzeCmdRestoreNeedsSession tests the flag check.
func TestAnalyzeCmdRestoreNeedsSession(t *testing.T) {
	t.Parallel()

	cfgPath := fakeBackend(t, mux.NewRouter())
	_, err := runCLI(t, "analyze", "-c", cfgPath, "--data-dir", t.TempDir(), "--restore")
	if err == nil || !strings.Contains(err.Error(), "--restore needs --session") {
		t.Errorf("expected a session error, got %v", err)
	}
}

const imageResultsJSON = `{
	"success": true,
	"processed_images": [{
		"original_name": "a.png",
		"processed_name": "det_a.png",
		"url": "/static/det_a.png",
		"object_count": 1,
		"detections": [{"class": "person", "confidence": 0.91, "bbox": [1, 2, 30, 40]}]
	}],
	"total_objects": 1,
	"object_counts": {"person": 1},
	"processing_time": 0.5,
	"average_confidence": 0.91,
	"detection_filter": "person"
}`

// TestDetectImagesCmd tests the upload, the filter, the archive download
// and the session cleanup.
func TestDetectImagesCmd(t *testing.T) {
	t.Parallel()

	var (
		processBody atomic.Value
		cleanups    atomic.Int64
	)
	r := mux.NewRouter()
	r.HandleFunc("/feature3/upload_images", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, `{"success":true,"session_id":"img-1","uploaded_count":1}`)
	}).Methods(http.MethodPost)
	r.HandleFunc("/feature3/process_images", func(w http.ResponseWriter, req *http.Request) {
		raw, _ := io.ReadAll(req.Body)
		processBody.Store(string(raw))
		writeJSON(w, http.StatusOK, imageResultsJSON)
	}).Methods(http.MethodPost)
	r.HandleFunc("/feature3/download_all_images/{sid}", func(w http.ResponseWriter, req *http.Request) {
		if mux.Vars(req)["sid"] != "img-1" {
			http.NotFound(w, req)
			return
		}
		w.Header().Set("Content-Type", "application/zip")
		_, _ = io.WriteString(w, "PK\x03\x04zip")
	}).Methods(http.MethodGet)
	r.HandleFunc("/feature3/cleanup_session/{sid}", func(w http.ResponseWriter, _ *http.Request) {
		cleanups.Add(1)
		writeJSON(w, http.StatusOK, `{"success":true}`)
	}).Methods(http.MethodPost)

	cfgPath := fakeBackend(t, r)
	src := t.TempDir()
	image := writeImage(t, src, "a.png")
	notes := filepath.Join(src, "notes.txt")
	if err := os.WriteFile(notes, []byte("not an image"), 0600); err != nil {
		t.Fatal(err)
	}
	dl := t.TempDir()

	out, err := runCLI(t, "detect", "images", "-c", cfgPath, "-f", "person", "--download", "-d", dl, image, notes)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "det_a.png") && !strings.Contains(out, "a.png") {
		t.Errorf("image row missing:\n%s", out)
	}
	if body, _ := processBody.Load().(string); !strings.Contains(body, `"detection_filter":"person"`) {
		t.Errorf("process body = %s", body)
	}
	matches, _ := filepath.Glob(filepath.Join(dl, "detected_images_*.zip"))
	if len(matches) != 1 {
		t.Errorf("archive not saved: %v", matches)
	}
	if cleanups.Load() != 1 {
		t.Errorf("cleanup requests = %d, want 1", cleanups.Load())
	}
}

// TestDetectImagesCmdNoImages tests that a run without usable files makes
// no request.
func TestDetectImagesCmdNoImages(t *testing.T) {
	t.Parallel()

	var uploads atomic.Int64
	r := mux.NewRouter()
	r.HandleFunc("/feature3/upload_images", func(w http.ResponseWriter, _ *http.Request) {
		uploads.Add(1)
		writeJSON(w, http.StatusOK, `{"success":true,"session_id":"img-1"}`)
	}).Methods(http.MethodPost)

	notes := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(notes, []byte("not an image"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := runCLI(t, "detect", "images", "-c", fakeBackend(t, r), notes); err == nil {
		t.Error("expected an error")
	}
	if uploads.Load() != 0 {
		t.Error("nothing should be uploaded")
	}
}

// TestLiveListCmd tests the camera listing.
func TestLiveListCmd(t *testing.T) {
	t.Parallel()

	r := mux.NewRouter()
	r.HandleFunc("/feature4/api/cameras", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, `{"success":true,"cameras":[{"id":0,"name":"Laptop","type":"local"},{"id":"rtsp","name":"RTSP Stream","type":"rtsp"}]}`)
	}).Methods(http.MethodGet)

	out, err := runCLI(t, "live", "--list", "-c", fakeBackend(t, r))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "LAPTOP") || !strings.Contains(out, "rtsp") {
		t.Errorf("camera rows missing:\n%s", out)
	}
}

func TestUAVCmdDebugSession(t *testing.T) {
	t.Parallel()

	r := mux.NewRouter()
	r.HandleFunc("/feature2/debug-session", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, `{"username":"alpha","role":"commander","session_keys":["username","role"],"has_username":true,"role_check":true}`)
	}).Methods(http.MethodGet)
	cfg := fakeBackend(t, r)

	out, err := runCLI(t, "uav", "--debug-session", "-c", cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"alpha", "commander", "username, role"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	if _, err := runCLI(t, "uav", "-c", cfg); err == nil {
		t.Error("expected an error without images")
	}
}
