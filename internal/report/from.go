package report

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/opsdash/internal/model"
	"github.com/nao1215/opsdash/internal/view"
)

// FromError returns a failed result for the command title.
func FromError(title string, msg string) *Result {
	r := NewResult(title)
	r.Error = msg
	return r
}

// FromActivity lists activity log entries.
func FromActivity(logs []model.ActivityLog) *Result {
	r := NewResult("Activity Logs")
	r.Payload = logs
	r.AddField("Entries", strconv.Itoa(len(logs)))

	list := view.NewActivityList(logs)
	t := Table{Title: "Entries", Header: []string{"Time", "Soldier", "Action", "Feature", "IP"}}
	counts := map[string]int{}
	for _, it := range list.Items {
		t.Rows = append(t.Rows, []string{it.Time, it.Username, it.Label, it.Feature, it.IP})
		counts[it.Label]++
	}
	r.AddTable(t)
	r.Counts = countsOf(counts)
	return r
}

// FromStats summarizes dashboard statistics.
func FromStats(s *model.DashboardStats) *Result {
	r := NewResult("Dashboard Stats")
	r.Payload = s

	v := view.NewStatsView(*s)
	r.AddField("Total Soldiers", strconv.Itoa(v.TotalSoldiers)).
		AddField("Active Today", strconv.Itoa(v.ActiveToday)).
		AddField("Total Actions", strconv.Itoa(v.TotalActions))

	t := Table{Title: "Soldiers", Header: []string{"Soldier", "Actions", "Active Days", "Last Seen"}}
	for _, c := range v.Soldiers {
		t.Rows = append(t.Rows, []string{c.Username, strconv.Itoa(c.TotalActions), strconv.Itoa(c.ActiveDays), c.LastSeen})
		r.Counts = append(r.Counts, Count{Label: c.Username, Value: c.TotalActions})
	}
	r.AddTable(t)
	return r
}

// FromWeather summarizes current weather. Sun times are shown in loc.
func FromWeather(w *model.Weather, loc *time.Location) *Result {
	r := NewResult("Weather")
	r.Payload = w

	v := view.NewWeatherView(*w, loc)
	r.AddField("Location", v.Location).
		AddField("Status", v.StatusText()).
		AddField("Conditions", v.Icon+" "+v.Description).
		AddField("Temperature", v.Temperature).
		AddField("Feels Like", v.FeelsLike).
		AddField("Humidity", v.Humidity).
		AddField("Pressure", v.Pressure).
		AddField("Wind", v.WindSpeed+" "+v.WindDir).
		AddField("Visibility", v.Visibility).
		AddField("Clouds", v.Clouds).
		AddField("Sunrise", v.Sunrise).
		AddField("Sunset", v.Sunset)
	if v.Message != "" {
		r.AddField("Message", v.Message)
	}
	return r
}

// FromAnalysis lists tactical options and the recommendation.
func FromAnalysis(a *model.AnalysisResult) *Result {
	r := NewResult("Battlefield Analysis")
	r.Payload = a

	v := view.NewAnalysisView(*a)
	r.AddField("Recommended Action", v.Action).
		AddField("Rationale", v.Rationale).
		AddField("Confidence", v.Confidence).
		AddField("Force Ratio", v.ForceRatio).
		AddField("Assessment", v.Assessment).
		AddField("Uncertainty", v.Uncertainty).
		AddField("Intelligence", v.IntelQuality).
		AddField("Visibility", v.Visibility)

	t := Table{Title: "Tactical Options", Header: []string{"Option", "Name", "Success", "Confidence", "Risk", "Casualties", "Time", "Resources"}}
	for _, o := range v.Options {
		t.Rows = append(t.Rows, []string{o.Heading, o.Name, o.Success, o.Confidence, o.Risk, strconv.Itoa(o.Casualties), o.Time, o.Resources})
	}
	r.AddTable(t)
	return r
}

// FromImages summarizes an image detection job.
func FromImages(res *model.ImageResults) *Result {
	r := NewResult("Image Detection")
	r.Payload = res

	g := view.NewImageGallery(*res, nil)
	r.AddField("Filter", res.DetectionFilter.DisplayName()).
		AddField("Images Processed", strconv.Itoa(g.Stats.Processed)).
		AddField("Total Objects", strconv.Itoa(g.Stats.TotalObjects)).
		AddField("Average Confidence", g.Stats.AvgConfidence).
		AddField("Processing Time", g.Stats.ProcessingTime)

	t := Table{Title: "Processed Images", Header: []string{"Image", "Result", "Objects"}}
	for _, it := range g.Items {
		t.Rows = append(t.Rows, []string{it.Name, it.ProcessedName, it.Objects})
	}
	r.AddTable(t)
	r.Counts = breakdownCounts(g.Stats.Breakdown)
	return r
}

// FromVideos summarizes a video detection job.
func FromVideos(res *model.VideoResults) *Result {
	r := NewResult("Video Detection")
	r.Payload = res

	v := view.NewVideoList(*res, nil)
	r.AddField("Filter", res.DetectionFilter.DisplayName()).
		AddField("Videos Processed", strconv.Itoa(v.Stats.Processed)).
		AddField("Total Objects", strconv.Itoa(v.Stats.TotalObjects)).
		AddField("Processing Time", v.Stats.ProcessingTime)

	t := Table{Title: "Processed Videos", Header: []string{"Video", "Result", "Frames", "Detections"}}
	for _, vid := range res.ProcessedVideos {
		t.Rows = append(t.Rows, []string{vid.OriginalName, vid.ProcessedName, strconv.Itoa(vid.TotalFrames), strconv.Itoa(vid.Detections)})
	}
	r.AddTable(t)
	r.Counts = breakdownCounts(v.Stats.Breakdown)
	return r
}

// FromUAV summarizes a UAV upload.
func FromUAV(res *model.UAVUploadResponse) *Result {
	r := NewResult("UAV Detection")
	r.Payload = res

	v := view.NewUAVResults(*res, nil)
	r.AddField("Session", v.Session).
		AddField("Images Processed", strconv.Itoa(v.Processed)).
		AddField("Total Detections", strconv.Itoa(v.TotalDetections))

	t := Table{Title: "Results", Header: []string{"File", "Detections", "Summary"}}
	counts := map[string]int{}
	for i, c := range v.Cards {
		if c.Failed {
			t.Rows = append(t.Rows, []string{c.Filename, "failed", c.Error})
			continue
		}
		t.Rows = append(t.Rows, []string{c.Filename, c.Detection, c.Summary})
		for _, d := range res.Results[i].Detections {
			counts[d.Class]++
		}
	}
	r.AddTable(t)
	r.Counts = countsOf(counts)
	return r
}

// FromCamo summarizes a camouflage detection job.
func FromCamo(res *model.CamoResults) *Result {
	r := NewResult("Camouflage Detection")
	r.Payload = res
	r.AddField("Processed", strconv.Itoa(res.TotalProcessed)).
		AddField("Failed", strconv.Itoa(res.TotalFailed))

	t := Table{Title: "Images", Header: []string{"Image", "Result", "Status"}}
	for _, img := range res.ProcessedImages {
		status := "ok"
		if img.Failed {
			status = "failed: " + img.Error
		}
		t.Rows = append(t.Rows, []string{img.OriginalFilename, img.ProcessedFilename, status})
	}
	r.AddTable(t)
	r.Counts = []Count{{Label: "Processed", Value: res.TotalProcessed}, {Label: "Failed", Value: res.TotalFailed}}
	return r
}

// FromMessages lists the inbox. Times are relative to now.
func FromMessages(l *model.MessageList, now time.Time) *Result {
	r := NewResult("Inbox")
	r.Payload = l

	v := view.NewInboxView(*l, now)
	r.AddField("Messages", strconv.Itoa(len(v.Items))).
		AddField("Unread", v.Badge.Text)

	t := Table{Title: "Messages", Header: []string{"", "Direction", "Time", "Message"}}
	for _, it := range v.Items {
		flag := ""
		switch {
		case it.Unread:
			flag = "NEW"
		case it.Broadcast:
			flag = "BROADCAST"
		}
		t.Rows = append(t.Rows, []string{flag, it.Header, it.Time, it.Body})
	}
	r.AddTable(t)
	return r
}

// FromLiveDetections lists a detection log snapshot.
func FromLiveDetections(dets []model.LiveDetection, status *model.LiveStatus) *Result {
	r := NewResult("Live Detection")
	r.Payload = dets
	if status != nil {
		r.AddField("Status", view.NewLiveStatusText(status.IsRunning).Text).
			AddField("Total Detections", strconv.Itoa(status.TotalDetections))
	}
	r.AddField("Log", view.DetectionLog{Entries: dets}.Count())

	t := Table{Title: "Detections", Header: []string{"Time", "Object", "Confidence"}}
	counts := map[string]int{}
	for _, d := range dets {
		t.Rows = append(t.Rows, []string{d.Timestamp, d.Object, d.Confidence})
		counts[d.Object]++
	}
	r.AddTable(t)
	r.Counts = countsOf(counts)
	return r
}

// FromMessage reports a one-line outcome, e.g. a sent message or a
// written download.
func FromMessage(title, format string, args ...any) *Result {
	r := NewResult(title)
	r.AddField("Result", fmt.Sprintf(format, args...))
	return r
}

// FromSessionDebug describes how the backend sees the current login.
func FromSessionDebug(d *model.SessionDebug) *Result {
	r := NewResult("Session")
	r.Payload = d
	r.AddField("Username", d.Username).
		AddField("Role", d.Role).
		AddField("Logged In", strconv.FormatBool(d.HasUsername)).
		AddField("Role Check", strconv.FormatBool(d.RoleCheck)).
		AddField("Session Keys", strings.Join(d.SessionKeys, ", "))
	return r
}

func countsOf(m map[string]int) []Count {
	return breakdownCounts(view.Breakdown(m))
}

func breakdownCounts(rows []view.ObjectCount) []Count {
	out := make([]Count, len(rows))
	for i, c := range rows {
		out[i] = Count{Label: c.Class, Value: c.Count}
	}
	return out
}
