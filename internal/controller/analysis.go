package controller

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/nao1215/opsdash/internal/api"
	"github.com/nao1215/opsdash/internal/model"
	"github.com/nao1215/opsdash/internal/store"
	"github.com/nao1215/opsdash/internal/view"
)

// Containers and controls of the analysis page.
const (
	AnalysisStatusContainer  = "analysis-error"
	AnalysisResultsContainer = "analysis-results"
	AnalyzeButton            = "analyze"
)

// Messages of the analysis page.
const (
	InvalidAnalysisMessage = "Please fill in all required fields with valid values."
	AnalysisNetworkMessage = "Network error: Unable to complete analysis"
	WaitingAnalysisMessage = "Awaiting battlefield parameters..."
)

const (
	analyzeLabel = "ANALYZE BATTLEFIELD SCENARIO"
	sliderStart  = "5"
)

// AnalysisBackend is the part of the API the analysis page uses.
type AnalysisBackend interface {
	Analyze(ctx context.Context, req model.AnalysisRequest) (*model.AnalysisResult, error)
}

// FormStore keeps form values between runs. *store.FormStore implements it.
type FormStore interface {
	Save(ctx context.Context, session, form string, fields map[string]string) error
	Load(ctx context.Context, session, form string) (map[string]string, error)
}

// Analysis is the battlefield analysis form and its result panel.
type Analysis struct {
	base
	backend AnalysisBackend
	store   FormStore
	session string

	mu      sync.Mutex
	form    model.AnalysisRequest
	invalid []string
	result  *view.AnalysisView
	raw     *model.AnalysisResult
}

// NewAnalysis returns an analysis page with the sliders at their start
// value. A nil store disables auto-save.
func NewAnalysis(backend AnalysisBackend, fs FormStore, session string, opts ...Option) *Analysis {
	a := &Analysis{
		base:    newBase("Battlefield Analysis", opts, AnalysisStatusContainer, AnalysisResultsContainer),
		backend: backend,
		store:   fs,
		session: session,
		form:    defaultAnalysisForm(),
	}
	a.controls.Set(AnalyzeButton, view.Control{Enabled: true, Visible: true, Label: analyzeLabel})
	a.status(AnalysisResultsContainer, view.NewStatus(view.StatusInfo, WaitingAnalysisMessage))
	return a
}

func defaultAnalysisForm() model.AnalysisRequest {
	return model.AnalysisRequest{Visibility: sliderStart, IntelConfidence: sliderStart}
}

// Form returns the current form values.
func (a *Analysis) Form() model.AnalysisRequest {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.form
}

// Invalid returns the fields flagged by the last Submit.
func (a *Analysis) Invalid() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.invalid...)
}

// Result returns the last result panel, or nil.
func (a *Analysis) Result() *view.AnalysisView {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.result
}

// Response returns the backend reply of the last analysis, or nil.
func (a *Analysis) Response() *model.AnalysisResult {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.raw
}

// SetField sets one form field by its JSON name and saves the form.
func (a *Analysis) SetField(ctx context.Context, name, value string) error {
	a.mu.Lock()
	if name == "civilian_presence" {
		a.form.CivilianPresence = value
	} else {
		fields := a.form.Fields()
		if _, ok := fields[name]; !ok {
			a.mu.Unlock()
			return invalid(fmt.Sprintf("unknown field %q", name))
		}
		fields[name] = value
		civ := a.form.CivilianPresence
		a.form = model.AnalysisRequest{}
		a.form.ApplyFields(fields)
		a.form.CivilianPresence = civ
	}
	fields := a.form.Fields()
	a.mu.Unlock()

	return a.save(ctx, fields)
}

// SetForm replaces the whole form and saves it.
func (a *Analysis) SetForm(ctx context.Context, req model.AnalysisRequest) error {
	a.mu.Lock()
	a.form = req
	fields := req.Fields()
	a.mu.Unlock()
	return a.save(ctx, fields)
}

func (a *Analysis) save(ctx context.Context, fields map[string]string) error {
	if a.store == nil {
		return nil
	}
	if err := a.store.Save(ctx, a.session, store.FormAnalysis, fields); err != nil {
		a.logger.Warn("could not save form data", "error", err)
		return err
	}
	return nil
}

// Restore fills the form from the store. Nothing saved is not an error.
func (a *Analysis) Restore(ctx context.Context) error {
	if a.store == nil {
		return nil
	}
	fields, err := a.store.Load(ctx, a.session, store.FormAnalysis)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		a.logger.Warn("could not load saved form data", "error", err)
		return err
	}
	a.mu.Lock()
	a.form.ApplyFields(fields)
	a.mu.Unlock()
	return nil
}

// Reset puts the form and the result panel back to their start state.
func (a *Analysis) Reset() {
	a.mu.Lock()
	a.form = defaultAnalysisForm()
	a.invalid = nil
	a.result = nil
	a.raw = nil
	a.mu.Unlock()

	a.page.Container(AnalysisStatusContainer).Clear()
	a.status(AnalysisResultsContainer, view.NewStatus(view.StatusInfo, WaitingAnalysisMessage))
	a.controls.Set(AnalyzeButton, view.Control{Enabled: true, Visible: true, Label: analyzeLabel})
}

// Submit validates the form and sends it for analysis.
func (a *Analysis) Submit(ctx context.Context) (*view.AnalysisView, error) {
	a.mu.Lock()
	req := a.form
	a.invalid = req.InvalidFields()
	bad := len(a.invalid) > 0
	a.mu.Unlock()

	if bad {
		a.status(AnalysisStatusContainer, view.AnalysisError(InvalidAnalysisMessage))
		return nil, invalid(InvalidAnalysisMessage)
	}

	a.page.Container(AnalysisStatusContainer).Clear()
	a.status(AnalysisResultsContainer, view.NewStatus(view.StatusProcessing, "ANALYZING BATTLEFIELD..."))
	a.controls.Set(AnalyzeButton, view.Control{Enabled: false, Visible: true, Label: "ANALYZING..."})
	defer a.controls.Set(AnalyzeButton, view.Control{Enabled: true, Visible: true, Label: analyzeLabel})

	res, err := a.backend.Analyze(ctx, req)
	if err != nil {
		var domainErr *api.DomainError
		msg := AnalysisNetworkMessage
		if errors.As(err, &domainErr) {
			msg = domainErr.Message
		}
		a.fail(AnalysisStatusContainer, view.AnalysisError(msg).Message, err)
		a.status(AnalysisResultsContainer, view.NewStatus(view.StatusInfo, WaitingAnalysisMessage))
		return nil, err
	}

	v := view.NewAnalysisView(*res)
	a.mu.Lock()
	a.result = &v
	a.raw = res
	a.mu.Unlock()
	a.render(AnalysisResultsContainer, view.TmplAnalysis, v)
	return &v, nil
}

// Close tears the page down.
func (a *Analysis) Close() {
	a.shutdown()
}
