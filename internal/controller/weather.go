package controller

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/nao1215/opsdash/internal/api"
	"github.com/nao1215/opsdash/internal/model"
	"github.com/nao1215/opsdash/internal/poll"
	"github.com/nao1215/opsdash/internal/view"
)

// Containers and controls of the weather panel.
const (
	WeatherContainer       = "weather"
	WeatherStatusContainer = "weather-status"
	WeatherUpdateButton    = "update-weather"
)

// weatherErrorTTL is how long an error stays on the panel.
const weatherErrorTTL = 5 * time.Second

// WeatherBackend is the part of the API the weather panel uses.
type WeatherBackend interface {
	Weather(ctx context.Context, location string) (*model.Weather, error)
}

// Weather is the weather panel of the soldier dashboard.
type Weather struct {
	base
	backend WeatherBackend

	mu      sync.Mutex
	city    string
	current *view.WeatherView
}

// NewWeather returns a weather panel.
func NewWeather(backend WeatherBackend, opts ...Option) *Weather {
	w := &Weather{
		base:    newBase("Weather", opts, WeatherStatusContainer, WeatherContainer),
		backend: backend,
	}
	w.controls.Set(WeatherUpdateButton, view.Control{Enabled: true, Visible: true, Label: "UPDATE"})
	return w
}

// Location returns the location of the last update.
func (w *Weather) Location() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.city
}

// Current returns the panel shown, or nil before the first load.
func (w *Weather) Current() *view.WeatherView {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

// Load shows the backend's default city.
func (w *Weather) Load(ctx context.Context) error {
	return w.fetch(ctx, "")
}

// Update shows the weather of loc. An empty location is rejected without a
// request.
func (w *Weather) Update(ctx context.Context, loc string) error {
	loc = strings.TrimSpace(loc)
	if loc == "" {
		w.showError(ctx, "ERROR: "+view.EmptyLocationMessage)
		return invalid(view.EmptyLocationMessage)
	}

	w.controls.Set(WeatherUpdateButton, view.Control{Enabled: false, Visible: true, Label: "LOADING..."})
	defer w.controls.Set(WeatherUpdateButton, view.Control{Enabled: true, Visible: true, Label: "UPDATE"})

	w.mu.Lock()
	w.city = loc
	w.mu.Unlock()
	return w.fetch(ctx, loc)
}

func (w *Weather) fetch(ctx context.Context, loc string) error {
	data, err := w.backend.Weather(ctx, loc)
	if err != nil {
		w.logger.Error("weather update", "location", loc, "error", err)
		w.showError(ctx, view.WeatherError(api.UserMessage(err)).Message)
		return err
	}

	v := view.NewWeatherView(*data, w.location)
	w.mu.Lock()
	w.current = &v
	w.mu.Unlock()
	w.render(WeatherContainer, view.TmplWeather, v)
	w.page.Container(WeatherStatusContainer).Clear()
	return nil
}

// Refresh repeats the last update. Without a location it does nothing.
func (w *Weather) Refresh(ctx context.Context) error {
	loc := w.Location()
	if loc == "" {
		return nil
	}
	return w.Update(ctx, loc)
}

// Start refreshes the panel on the weather interval until Close. Ticks
// before the first Update are skipped.
func (w *Weather) Start(ctx context.Context) error {
	t, err := poll.NewTask("weather_refresh", w.weatherRefresh, func(ctx context.Context) bool {
		_ = w.Refresh(ctx)
		return false
	}, poll.WithLogger(w.logger))
	if err != nil {
		return err
	}
	return w.schedule(ctx, t)
}

// Close stops the refresh and tears the panel down.
func (w *Weather) Close() {
	w.shutdown()
}

// showError shows msg until weatherErrorTTL passes.
func (w *Weather) showError(ctx context.Context, msg string) {
	w.flash(ctx, WeatherStatusContainer, view.ErrorStatus(msg), weatherErrorTTL)
}
