package view

import (
	"strconv"
	"time"

	"github.com/nao1215/opsdash/internal/model"
)

// EmptyLocationMessage is shown when the lookup field is blank.
const EmptyLocationMessage = "Please enter a city name"

var weatherIcons = map[string]string{
	"Clear":        "☀️",
	"Clouds":       "☁️",
	"Rain":         "🌧️",
	"Drizzle":      "🌦️",
	"Thunderstorm": "⛈️",
	"Snow":         "🌨️",
	"Mist":         "🌫️",
	"Fog":          "🌫️",
	"Haze":         "🌫️",
	"Dust":         "🌪️",
	"Sand":         "🌪️",
	"Tornado":      "🌪️",
	"Ash":          "🌋",
	"Squall":       "💨",
}

// WeatherIcon returns the icon of a weather_main value.
func WeatherIcon(main string) string {
	if icon, ok := weatherIcons[main]; ok {
		return icon
	}
	return "🌤️"
}

// SunTime formats Unix seconds as 24h "HH:MM" in loc, "--:--" when unknown.
func SunTime(unix int64, loc *time.Location) string {
	if unix == 0 {
		return "--:--"
	}
	if loc == nil {
		loc = time.Local
	}
	return time.Unix(unix, 0).In(loc).Format("15:04")
}

// WeatherView is the weather panel.
type WeatherView struct {
	Location    string
	Icon        string
	Main        string
	Description string
	Temperature string
	FeelsLike   string
	Humidity    string
	Pressure    string
	WindSpeed   string
	WindDir     string
	Visibility  string
	Clouds      string
	Sunrise     string
	Sunset      string
	Online      bool
	Message     string
}

// StatusText is the indicator label.
func (w WeatherView) StatusText() string {
	if w.Online {
		return "ONLINE"
	}
	return "OFFLINE"
}

// StatusClass selects the indicator color.
func (w WeatherView) StatusClass() string {
	if w.Online {
		return "status-online"
	}
	return "status-offline"
}

// NewWeatherView builds the panel. Sun times are shown in loc.
func NewWeatherView(w model.Weather, loc *time.Location) WeatherView {
	return WeatherView{
		Location:    w.City + ", " + w.Country,
		Icon:        WeatherIcon(w.WeatherMain),
		Main:        w.WeatherMain,
		Description: w.WeatherDesc,
		Temperature: FormatNumber(w.Temperature) + "°C",
		FeelsLike:   FormatNumber(w.FeelsLike) + "°C",
		Humidity:    strconv.Itoa(w.Humidity) + "%",
		Pressure:    strconv.Itoa(w.Pressure) + " hPa",
		WindSpeed:   FormatNumber(w.WindSpeed) + " m/s",
		WindDir:     strconv.Itoa(w.WindDeg) + "°",
		Visibility:  FormatNumber(w.Visibility) + " km",
		Clouds:      strconv.Itoa(w.Clouds) + "%",
		Sunrise:     SunTime(w.Sunrise, loc),
		Sunset:      SunTime(w.Sunset, loc),
		Online:      w.Online(),
		Message:     w.Message,
	}
}

// WeatherError is the status line after a failed update.
func WeatherError(msg string) Status {
	return ErrorStatus("ERROR: Failed to update weather: " + msg)
}
