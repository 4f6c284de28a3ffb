package model

// Weather is the reply of the weather endpoint. Sunrise and Sunset are Unix
// seconds; zero means unknown.
type Weather struct {
	City        string  `json:"city"`
	Country     string  `json:"country"`
	WeatherMain string  `json:"weather_main"`
	WeatherDesc string  `json:"weather_desc"`
	Temperature float64 `json:"temperature"`
	FeelsLike   float64 `json:"feels_like"`
	Humidity    int     `json:"humidity"`
	Pressure    int     `json:"pressure"`
	WindSpeed   float64 `json:"wind_speed"`
	WindDeg     int     `json:"wind_deg"`
	Visibility  float64 `json:"visibility"`
	Clouds      int     `json:"clouds"`
	Sunrise     int64   `json:"sunrise"`
	Sunset      int64   `json:"sunset"`
	Status      string  `json:"status"`
	Message     string  `json:"message,omitempty"`
}

// Online reports whether the backend fetched live data.
func (w Weather) Online() bool {
	return w.Status == "success"
}
