package view

import (
	"github.com/i474232898/weather-dashboard/internal/weather"
)

// ErrorView is the retry prompt shown in place of data when a fetch fails.
type ErrorView struct {
	Error   bool   `json:"error"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
	Retry   bool   `json:"retry"`
}

// NewErrorView classifies err. Fetch failures are retryable from the UI;
// configuration and input errors are not.
func NewErrorView(err error) ErrorView {
	kind := weather.Kind(err)

	msg := err.Error()
	switch kind {
	case "configuration":
		msg = "Weather provider is not configured. Set OPENWEATHER_API_KEY."
	case "not_found":
		msg = "City not found. Check the spelling and try again."
	case "request":
		msg = "Failed to fetch weather data. Please try again."
	case "decode":
		msg = "The weather provider returned an unexpected response. Please try again."
	}

	return ErrorView{
		Error:   true,
		Kind:    kind,
		Message: msg,
		Retry:   kind == "request" || kind == "not_found" || kind == "decode",
	}
}
