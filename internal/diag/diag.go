package diag

import (
	"encoding/json"
	"errors"
	"log"
	"strings"
)

func emit(enabled bool, fn func(label, payload string), label, payload string) {
	if fn != nil {
		fn(label, payload)
	}
	if enabled {
		log.Printf("%s: %s", label, payload)
	}
}

func LogJSON(enabled bool, fn func(label, payload string), label string, value any) {
	if !enabled && fn == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		emit(enabled, fn, label, "<marshal error: "+err.Error()+">")
		return
	}
	emit(enabled, fn, label, string(data))
}

func LogText(enabled bool, fn func(label, payload string), label string, text string) {
	if !enabled && fn == nil {
		return
	}
	emit(enabled, fn, label, text)
}

type rawJSONer interface {
	RawJSON() string
}

// LogError logs the raw response body carried by SDK errors when there is
// one, and the error string otherwise.
func LogError(enabled bool, fn func(label, payload string), label string, err error) {
	if err == nil || (!enabled && fn == nil) {
		return
	}
	payload := err.Error()
	var raw rawJSONer
	if errors.As(err, &raw) {
		if body := strings.TrimSpace(raw.RawJSON()); body != "" {
			payload = body
		}
	}
	emit(enabled, fn, label, payload)
}
