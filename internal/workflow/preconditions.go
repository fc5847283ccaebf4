package workflow

import (
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/sma-request-workflow/internal/models"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

var validate = validator.New()

// LessonDraft carries the fields a student supplies when booking a lesson.
type LessonDraft struct {
	Topic           string
	PreferredDate   string
	PreferredTime   string
	AltDate         string
	AltTime         string
	DurationMinutes int
}

// ValidateLessonDraft checks the creation preconditions of a lesson request.
func ValidateLessonDraft(d LessonDraft) error {
	if strings.TrimSpace(d.Topic) == "" {
		return invalid("topic", "Please choose a topic for the lesson")
	}
	if strings.TrimSpace(d.PreferredDate) == "" {
		return invalid("preferredDate", "Please pick a preferred date")
	}
	if strings.TrimSpace(d.PreferredTime) == "" {
		return invalid("preferredTime", "Please pick a preferred time")
	}
	if _, err := time.Parse(dateLayout, d.PreferredDate); err != nil {
		return invalid("preferredDate", "Preferred date must look like 2025-06-01")
	}
	if _, err := time.Parse(timeLayout, d.PreferredTime); err != nil {
		return invalid("preferredTime", "Preferred time must look like 14:00")
	}
	if (d.AltDate == "") != (d.AltTime == "") {
		return invalid("altDate", "Alternative date and time must be given together")
	}
	if d.AltDate != "" {
		if _, err := time.Parse(dateLayout, d.AltDate); err != nil {
			return invalid("altDate", "Alternative date must look like 2025-06-01")
		}
		if _, err := time.Parse(timeLayout, d.AltTime); err != nil {
			return invalid("altTime", "Alternative time must look like 14:00")
		}
	}
	if !validDuration(d.DurationMinutes) {
		return invalid("durationMinutes", "Lesson length must be 30, 45, 60 or 90 minutes")
	}
	return nil
}

// ValidateZoomLink requires an absolute http(s) URL with a host.
func ValidateZoomLink(link string) error {
	link = strings.TrimSpace(link)
	if link == "" {
		return invalid("zoomLink", "Please provide a Zoom link")
	}
	if err := validate.Var(link, "url"); err != nil {
		return invalid("zoomLink", "The Zoom link must be a full web address such as https://zoom.us/j/123")
	}
	u, err := url.Parse(link)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return invalid("zoomLink", "The Zoom link must be a full web address such as https://zoom.us/j/123")
	}
	return nil
}

func validDuration(minutes int) bool {
	for _, d := range models.LessonDurations {
		if d == minutes {
			return true
		}
	}
	return false
}
