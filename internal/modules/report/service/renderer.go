package service

import (
	"time"

	"everest/internal/modules/report/domain"
	sessiondto "everest/internal/modules/session/dto"
	"everest/internal/platform/clock"
)

type Renderer struct {
	clock    clock.Clock
	locale   domain.Locale
	location *time.Location
}

func NewRenderer(clock clock.Clock, locale domain.Locale, location *time.Location) *Renderer {
	return &Renderer{clock: clock, locale: locale, location: location}
}

// Render produces the document stamped with the current time. An empty
// locale uses the configured one.
func (r *Renderer) Render(kind domain.Kind, locale domain.Locale, st sessiondto.StatisticsOutput) (domain.Document, error) {
	if locale == "" {
		locale = r.locale
	}
	return domain.Render(kind, st, domain.Meta{
		GeneratedAt: r.clock.Now(),
		Locale:      locale,
		Location:    r.location,
	})
}
