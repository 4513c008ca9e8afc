package driven

import "github.com/ericfisherdev/coviddash/internal/domain/model"

// Publisher pushes a freshly built dashboard to live subscribers.
// Publish must not block on slow subscribers.
type Publisher interface {
	Publish(d model.Dashboard)
}
