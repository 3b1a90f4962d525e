package report

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/nao1215/hopcrawl/internal/model"
)

// kindLabel returns a display label for a failure kind, e.g. "Client Error".
func kindLabel(k model.FailureKind) string {
	return cases.Title(language.English).String(strings.ReplaceAll(k.String(), "_", " "))
}

// reasonLabel returns a display label for a terminal state, e.g. "Hops Exhausted".
func reasonLabel(r model.Reason) string {
	return cases.Title(language.English).String(strings.ReplaceAll(r.String(), "_", " "))
}

// failureKinds lists every kind in report order.
var failureKinds = []model.FailureKind{
	model.FailureClientError,
	model.FailureServerError,
	model.FailureTimeout,
	model.FailureTransport,
	model.FailureRobots,
}
