package domain

import (
	"fmt"
	"strings"
)

// Kind names a root entity kind.
type Kind string

// Supported entity kinds.
const (
	KindPopulation      Kind = "population"
	KindSample          Kind = "sample"
	KindFile            Kind = "file"
	KindDataCollection  Kind = "data_collection"
	KindSuperpopulation Kind = "superpopulation"
	KindAnalysisGroup   Kind = "analysis_group"
)

// Kinds lists every kind in a stable order.
func Kinds() []Kind {
	return []Kind{
		KindPopulation, KindSample, KindFile,
		KindDataCollection, KindSuperpopulation, KindAnalysisGroup,
	}
}

// ParseKind accepts the canonical name, a dashed variant and the legacy "<kind>_index" form.
func ParseKind(s string) (Kind, error) {
	n := strings.ToLower(strings.TrimSpace(s))
	n = strings.ReplaceAll(n, "-", "_")
	n = strings.TrimSuffix(n, "_index")
	if n == "super_population" {
		n = string(KindSuperpopulation)
	}
	for _, k := range Kinds() {
		if string(k) == n {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Mode selects the publication state for a run.
type Mode string

// Publication modes.
const (
	ModeCreate Mode = "create"
	ModeUpdate Mode = "update"
)

// ParseMode validates a mode flag value.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeCreate:
		return ModeCreate, nil
	case ModeUpdate:
		return ModeUpdate, nil
	default:
		return "", fmt.Errorf("%w: %q (want create or update)", ErrInvalidMode, s)
	}
}
