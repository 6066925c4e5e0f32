package editor

import (
	"fmt"

	"github.com/sppas/phoenix/internal/anndata"
)

// EventKind names a notification sent by the editor core.
type EventKind int

const (
	EvAnnUpdate EventKind = iota
	EvAnnSelected
	EvAnnCreate
	EvAnnDelete
	EvTierSelected
	EvTiersAdded
	EvTierRemoved
	EvFileRemoved
	EvFileSaved
	EvMediaLoaded
	EvMediaNotLoaded
	EvRangeChanged
)

var eventNames = map[EventKind]string{
	EvAnnUpdate:      "ann_update",
	EvAnnSelected:    "ann_selected",
	EvAnnCreate:      "ann_create",
	EvAnnDelete:      "ann_delete",
	EvTierSelected:   "tier_selected",
	EvTiersAdded:     "tiers_added",
	EvTierRemoved:    "tier_removed",
	EvFileRemoved:    "file_removed",
	EvFileSaved:      "file_saved",
	EvMediaLoaded:    "media_loaded",
	EvMediaNotLoaded: "media_not_loaded",
	EvRangeChanged:   "range_changed",
}

func (k EventKind) String() string {
	if s, ok := eventNames[k]; ok {
		return s
	}
	return fmt.Sprintf("event(%d)", int(k))
}

// Event is one notification. Index is -1 when not relevant.
type Event struct {
	Kind  EventKind
	File  string
	Tier  string
	Index int
	Err   error
}

func (e Event) String() string {
	if e.Index >= 0 {
		return fmt.Sprintf("%s=%d", e.Kind, e.Index)
	}
	return e.Kind.String()
}

// Listener receives editor events on the UI goroutine.
type Listener func(Event)

// Selection is the single editor-wide selection. At most one file, tier
// and annotation are selected; Boundary is set only when the last click
// landed on an endpoint of the selected annotation, and Sharing then
// lists every annotation of the tier with that endpoint.
type Selection struct {
	File     string
	Tier     string
	Ann      int
	Boundary *anndata.Point
	Sharing  []int
}

func NoSelection() Selection { return Selection{Ann: -1} }

func (s Selection) IsEmpty() bool { return s.File == "" }

func (s Selection) HasAnn() bool { return s.File != "" && s.Ann >= 0 }
