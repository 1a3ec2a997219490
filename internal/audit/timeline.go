package audit

import (
	"time"

	"github.com/google/uuid"
)

// TimelineFilters menampung filter dasar untuk timeline aktivitas.
type TimelineFilters struct {
	From     time.Time
	To       time.Time
	Action   string
	Page     int
	PageSize int
}

// TimelineRow mewakili satu baris timeline aktivitas. ActorID nil berarti
// entri dibuat oleh sistem, bukan oleh pengguna.
type TimelineRow struct {
	At        time.Time      `json:"at"`
	ActorID   *uuid.UUID     `json:"actor_id,omitempty"`
	ActorName string         `json:"actor_name"`
	Action    string         `json:"action"`
	Details   map[string]any `json:"details,omitempty"`
}

// PagingInfo menyimpan metadata pagination sederhana.
type PagingInfo struct {
	Page     int  `json:"page"`
	PageSize int  `json:"page_size"`
	HasNext  bool `json:"has_next"`
	PrevPage int  `json:"prev_page,omitempty"`
	NextPage int  `json:"next_page,omitempty"`
}

// Result membungkus hasil timeline dengan informasi paging.
type Result struct {
	Rows   []TimelineRow `json:"rows"`
	Paging PagingInfo    `json:"paging"`
}
