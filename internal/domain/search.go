package domain

import "time"

// StoreStatus is the per-store metadata of a search
type StoreStatus struct {
	Count   int  `json:"count"`
	Success bool `json:"success"`
}

// SearchResult is the aggregated response of one search across all stores.
// Count always equals len(Products).
type SearchResult struct {
	Success    bool                     `json:"success"`
	SearchTerm string                   `json:"searchTerm"`
	Count      int                      `json:"count"`
	Products   []Product                `json:"products"`
	Stores     map[StoreKey]StoreStatus `json:"stores"`
	Timestamp  time.Time                `json:"timestamp"`
}
