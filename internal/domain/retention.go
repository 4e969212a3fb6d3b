package domain

import "time"

// BackupArchive is the data.json payload inside an exported zip.
type BackupArchive struct {
	BackupDate time.Time        `json:"backup_date"`
	RangeStart time.Time        `json:"range_start"`
	RangeEnd   time.Time        `json:"range_end"`
	Sessions   []ParkingSession `json:"sessions"`
	Rates      []ParkingRate    `json:"rates"`
}

type ExportRequestDTO struct {
	From          string `json:"from" binding:"required"`
	To            string `json:"to" binding:"required"`
	IncludeImages bool   `json:"include_images"`
}

type ImportCounts struct {
	SessionsCreated int `json:"sessions_created"`
	SessionsUpdated int `json:"sessions_updated"`
	SessionsSkipped int `json:"sessions_skipped"`
	RatesCreated    int `json:"rates_created"`
	RatesSkipped    int `json:"rates_skipped"`
}

type PurgeRequestDTO struct {
	Before        string `json:"before" binding:"required"`
	IncludePhotos bool   `json:"include_photos"`
}

type PurgeCounts struct {
	Sessions int64 `json:"sessions"`
	Photos   int   `json:"photos"`
}
