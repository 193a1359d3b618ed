package library

// RecordFilter specifies criteria for listing records.
type RecordFilter struct {
	UserID    *int64
	ItemID    *int64
	MediaType *MediaType
	Status    *Status
	Statuses  []Status // any of
	Limit     int      // 0 = no limit
	Offset    int
}

// SeasonFilter specifies criteria for listing seasons.
type SeasonFilter struct {
	UserID   *int64
	TVID     *int64
	Statuses []Status // any of
	Limit    int
	Offset   int
}

// EpisodeFilter specifies criteria for listing episodes.
type EpisodeFilter struct {
	SeasonID *int64
	Limit    int
	Offset   int
}
