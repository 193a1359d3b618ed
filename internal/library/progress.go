package library

// Step is the amount one increment or decrement moves a leaf record.
// Games count minutes and move in half-hour steps.
func (t MediaType) Step() int {
	if t == MediaGame {
		return 30
	}
	return 1
}

// StoredProgress returns the persisted progress of a leaf record.
func (r *Record) StoredProgress() int { return r.Progress }

// CurrentStatus returns the record's status.
func (r *Record) CurrentStatus() Status { return r.Status }

// DerivedProgress returns the number of watched episodes.
func (ss *SeasonSummary) DerivedProgress() int { return ss.Progress }

// CurrentStatus returns the season's status.
func (ss *SeasonSummary) CurrentStatus() Status { return ss.Status }

// DerivedProgress returns the number of watched episodes across all seasons.
func (tv *TVSummary) DerivedProgress() int { return tv.Progress }

// CurrentStatus returns the show's status.
func (tv *TVSummary) CurrentStatus() Status { return tv.Record.Status }
