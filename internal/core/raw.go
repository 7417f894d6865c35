package core

import "time"

// rawTable is the last table read by an ingestion pass, kept verbatim.
type rawTable struct {
	fileName string
	rows     [][]string
	loadedAt time.Time
}

// RawPage is one page of a raw table.
type RawPage struct {
	FileName   string     `json:"file_name"`
	LoadedAt   time.Time  `json:"loaded_at,omitzero"`
	Page       int        `json:"page"`
	PageSize   int        `json:"page_size"`
	TotalRows  int        `json:"total_rows"`
	TotalPages int        `json:"total_pages"`
	Width      int        `json:"width"`
	FirstRow   int        `json:"first_row"`
	Rows       [][]string `json:"rows"`
}

// NewRawPage slices rows into pages of size and returns page (1-based).
// Out-of-range pages are clamped. FirstRow is the 0-based index of the
// page's first row, matching anomaly row numbers.
func NewRawPage(fileName string, rows [][]string, page, size int) RawPage {
	if size <= 0 {
		size = 50
	}
	totalPages := max(1, (len(rows)+size-1)/size)
	page = min(max(page, 1), totalPages)

	start := min((page-1)*size, len(rows))
	end := min(start+size, len(rows))

	width := 0
	for _, row := range rows {
		width = max(width, len(row))
	}

	return RawPage{
		FileName:   fileName,
		Page:       page,
		PageSize:   size,
		TotalRows:  len(rows),
		TotalPages: totalPages,
		Width:      width,
		FirstRow:   start,
		Rows:       rows[start:end],
	}
}

func (s *Service) setRaw(fileName string, rows [][]string) {
	s.rawMu.Lock()
	s.raw = &rawTable{fileName: fileName, rows: rows, loadedAt: time.Now().UTC()}
	s.rawMu.Unlock()
}

// Raw returns a page of the last table read by any pass, including passes
// that found no records. ErrNoData before the first pass.
func (s *Service) Raw(page int) (RawPage, error) {
	s.rawMu.RLock()
	raw := s.raw
	s.rawMu.RUnlock()

	if raw == nil {
		return RawPage{}, ErrNoData
	}
	p := NewRawPage(raw.fileName, raw.rows, page, s.opts.RawPageSize)
	p.LoadedAt = raw.loadedAt
	return p, nil
}
