package schema

// CatalogManhwaTable represents the 'catalog.manhwa' table
type CatalogManhwaTable struct {
	Table           string
	ID              string
	UpstreamID      string
	DataSource      string
	Title           string
	AltTitles       string
	TitleRomanized  string
	Synopsis        string
	Status          string
	Publisher       string
	StartYear       string
	EndYear         string
	TotalChapters   string
	SpecialChapters string
	CoverThumb      string
	CoverMedium     string
	CoverLarge      string
	CreatedAt       string
	UpdatedAt       string
	LastSyncedAt    string
	SyncStatus      string
	Version         string
	SearchVector    string
}

// CatalogManhwa is the schema definition for catalog.manhwa
var CatalogManhwa = CatalogManhwaTable{
	Table:           "catalog.manhwa",
	ID:              "id",
	UpstreamID:      "upstreamid",
	DataSource:      "datasource",
	Title:           "title",
	AltTitles:       "titlealt",
	TitleRomanized:  "titleromanized",
	Synopsis:        "synopsis",
	Status:          "status",
	Publisher:       "publisher",
	StartYear:       "startyear",
	EndYear:         "endyear",
	TotalChapters:   "totalchapters",
	SpecialChapters: "specialchapters",
	CoverThumb:      "coverthumb",
	CoverMedium:     "covermedium",
	CoverLarge:      "coverlarge",
	CreatedAt:       "createdat",
	UpdatedAt:       "updatedat",
	LastSyncedAt:    "lastsyncedat",
	SyncStatus:      "syncstatus",
	Version:         "version",
	SearchVector:    "searchvector",
}

func (t CatalogManhwaTable) Columns() []string {
	return []string{
		t.ID, t.UpstreamID, t.DataSource, t.Title, t.AltTitles, t.TitleRomanized,
		t.Synopsis, t.Status, t.Publisher, t.StartYear, t.EndYear,
		t.TotalChapters, t.SpecialChapters, t.CoverThumb, t.CoverMedium,
		t.CoverLarge, t.CreatedAt, t.UpdatedAt, t.LastSyncedAt, t.SyncStatus, t.Version,
	}
}
