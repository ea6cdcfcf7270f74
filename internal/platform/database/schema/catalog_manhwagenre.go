package schema

// CatalogManhwaGenreTable represents the 'catalog.manhwagenre' junction table
type CatalogManhwaGenreTable struct {
	Table    string
	ManhwaID string
	GenreID  string
}

// CatalogManhwaGenre is the schema definition for catalog.manhwagenre
var CatalogManhwaGenre = CatalogManhwaGenreTable{
	Table:    "catalog.manhwagenre",
	ManhwaID: "manhwaid",
	GenreID:  "genreid",
}

func (t CatalogManhwaGenreTable) Columns() []string {
	return []string{t.ManhwaID, t.GenreID}
}
