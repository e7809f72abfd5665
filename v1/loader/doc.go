// Package loader turns the result of a SQL query against CrateDB into
// documents, one per row.
//
// By default the page content lists every column as "column: value" lines
// and the metadata is empty:
//
//	l, _ := loader.New(client, "SELECT 1 AS a, 2 AS b")
//	docs, err := l.Load(ctx) // PageContent "a: 1\nb: 2"
//
// Named parameters use gorm's @name syntax:
//
//	l, _ := loader.New(client, `SELECT * FROM mlb_teams_2012 WHERE "Team" LIKE @search`,
//	    loader.WithParameters(map[string]any{"search": "R%"}),
//	    loader.WithMetadataColumns("Team"))
package loader
