package repository

// Table name constants.
const (
	tableDepartments    = "departments"
	tableMunicipalities = "municipalities"
	tableZones          = "zones"
	tablePollingPlaces  = "polling_places"
	tableVotingTables   = "voting_tables"
	tableCaptures       = "table_captures"
)

// idBatchSize limits IN clauses to stay under SQLite's 999 parameter limit.
const idBatchSize = 500
