package core

// DBOrdering is one sort key of a repository query. The transport layer vets
// field names before they get here; repositories splice them into ORDER BY.
type DBOrdering struct {
	Field     string
	Ascending bool
}

func (ord DBOrdering) String() string {
	direction := "DESC"
	if ord.Ascending {
		direction = "ASC"
	}
	return ord.Field + " " + direction
}
