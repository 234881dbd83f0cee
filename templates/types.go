package templates

// ScenarioReport is everything the report template prints about one
// scenario run.
type ScenarioReport struct {
	Name            string
	CacheLimit      int
	ExpireInMinutes int

	Trace   []TraceLine
	Entries []EntryLine

	Ready   bool
	Passes  int
	Expired int
	Trimmed int
	Resets  int

	Failures []string
}

type TraceLine struct {
	Step   int
	Kind   string
	Detail string
}

type EntryLine struct {
	Key string
	// time since the scenario started, as a duration string
	Offset string
	Ready  bool
}
