package query

// Status accumulates validation and enrichment errors for one travel
// query. OK is derived from the list being empty, never cached, so it
// stays correct across the field-validation and enrichment passes.
type Status struct {
	Errors []string
}

// Add records an error message unless it is already present. Rules are
// evaluated in multiple passes and must not insert duplicates.
func (s *Status) Add(msg string) {
	for _, existing := range s.Errors {
		if existing == msg {
			return
		}
	}
	s.Errors = append(s.Errors, msg)
}

func (s *Status) OK() bool {
	return len(s.Errors) == 0
}
