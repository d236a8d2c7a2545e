package catalog

// MarkAudited returns a copy of reqs where every requirement listed in ids
// has NAudit advanced by one and LastAuditSprint set to sprintNumber, along
// with the number of requirements touched. Repeated calls advance again.
func MarkAudited(reqs []Requirement, ids IDSet, sprintNumber int) ([]Requirement, int) {
	out := CloneAll(reqs)
	updated := 0
	for i := range out {
		if !ids.Has(out[i].ID) {
			continue
		}
		sprint := sprintNumber
		out[i].NAudit++
		out[i].LastAuditSprint = &sprint
		updated++
	}
	return out, updated
}
