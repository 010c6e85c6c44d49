package orchestrator

import "leadflow/models"

// ChannelRollup aggregates engagement per channel
type ChannelRollup struct {
	Scheduled  int `json:"scheduled"`
	Dispatched int `json:"dispatched"`
	Opened     int `json:"opened"`
	Clicked    int `json:"clicked"`
	Replied    int `json:"replied"`
	Shared     int `json:"shared"`
	Converted  int `json:"converted"`
}

// Analytics is a read-only projection over orchestrator state for dashboards
type Analytics struct {
	TotalWorkflows      int                                 `json:"total_workflows"`
	WorkflowsByStatus   map[models.WorkflowStatus]int       `json:"workflows_by_status"`
	TotalEnrollments    int                                 `json:"total_enrollments"`
	EnrollmentsByStatus map[models.EnrollmentStatus]int     `json:"enrollments_by_status"`
	Channels            map[models.Channel]*ChannelRollup   `json:"channels"`
	ResponseRate        float64                             `json:"response_rate"`
}

// WorkflowAnalytics builds the analytics projection, scoped to one workflow
// when workflowID is non-nil. Returns (nil, nil) for an unknown workflow id.
func (s *Service) WorkflowAnalytics(workflowID *uint) (*Analytics, error) {
	a := &Analytics{
		WorkflowsByStatus:   make(map[models.WorkflowStatus]int),
		EnrollmentsByStatus: make(map[models.EnrollmentStatus]int),
		Channels:            make(map[models.Channel]*ChannelRollup),
	}

	var enrollments []models.LeadEnrollment
	if workflowID != nil {
		w, err := s.workflows.Get(*workflowID)
		if err != nil {
			return nil, err
		}
		if w == nil {
			return nil, nil
		}
		a.TotalWorkflows = 1
		a.WorkflowsByStatus[w.Status]++
		enrollments, err = s.enrollments.ListByWorkflow(*workflowID)
		if err != nil {
			return nil, err
		}
	} else {
		flows, err := s.workflows.List()
		if err != nil {
			return nil, err
		}
		a.TotalWorkflows = len(flows)
		for _, w := range flows {
			a.WorkflowsByStatus[w.Status]++
		}
		enrollments, err = s.enrollments.List()
		if err != nil {
			return nil, err
		}
	}

	responded := 0
	for i := range enrollments {
		e := &enrollments[i]
		a.TotalEnrollments++
		a.EnrollmentsByStatus[e.Status]++

		if e.NextAction != nil {
			r := a.rollup(e.NextAction.Channel)
			r.Scheduled++
			if e.NextAction.DispatchedAt != nil {
				r.Dispatched++
			}
		}
		if len(e.Responses) > 0 {
			responded++
		}
		for _, resp := range e.Responses {
			r := a.rollup(resp.Channel)
			switch resp.ResponseType {
			case models.ResponseOpened:
				r.Opened++
			case models.ResponseClicked:
				r.Clicked++
			case models.ResponseReplied:
				r.Replied++
			case models.ResponseShared:
				r.Shared++
			case models.ResponseConverted:
				r.Converted++
			}
		}
	}
	if a.TotalEnrollments > 0 {
		a.ResponseRate = float64(responded) / float64(a.TotalEnrollments)
	}
	return a, nil
}

func (a *Analytics) rollup(c models.Channel) *ChannelRollup {
	r, ok := a.Channels[c]
	if !ok {
		r = &ChannelRollup{}
		a.Channels[c] = r
	}
	return r
}
